package summariser

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRequestInFlight is returned when Generate is called while a previous
// request of the same session has not finished.
var ErrRequestInFlight = errors.New("a summary is already being generated")

type SessionConfig struct {
	MaxFileBytes int64
	Debug        bool
	// JournalLock, when set, is held around every journal access made by the
	// session. Callers sharing the journal across goroutines pass their mutex.
	JournalLock sync.Locker
}

// Session drives one upload at a time: validate, summarise, resolve, record.
type Session struct {
	cfg      SessionConfig
	client   Summariser
	journal  *Journal
	inFlight atomic.Bool
	now      func() time.Time
}

// Outcome is what a successful Generate produced. HistoryErr is set when the
// summary was obtained but the journal could not persist it.
type Outcome struct {
	Record      UploadRecord
	Summary     string
	InsightType string
	HistoryErr  error
}

func NewSession(cfg SessionConfig, client Summariser, journal *Journal) *Session {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	return &Session{cfg: cfg, client: client, journal: journal, now: time.Now}
}

func (s *Session) debugf(format string, args ...any) {
	if s == nil || !s.cfg.Debug {
		return
	}
	log.Printf(format, args...)
}

// Busy reports whether a request is outstanding.
func (s *Session) Busy() bool { return s.inFlight.Load() }

func (s *Session) Generate(ctx context.Context, up *FileUpload) (*Outcome, error) {
	if up == nil {
		return nil, ErrNoFile
	}
	if err := ValidateFile(up.FileMeta, s.cfg.MaxFileBytes); err != nil {
		return nil, err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRequestInFlight
	}
	defer s.inFlight.Store(false)

	start := s.now()
	s.debugf("generate start name=%q size=%d", up.Name, up.Size)
	resp, err := s.client.Summarise(ctx, up)
	if err != nil {
		s.debugf("generate failed name=%q err=%v elapsed=%s", up.Name, err, s.now().Sub(start))
		return nil, err
	}

	summary := ResolveSummary(resp)
	rec := NewRecord(up.FileMeta, summary, s.now())
	out := &Outcome{Record: rec, Summary: summary, InsightType: resp.InsightType}

	s.lock()
	err = s.journal.Append(rec)
	if saved, ok := s.journal.Lookup(0); ok {
		out.Record = saved
	}
	historyLen := s.journal.Len()
	s.unlock()

	if err != nil {
		log.Printf("warning: summary for %q not saved to history: %v", up.Name, err)
		out.HistoryErr = err
	}
	s.debugf("generate done name=%q insight=%q historyLen=%d elapsed=%s", up.Name, resp.InsightType, historyLen, s.now().Sub(start))
	return out, nil
}

func (s *Session) lock() {
	if s.cfg.JournalLock != nil {
		s.cfg.JournalLock.Lock()
	}
}

func (s *Session) unlock() {
	if s.cfg.JournalLock != nil {
		s.cfg.JournalLock.Unlock()
	}
}
