package summariser

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ErrStorage matches every *StorageError via errors.Is.
var ErrStorage = errors.New("history storage error")

// StorageError reports that an appended record is held in memory but did not
// reach durable storage. The next successful append writes it out.
type StorageError struct {
	Pending int
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history not saved (%d pending): %v", e.Pending, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Retention bounds the journal. MaxRecords <= 0 keeps every record.
type Retention struct {
	MaxRecords int
}

// Unlimited is the default retention: nothing is ever dropped.
var Unlimited = Retention{}

func (r Retention) Unlimited() bool { return r.MaxRecords <= 0 }

func (r Retention) String() string {
	if r.Unlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", r.MaxRecords)
}

func (r Retention) apply(records []UploadRecord) []UploadRecord {
	if r.Unlimited() || len(records) <= r.MaxRecords {
		return records
	}
	return records[:r.MaxRecords]
}

// Journal is the ordered record of completed uploads, newest first.
//
// A Journal is not safe for concurrent use. Positions returned by Replay and
// accepted by Lookup are only meaningful until the next Append.
type Journal struct {
	backend   Backend
	retention Retention
	records   []UploadRecord
	unsaved   int
	newID     func() string
}

// LoadJournal reads the backend once. Missing or unreadable history yields an
// empty journal; the failure is logged, never returned.
func LoadJournal(backend Backend, retention Retention) *Journal {
	j := &Journal{
		backend:   backend,
		retention: retention,
		newID:     func() string { return uuid.NewString() },
	}
	records, err := backend.Load()
	if err != nil {
		log.Printf("history: starting empty, stored history unreadable: %v", err)
		records = nil
	}
	j.records = retention.apply(records)
	return j
}

// Append inserts rec at position 0 and persists the full journal.
// On a storage failure the record stays in memory and a *StorageError is returned.
func (j *Journal) Append(rec UploadRecord) error {
	if rec.ID == "" {
		rec.ID = j.newID()
	}
	records := make([]UploadRecord, 0, len(j.records)+1)
	records = append(records, rec)
	records = append(records, j.records...)
	j.records = j.retention.apply(records)

	j.unsaved++
	if j.unsaved > len(j.records) {
		j.unsaved = len(j.records)
	}
	if err := j.backend.Persist(j.records, j.unsaved); err != nil {
		return &StorageError{Pending: j.unsaved, Err: err}
	}
	j.unsaved = 0
	return nil
}

// Replay returns a copy of every record, newest to oldest.
func (j *Journal) Replay() []UploadRecord {
	out := make([]UploadRecord, len(j.records))
	copy(out, j.records)
	return out
}

// Lookup returns the record currently at index.
func (j *Journal) Lookup(index int) (UploadRecord, bool) {
	if index < 0 || index >= len(j.records) {
		return UploadRecord{}, false
	}
	return j.records[index], true
}

// LookupID returns the record with the given id and its current position.
func (j *Journal) LookupID(id string) (UploadRecord, int, bool) {
	if id == "" {
		return UploadRecord{}, -1, false
	}
	for i, rec := range j.records {
		if rec.ID == id {
			return rec, i, true
		}
	}
	return UploadRecord{}, -1, false
}

func (j *Journal) Len() int { return len(j.records) }

// Pending reports how many leading records have not reached storage.
func (j *Journal) Pending() int { return j.unsaved }

func (j *Journal) Retention() Retention { return j.retention }
