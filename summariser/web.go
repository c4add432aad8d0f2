package summariser

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/*.html
var webFS embed.FS

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"noSaved": func(s string) string {
		if s == "" {
			return NoSavedSummary
		}
		return s
	},
}).ParseFS(webFS, "web/*.html"))

// Endpoint is the summarisation service as seen by the web UI.
type Endpoint interface {
	Summariser
	Ping(ctx context.Context) error
}

type ServerOptions struct {
	Listen          string
	MaxFileBytes    int64
	Debug           bool
	ShutdownTimeout time.Duration
	Location        *time.Location
}

// Server is the local web rendition of the upload and history pages.
// All journal access goes through mu.
type Server struct {
	opts     ServerOptions
	mu       sync.Mutex
	journal  *Journal
	session  *Session
	endpoint Endpoint
	router   chi.Router
}

func NewServer(opts ServerOptions, journal *Journal, endpoint Endpoint) *Server {
	if opts.Listen == "" {
		opts.Listen = DefaultListen
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	s := &Server{opts: opts, journal: journal, endpoint: endpoint}
	s.session = NewSession(SessionConfig{
		MaxFileBytes: opts.MaxFileBytes,
		Debug:        opts.Debug,
		JournalLock:  &s.mu,
	}, endpoint, journal)
	journalRecords.Set(float64(journal.Len()))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/", s.handleHome)
	r.Get("/history", s.handleHistoryPage)
	r.Get("/recall/{index}", s.handleRecallPage)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{index}", s.handleRecall)
		r.Get("/records/{id}", s.handleRecordByID)
	})
	s.router = r
	return s
}

func (s *Server) debugf(format string, args ...any) {
	if s == nil || !s.opts.Debug {
		return
	}
	log.Printf(format, args...)
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web ui listening on http://%s", s.opts.Listen)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

type uploadResponse struct {
	Record         UploadRecord `json:"record"`
	Summary        string       `json:"summary"`
	InsightType    string       `json:"insight_type,omitempty"`
	HistoryWarning string       `json:"history_warning,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for multipart framing around a maximum-size file.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileBytes+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Detail: TooLarge(s.opts.MaxFileBytes).Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: ErrNoFile.Error()})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: ErrNoFile.Error()})
		return
	}
	defer file.Close()

	up, err := uploadFromPart(file, header)
	if err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	out, err := s.session.Generate(r.Context(), up)
	switch {
	case err == nil:
	case errors.Is(err, ErrRequestInFlight):
		uploadsTotal.WithLabelValues("busy").Inc()
		writeJSON(w, http.StatusConflict, errorResponse{Detail: err.Error()})
		return
	case errors.Is(err, ErrNotPDF), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrNoFile):
		uploadsTotal.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	default:
		uploadsTotal.WithLabelValues("endpoint_error").Inc()
		s.debugf("upload name=%q failed: %v", up.Name, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: err.Error()})
		return
	}

	resp := uploadResponse{Record: out.Record, Summary: out.Summary, InsightType: out.InsightType}
	if out.HistoryErr != nil {
		uploadsTotal.WithLabelValues("history_error").Inc()
		resp.HistoryWarning = "Summary generated, but history may not have been saved."
	} else {
		uploadsTotal.WithLabelValues("ok").Inc()
	}
	s.mu.Lock()
	journalRecords.Set(float64(s.journal.Len()))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func uploadFromPart(file multipart.File, header *multipart.FileHeader) (*FileUpload, error) {
	ct := baseContentType(header.Header.Get("Content-Type"))
	if ct == "" || ct == "application/octet-stream" {
		sniffed, err := sniffContentType(file)
		if err != nil {
			return nil, err
		}
		ct = sniffed
	}
	return &FileUpload{
		FileMeta: FileMeta{Name: header.Filename, Size: header.Size, ContentType: ct},
		Body:     file,
	}, nil
}

func (s *Server) historyView() []HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HistoryView(s.journal, s.opts.Location)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.historyView())
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "index must be an integer"})
		return
	}
	s.mu.Lock()
	rec, ok := RecordForRecall(s.journal, index)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "no history record at that position"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRecordByID(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, _, ok := s.journal.LookupID(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "no history record with that id"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	body := map[string]string{"status": "ok", "endpoint": "ok"}
	if err := s.endpoint.Ping(ctx); err != nil {
		body["endpoint"] = err.Error()
		body["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, body)
}

type homePage struct {
	MaxFileMB int64
	Recall    *UploadRecord
	Uploaded  string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "index.html", homePage{MaxFileMB: s.opts.MaxFileBytes / (1024 * 1024)})
}

func (s *Server) handleRecallPage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.mu.Lock()
	rec, ok := RecordForRecall(s.journal, index)
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	page := homePage{MaxFileMB: s.opts.MaxFileBytes / (1024 * 1024), Recall: &rec, Uploaded: rec.Date}
	if tm, ok := rec.Time(); ok {
		page.Uploaded = tm.In(s.opts.Location).Format("2006-01-02 15:04:05")
	}
	s.renderPage(w, "index.html", page)
}

type historyPage struct {
	Items []HistoryItem
	Empty string
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, "history.html", historyPage{Items: s.historyView(), Empty: EmptyHistoryText})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
