package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"e2ectl/pkg/api"
	"e2ectl/pkg/cases"
	"e2ectl/pkg/status"
)

//go:embed templates static
var content embed.FS

// ServerConfig holds configuration for the dashboard server.
type ServerConfig struct {
	Port       int    // port to listen on
	ProjectURL string // target site shown in the dashboard header
	CasesFile  string // spreadsheet path for the /api/cases endpoint
}

// Server provides the HTTP server for the real-time dashboard.
type Server struct {
	cfg    ServerConfig
	hub    *Hub
	buffer *Buffer
	srv    *http.Server

	// cases preview caching - set after first successful load
	casesMu    sync.Mutex
	casesCache *cases.Preview

	// latest container-run result, replaced wholesale on each run
	resultMu sync.Mutex
	result   *api.RunResult
}

// NewServer creates a new dashboard server.
func NewServer(cfg ServerConfig, hub *Hub, buffer *Buffer) *Server {
	return &Server{
		cfg:    cfg,
		hub:    hub,
		buffer: buffer,
	}
}

// Start begins listening for HTTP requests.
// blocks until the server is stopped or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	// register routes
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/api/cases", s.handleCases)
	mux.HandleFunc("/api/results", s.handleResults)

	// static files
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		return fmt.Errorf("static filesystem: %w", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// start shutdown listener
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("http server: %w", err)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

// Hub returns the server's event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Buffer returns the server's event buffer.
func (s *Server) Buffer() *Buffer {
	return s.buffer
}

// SetResult replaces the latest run result served by /api/results.
func (s *Server) SetResult(r api.RunResult) {
	s.resultMu.Lock()
	defer s.resultMu.Unlock()
	s.result = &r
}

// templateData holds data for the dashboard template.
type templateData struct {
	ProjectURL string
	CasesFile  string
}

// handleIndex serves the main dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// parse template from embedded filesystem
	tmpl, err := template.ParseFS(content, "templates/base.html")
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	data := templateData{
		ProjectURL: s.cfg.ProjectURL,
		CasesFile:  s.cfg.CasesFile,
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "template execution error", http.StatusInternalServerError)
		return
	}
}

// handleCases serves the spreadsheet preview as JSON.
// caches the result of the first successful load, so the preview survives the
// file being moved or rewritten mid-run.
func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.cfg.CasesFile == "" {
		http.Error(w, "no test-case file configured", http.StatusNotFound)
		return
	}

	preview, err := s.loadCases()
	if err != nil {
		log.Printf("[WARN] failed to load test-case file %s: %v", s.cfg.CasesFile, err)
		http.Error(w, "unable to load test cases", http.StatusInternalServerError)
		return
	}

	data, err := preview.JSON()
	if err != nil {
		log.Printf("[WARN] failed to encode test cases: %v", err)
		http.Error(w, "unable to encode test cases", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// loadCases returns the cached preview or parses it from disk.
func (s *Server) loadCases() (*cases.Preview, error) {
	s.casesMu.Lock()
	defer s.casesMu.Unlock()

	if s.casesCache != nil {
		return s.casesCache, nil
	}

	preview, err := cases.ParseFile(s.cfg.CasesFile)
	if err != nil {
		return nil, err
	}

	s.casesCache = preview
	return preview, nil
}

// handleResults serves the latest container-run result as JSON.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.resultMu.Lock()
	result := s.result
	s.resultMu.Unlock()

	if result == nil {
		http.Error(w, "no run results yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("[WARN] failed to encode result: %v", err)
		http.Error(w, "unable to encode result", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}

// handleEvents serves the SSE stream. an optional ?phase= parameter limits
// the history replay to one workflow phase; live events are always sent.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	// ensure we can flush
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// subscribe to hub
	eventCh := s.hub.Subscribe()
	defer s.hub.Unsubscribe(eventCh)

	// send history first
	history := s.buffer.All()
	if phase := r.URL.Query().Get("phase"); phase != "" {
		history = s.buffer.ByPhase(status.Phase(phase))
	}
	for _, event := range history {
		data, err := event.JSON()
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	flusher.Flush()

	// stream new events
	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return // channel closed
			}
			data, err := event.JSON()
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
