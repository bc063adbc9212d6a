// Package web provides the HTTP diagnostics page for the parking-guide
// daemon.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/garagist/parking-guide/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	logger     *slog.Logger
	mux        *http.ServeMux
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	s := &Server{
		tracker: tracker,
		logger:  slog.Default(),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/index.html", s.handleIndex)
	s.mux.HandleFunc("/index.json", s.handleJSON)
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	return s
}

// SetLogger replaces the logger used for render failures.
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the route mux. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.tracker.Snapshot()); err != nil {
		s.logger.Error("render status page", "err", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(formatJSON(s.tracker.Snapshot())); err != nil {
		s.logger.Error("write status json", "err", err)
	}
}
