// Package report serves the artifacts of capture and comparison runs over
// HTTP for local inspection: session documents, comparison summaries,
// screenshots and sanitized captured pages.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/mimic/capture"
)

// Server serves one artifact directory.
type Server struct {
	outDir string
	logger *slog.Logger
	policy *bluemonday.Policy
	router *chi.Mux
}

// NewServer creates a report server over the given artifact directory.
func NewServer(outDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		outDir: outDir,
		logger: logger,
		// Captured pages carry live application markup; scripts and event
		// handlers must not execute in the inspector.
		policy: bluemonday.UGCPolicy().AllowAttrs("class", "id").Globally(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/sessions", s.handleSessions)
	r.Get("/session", s.handleSession)
	r.Get("/comparison", s.handleComparison)
	r.Get("/page/{step}", s.handlePage)
	r.Handle("/screenshots/*", http.StripPrefix("/screenshots/",
		http.FileServer(http.Dir(filepath.Join(outDir, "screenshots")))))
	s.router = r
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("report: serving artifacts", "addr", addr, "dir", s.outDir)

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("report: serve: %w", err)
		}
		return nil
	}
}

type sessionInfo struct {
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
	Pages     int    `json:"pages"`
}

// handleSessions lists every session document under the artifact directory.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	var sessions []sessionInfo
	err := filepath.WalkDir(s.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != "session.json" {
			return err
		}
		doc, loadErr := capture.LoadSession(path)
		if loadErr != nil {
			s.logger.Warn("report: unreadable session", "path", path, "error", loadErr)
			return nil
		}
		rel, _ := filepath.Rel(s.outDir, path)
		sessions = append(sessions, sessionInfo{
			Path: rel, Timestamp: doc.Timestamp, Pages: len(doc.Pages),
		})
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]any{"sessions": sessions})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.serveFileJSON(w, filepath.Join(s.outDir, "session.json"))
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	s.serveFileJSON(w, filepath.Join(s.outDir, "comparison-results.json"))
}

// handlePage serves a captured page's HTML, sanitized.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	step := chi.URLParam(r, "step")
	path := filepath.Join(s.outDir, "html", step+".html")
	if filepath.Dir(path) != filepath.Join(s.outDir, "html") {
		http.Error(w, "invalid step", http.StatusBadRequest)
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "no captured page for step "+step, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(s.policy.SanitizeBytes(raw))
}

func (s *Server) serveFileJSON(w http.ResponseWriter, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "artifact not found: "+filepath.Base(path), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("report: encode response", "error", err)
	}
}
