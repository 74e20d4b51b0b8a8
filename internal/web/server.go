// Package web exposes a small read-only HTTP view of the reconciler: what
// is resolved right now, what comes next, and how the last cycle went.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"statusloop/internal/reconcile"
)

// Server serves the snapshot API.
type Server struct {
	runner *reconcile.Runner
	server *http.Server
	logger zerolog.Logger
}

// New creates the HTTP server bound to addr.
func New(runner *reconcile.Runner, addr string, logger zerolog.Logger) *Server {
	srv := &Server{
		runner: runner,
		logger: logger.With().Str("component", "web").Logger(),
	}

	r := chi.NewRouter()
	r.Use(srv.requestLogger)
	r.Get("/healthz", srv.handleHealth)
	r.Get("/api/status", srv.handleStatus)

	srv.server = &http.Server{Addr: addr, Handler: r}
	return srv
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.runner.Snapshot()

	view := map[string]any{
		"action":       string(snap.Action),
		"lastSetKnown": snap.LastSetKnown,
		"lastSetId":    snap.LastSetID,
	}
	if snap.ResolvedID != "" {
		view["active"] = map[string]any{
			"id":           snap.ResolvedID,
			"icon":         snap.Icon,
			"message":      snap.Message,
			"doNotDisturb": snap.DoNotDisturb,
			"until":        snap.WindowEnd.Format(time.RFC3339),
		}
	}
	if snap.NextID != "" {
		view["next"] = map[string]any{
			"id":    snap.NextID,
			"start": snap.NextStart.Format(time.RFC3339),
		}
	}
	if !snap.LastRunAt.IsZero() {
		view["lastRunAt"] = snap.LastRunAt.Format(time.RFC3339)
	}
	if snap.LastError != "" {
		view["lastError"] = snap.LastError
	}

	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("encode JSON")
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
