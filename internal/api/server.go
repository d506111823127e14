// Package api provides the optional status/metrics HTTP server exposed by
// edfgen generate --http-addr, so a long run can be watched live without
// touching the output directory.
package api

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the edfgen status/metrics HTTP server.
type Server struct {
	running atomic.Bool
}

// NewServer creates a Server. It reports unhealthy until MarkRunning is
// called and healthy until MarkStopped is called.
func NewServer() *Server {
	return &Server{}
}

// MarkRunning flips /healthz to report 200.
func (s *Server) MarkRunning() { s.running.Store(true) }

// MarkStopped flips /healthz back to reporting unavailable, for use once
// the generator has finished or been cancelled.
func (s *Server) MarkStopped() { s.running.Store(false) }

// Handler returns the chi router with the health and metrics routes
// mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !s.running.Load() {
			http.Error(w, "generator not running", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
