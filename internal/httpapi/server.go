// Package httpapi exposes the memory engine to the capture extension and
// other local collaborators over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/memoria-ai/memoria/internal/config"
	"github.com/memoria-ai/memoria/internal/observability"
	"github.com/memoria-ai/memoria/internal/session"
	"github.com/memoria-ai/memoria/internal/store"
)

type Server struct {
	cfg      config.Config
	store    store.Store
	sessions *session.Manager
	metrics  *observability.Metrics
}

func New(cfg config.Config, st store.Store, sessions *session.Manager, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		metrics:  metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.metricsMiddleware)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"message": "memoria memory bridge is running",
		})
	})
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Post("/v1/remember", s.handleRemember)
	r.Get("/v1/recall/{owner}", s.handleRecall)
	r.Get("/v1/relationship/{owner}", s.handleRelationship)
	r.Post("/v1/summarize", s.handleSummarize)

	r.Post("/v1/session", s.handleStartSession)
	r.Post("/v1/session/{id}/remember", s.handleSessionRemember)
	r.Get("/v1/session/{id}/history", s.handleSessionHistory)
	r.Delete("/v1/session/{id}", s.handleEndSession)

	r.Post("/v1/patterns", s.handleRecordPattern)
	r.Get("/v1/patterns", s.handleListPatterns)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// corsMiddleware opens the bridge to the browser extension. With
// AllowAnyOrigin unset, only same-host browser origins are accepted.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" {
			if s.cfg.AllowAnyOrigin {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if sameHostOrigin(origin, r.Host) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			} else {
				http.Error(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sameHostOrigin(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"error": msg})
}

// respondStoreError maps core error taxonomy onto HTTP statuses: validation
// failures are 400, unknown owners/sessions 404, anything else is a backend
// failure surfaced as 500 without leaking internals.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case store.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrUnknownSession):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("httpapi: storage error: %v", err)
		respondError(w, http.StatusInternalServerError, "storage error")
	}
}
