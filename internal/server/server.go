// Package server exposes the HTTP surface: the internal lifecycle API for the
// auth layer, the self-service session endpoints, the per-user dashboard, and
// health checks.
package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sessionguard/internal/dashboard"
	"sessionguard/internal/security"
	"sessionguard/internal/session/service"
)

// HealthChecker verifies that the policy engine can compile and evaluate.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server holds the handler dependencies.
type Server struct {
	db        *sql.DB
	verifier  *security.Verifier
	lifecycle *service.Service
	dashboard *dashboard.Service
	policy    HealthChecker
}

// New returns a Server. db and policy may be nil; the health endpoint then
// skips the corresponding check.
func New(db *sql.DB, verifier *security.Verifier, lifecycle *service.Service, dash *dashboard.Service, policy HealthChecker) *Server {
	return &Server{
		db:        db,
		verifier:  verifier,
		lifecycle: lifecycle,
		dashboard: dash,
		policy:    policy,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	// Lifecycle API for the auth layer. Expected to be reachable only from
	// the private network; the auth layer owns login and logout.
	r.Route("/internal", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/{id}/terminate", s.handleInternalTerminate)
		r.Post("/sessions/{id}/extend", s.handleExtend)
		r.Post("/sessions/{id}/extend-remember-me", s.handleExtendRememberMe)
	})

	// Self-service and operator endpoints, JWT-authenticated. Every request
	// also touches the caller's session so anomalies surface immediately.
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authenticate)
		r.Use(s.touchSession)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions/terminate-others", s.handleTerminateOthers)
		r.Delete("/sessions/{id}", s.handleTerminateOwn)

		r.Route("/org", func(r chi.Router) {
			r.Get("/sessions", s.handleListOrgSessions)
			r.Post("/users/{id}/terminate", s.handleTerminateUser)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.db != nil {
		if err := s.db.PingContext(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "policy engine unhealthy")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
