// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/middleware"
)

// RouterConfig carries what NewRouter needs beyond the Handler.
type RouterConfig struct {
	Sessions   *auth.SessionMiddleware
	Authz      *authz.Middleware
	Chi        *ChiMiddleware
	Production bool

	// Static, when set, is served on every path the API does not claim.
	Static fs.FS

	// Metrics exposes Prometheus on /metrics when true.
	Metrics bool
}

// NewRouter builds the HTTP handler.
//
//	/metrics                      Prometheus
//	/api/v1/health, /auth/login   public
//	/api/v1/ws, .../logs/stream   authenticated, long-lived
//	/api/v1/...                   authenticated, authorized per route policy
//	/*                            dashboard UI with SPA fallback
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Chi == nil {
		cfg.Chi = NewChiMiddleware(nil)
	}
	if cfg.Authz != nil {
		cfg.Authz.Unauthorized = WriteUnauthorized
		cfg.Authz.Forbidden = WriteForbidden
		cfg.Authz.Failed = func(w http.ResponseWriter, r *http.Request, _ error) {
			NewResponseWriter(w, r).InternalError("Authorization check failed")
		}
	}

	r := chi.NewRouter()
	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders(cfg.Production))
	r.Use(cfg.Chi.CORS())

	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.Chi.RateLimit())
		r.Use(h.sessions.Authenticate)

		r.Get("/health", h.Health)
		r.With(cfg.Chi.RateLimitLogin()).Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.sessions.RequireAuth)
			if cfg.Authz != nil {
				r.Use(cfg.Authz.AuthorizeRequest)
			}

			// Long-lived connections stay out of the latency monitor and
			// compression.
			r.Get("/ws", h.WebSocket)
			r.Get("/accounts/{id}/logs/stream", h.StreamAccountLogs)

			r.Group(func(r chi.Router) {
				if h.performance != nil {
					r.Use(h.performance.Middleware)
				}
				r.Use(chimw.Compress(5))
				h.routes(r)
			})
		})
	})

	if cfg.Static != nil {
		static := newStaticHandler(cfg.Static)
		r.Get("/*", static.ServeHTTP)
		r.Head("/*", static.ServeHTTP)
	}
	return r
}

// routes registers the authenticated REST endpoints.
func (h *Handler) routes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/session", h.Session)

	r.Get("/dashboard", h.Dashboard)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Post("/", h.CreateAccount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Patch("/", h.UpdateAccount)
			r.Delete("/", h.DeleteAccount)
			r.Post("/login", h.LoginAccount)
			r.Post("/logout", h.LogoutAccount)
			r.Put("/monitoring", h.SetMonitoring)
			r.Get("/logs", h.AccountLogs)
			r.Get("/stats", h.AccountStats)
		})
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.Post("/", h.CreatePost)
		r.Get("/{id}", h.GetPost)
		r.Delete("/{id}", h.DeletePost)
		r.Put("/{id}/stats", h.UpdatePostStats)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Patch("/", h.UpdateProfile)
		r.Get("/avatar", h.GetAvatar)
		r.Put("/avatar", h.UploadAvatar)
	})

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", h.ListWorkflows)
		r.Post("/", h.CreateWorkflow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetWorkflow)
			r.Put("/", h.ReplaceWorkflow)
			r.Delete("/", h.DeleteWorkflow)
			r.Post("/changes", h.ApplyWorkflowChanges)
			r.Post("/validate", h.ValidateWorkflow)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.sessions.RequireRole(auth.RoleAdmin))
		r.Get("/monitored", h.ListMonitored)
		r.Get("/performance", h.Performance)
		r.Get("/status", h.AdminStatus)
	})
}
