// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/middleware"
)

// loginRateLimit bounds password attempts per IP on top of the per-account
// lockout.
const (
	loginRateLimitRequests = 10
	loginRateLimitWindow   = time.Minute
)

// ChiMiddlewareConfig configures the go-chi CORS and rate-limit middleware.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	RateLimitKeyFunc  httprate.KeyFunc
	RateLimitOnLimit  http.HandlerFunc
}

// DefaultChiMiddlewareConfig returns a closed configuration: no CORS origins
// and 100 requests per minute per IP.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "Authorization", "If-Match", "Last-Event-ID", middleware.RequestIDHeader},
		CORSExposedHeaders: []string{"ETag", middleware.RequestIDHeader},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitOnLimit:  writeRateLimited,
	}
}

// ChiMiddlewareConfigFrom builds the configuration from server and security
// settings. Credentials are allowed unless the origin list is a wildcard.
func ChiMiddlewareConfigFrom(cfg *config.Config) *ChiMiddlewareConfig {
	c := DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = cfg.Server.CORSOrigins
	c.CORSAllowCredentials = !slices.Contains(cfg.Server.CORSOrigins, "*")
	if cfg.Security.RateLimitReqs > 0 {
		c.RateLimitRequests = cfg.Security.RateLimitReqs
	}
	if cfg.Security.RateLimitWindow > 0 {
		c.RateLimitWindow = cfg.Security.RateLimitWindow
	}
	c.RateLimitDisabled = cfg.Security.RateLimitDisabled
	return c
}

// ChiMiddleware builds the go-chi middleware from a ChiMiddlewareConfig.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the factory. A nil config uses the defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		}),
	}
}

// CORS answers preflights and sets the CORS response headers.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit applies the configured per-IP request budget.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit(m.config.RateLimitRequests, m.config.RateLimitWindow)
}

// RateLimitLogin applies the stricter budget for password attempts.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.limit(loginRateLimitRequests, loginRateLimitWindow)
}

func (m *ChiMiddleware) limit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	keyFunc := m.config.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	opts := []httprate.Option{httprate.WithKeyFuncs(keyFunc)}
	if m.config.RateLimitOnLimit != nil {
		opts = append(opts, httprate.WithLimitHandler(m.config.RateLimitOnLimit))
	}
	return httprate.Limit(requests, window, opts...)
}
