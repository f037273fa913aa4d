// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package middleware holds the infrastructure layer of the HTTP stack.

  - RequestID: accepts or generates X-Request-ID and stores it in the context
  - AccessLog: one zerolog line per request with status, size and latency
  - PrometheusMetrics: request counter, latency histogram, in-flight gauge
  - SecurityHeaders: CSP, frame, referrer and content-type hardening
  - PerformanceMonitor: rolling per-route latency percentiles for the admin API

Metrics and the performance monitor label requests by chi route pattern
(/api/v1/accounts/{id}) rather than raw path, so ids never become labels.

Order in the router:

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))

All wrappers use chi's WrapResponseWriter, which keeps http.Flusher and
http.Hijacker available for the SSE and websocket endpoints.
*/
package middleware
