// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Store         string  `json:"store"`
	Automation    string  `json:"automation"`
	WSClients     int     `json:"websocket_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports liveness plus the state of the store and the automation
// circuit breaker. A failing store answers 503 so load balancers drain.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	hs := HealthStatus{
		Status:        "ok",
		Version:       h.version,
		Store:         "ok",
		Automation:    "disabled",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if err := observeErr("store", "ping", func() error { return h.store.Ping(ctx) }); err != nil {
		hs.Status, hs.Store = "unavailable", "unreachable"
	}
	if h.automation != nil {
		hs.Automation = h.automation.BreakerState()
		if hs.Status == "ok" && hs.Automation == "open" {
			hs.Status = "degraded"
		}
	}
	if h.hub != nil {
		hs.WSClients = h.hub.ClientCount()
	}

	rw := NewResponseWriter(w, r)
	if hs.Status == "unavailable" {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store is unreachable", hs)
		return
	}
	rw.Success(hs)
}
