// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"

	"github.com/tomtom215/instadash/internal/cache"
	"github.com/tomtom215/instadash/internal/middleware"
	"github.com/tomtom215/instadash/internal/models"
)

// AdminStatus is the operator view returned by /admin/status.
type AdminStatus struct {
	Automation   string     `json:"automation"`
	Breaker      string     `json:"breaker"`
	WSClients    int        `json:"ws_clients"`
	SummaryCache CacheStats `json:"summary_cache"`
}

// CacheStats is cache.Stats with JSON names.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

func cacheStats(s cache.Stats) CacheStats {
	return CacheStats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions, Size: s.Size}
}

// ListMonitored returns every account with monitoring enabled, across users.
func (h *Handler) ListMonitored(w http.ResponseWriter, r *http.Request) {
	accounts, err := observe("accounts", "list_monitored", func() ([]*models.InstagramAccount, error) {
		return h.store.Accounts().ListMonitored(r.Context())
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []*models.InstagramAccount{}
	}
	NewResponseWriter(w, r).Success(accounts)
}

// Performance returns per-route latency percentiles over the recent window.
func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	if h.performance == nil {
		NewResponseWriter(w, r).Success([]middleware.RouteStats{})
		return
	}
	NewResponseWriter(w, r).Success(h.performance.Stats())
}

// AdminStatus summarizes the automation link and in-process caches.
func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	status := AdminStatus{
		Automation:   "unconfigured",
		Breaker:      "n/a",
		SummaryCache: cacheStats(h.summaries.Stats()),
	}
	if h.automation != nil && h.automation.Configured() {
		status.Automation = "configured"
		status.Breaker = h.automation.BreakerState()
	}
	if h.hub != nil {
		status.WSClients = h.hub.ClientCount()
	}
	NewResponseWriter(w, r).Success(status)
}
