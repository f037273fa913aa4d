// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/instadash/internal/logging"
)

// DefaultSlowThreshold is the latency above which a request is logged.
const DefaultSlowThreshold = time.Second

// RouteStats aggregates the samples of one "METHOD pattern" key.
type RouteStats struct {
	Route    string  `json:"route"`
	Requests int     `json:"requests"`
	Errors   int     `json:"errors"`
	AvgMS    float64 `json:"avg_ms"`
	P50MS    int64   `json:"p50_ms"`
	P95MS    int64   `json:"p95_ms"`
	P99MS    int64   `json:"p99_ms"`
	MaxMS    int64   `json:"max_ms"`
}

type sample struct {
	route    string
	duration time.Duration
	failed   bool
}

// PerformanceMonitor keeps the last N request samples and reports per-route
// latency percentiles.
type PerformanceMonitor struct {
	mu        sync.RWMutex
	samples   []sample
	next      int
	full      bool
	threshold time.Duration
}

// NewPerformanceMonitor keeps window samples. threshold <= 0 uses
// DefaultSlowThreshold.
func NewPerformanceMonitor(window int, threshold time.Duration) *PerformanceMonitor {
	if window <= 0 {
		window = 1000
	}
	if threshold <= 0 {
		threshold = DefaultSlowThreshold
	}
	return &PerformanceMonitor{samples: make([]sample, window), threshold: threshold}
}

func (pm *PerformanceMonitor) record(s sample) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.samples[pm.next] = s
	pm.next = (pm.next + 1) % len(pm.samples)
	if pm.next == 0 {
		pm.full = true
	}
}

// Stats returns per-route aggregates, busiest route first.
func (pm *PerformanceMonitor) Stats() []RouteStats {
	pm.mu.RLock()
	n := pm.next
	if pm.full {
		n = len(pm.samples)
	}
	byRoute := make(map[string][]sample)
	for _, s := range pm.samples[:n] {
		byRoute[s.route] = append(byRoute[s.route], s)
	}
	pm.mu.RUnlock()

	out := make([]RouteStats, 0, len(byRoute))
	for route, ss := range byRoute {
		ms := make([]int64, len(ss))
		var sum int64
		errs := 0
		for i, s := range ss {
			ms[i] = s.duration.Milliseconds()
			sum += ms[i]
			if s.failed {
				errs++
			}
		}
		sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
		out = append(out, RouteStats{
			Route:    route,
			Requests: len(ms),
			Errors:   errs,
			AvgMS:    float64(sum) / float64(len(ms)),
			P50MS:    percentile(ms, 0.50),
			P95MS:    percentile(ms, 0.95),
			P99MS:    percentile(ms, 0.99),
			MaxMS:    ms[len(ms)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Requests != out[j].Requests {
			return out[i].Requests > out[j].Requests
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// Middleware records every request and logs the slow ones. Long-lived
// streams (SSE, websocket) should be mounted outside it.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		d := time.Since(start)

		route := r.Method + " " + RoutePattern(r)
		pm.record(sample{route: route, duration: d, failed: ww.Status() >= 500})
		if d > pm.threshold {
			logging.Ctx(r.Context()).Warn().
				Str("route", route).
				Dur("duration", d).
				Dur("threshold", pm.threshold).
				Msg("Slow request")
		}
	})
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
