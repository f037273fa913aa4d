// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of repository calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed repository calls",
		},
		[]string{"resource", "operation"},
	)

	// Dashboard Summary Cache
	SummaryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_summary_cache_hits_total",
			Help: "Total number of dashboard summaries served from cache",
		},
	)

	SummaryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_summary_cache_misses_total",
			Help: "Total number of dashboard summaries computed",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped for slow clients",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Automation Backend
	AutomationCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_commands_total",
			Help: "Commands sent to the automation backend",
		},
		[]string{"command", "result"}, // ok, rejected, unavailable
	)

	AutomationCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_command_duration_seconds",
			Help:    "Round-trip time of automation backend commands",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"command"},
	)

	AutomationReachable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_reachable",
			Help: "1 when the last automation health check succeeded",
		},
	)

	// Log Stream
	LogEntriesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logstream_entries_ingested_total",
			Help: "Log entries received from the automation backend",
		},
		[]string{"kind"},
	)

	LogEntriesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logstream_entries_dropped_total",
			Help: "Log entries not delivered",
		},
		[]string{"reason"}, // slow_subscriber, decode_error
	)

	LogStreamConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "logstream_upstream_connected",
			Help: "1 while the upstream log stream is connected",
		},
	)

	LogStreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logstream_upstream_reconnects_total",
			Help: "Reconnect attempts against the upstream log stream",
		},
	)

	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "logstream_sse_subscribers",
			Help: "Browser log stream subscribers currently connected",
		},
	)

	// Authentication
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Dashboard login attempts",
		},
		[]string{"provider", "outcome"}, // success, invalid, locked, error
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions",
			Help: "Sessions created minus sessions destroyed since start",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_expired_total",
			Help: "Expired sessions removed by the cleanup loop",
		},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions",
		},
		[]string{"decision", "cached"},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStoreOperation records one repository call.
func RecordStoreOperation(resource, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(resource, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(resource, operation).Inc()
	}
}

// RecordAutomationCommand records the outcome (ok, rejected or unavailable)
// of one automation command.
func RecordAutomationCommand(command, result string, duration time.Duration) {
	AutomationCommands.WithLabelValues(command, result).Inc()
	AutomationCommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition updates the state gauge and transition counter.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordLogin records a login attempt.
func RecordLogin(provider, outcome string) {
	LoginAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordAuthzDecision records an authorization decision.
func RecordAuthzDecision(allowed, cached bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	AuthzDecisions.WithLabelValues(decision, strconv.FormatBool(cached)).Inc()
}
