// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package breaker wraps sony/gobreaker with the logging and Prometheus
// instrumentation shared by every outbound client.
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
)

// ErrOpen is returned instead of calling the backend while the circuit is
// open or the half-open request quota is used up.
var ErrOpen = errors.New("circuit breaker open")

// Settings tunes a Breaker. Zero values take the defaults noted per field.
type Settings struct {
	Name string

	// MaxRequests allowed while half-open (default 3).
	MaxRequests uint32

	// Interval after which closed-state counts reset (default 1m).
	Interval time.Duration

	// Timeout spent open before probing again (default 30s).
	Timeout time.Duration

	// MinRequests before the failure ratio is considered (default 5).
	MinRequests uint32

	// FailureRatio that opens the circuit (default 0.6).
	FailureRatio float64

	// IsFailure decides whether an error counts against the backend.
	// Errors for which it returns false (for example a 4xx rejection) pass
	// through without tripping the breaker. Default: every error counts.
	IsFailure func(error) bool
}

// Breaker is a typed circuit breaker.
type Breaker[T any] struct {
	cb   *gobreaker.CircuitBreaker[T]
	name string
}

// New creates a breaker and initialises its metrics.
func New[T any](s Settings) *Breaker[T] {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}
	isFailure := s.IsFailure
	if isFailure == nil {
		isFailure = func(error) bool { return true }
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	log := logging.WithComponent("breaker").With().Str("breaker", s.Name).Logger()

	cb := gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= s.FailureRatio {
				log.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().Str("from", StateString(from)).Str("to", StateString(to)).Msg("Circuit state transition")
			metrics.RecordCircuitBreakerTransition(name, StateString(from), StateString(to), stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
	})
	return &Breaker[T]{cb: cb, name: s.Name}
}

// Execute runs fn through the breaker. When the circuit refuses the call the
// returned error wraps ErrOpen.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		var zero T
		return zero, errors.Join(ErrOpen, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return res, err
}

// State reports closed, half-open or open.
func (b *Breaker[T]) State() string {
	return StateString(b.cb.State())
}

// Name returns the breaker name used in metrics.
func (b *Breaker[T]) Name() string {
	return b.name
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// StateString renders a gobreaker state for logs and health output.
func StateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
