// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package breaker

import (
	"errors"
	"testing"
	"time"
)

var (
	errBackend  = errors.New("backend down")
	errRejected = errors.New("bad request")
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	b := New[int](Settings{Name: "test-open", MinRequests: 3, FailureRatio: 0.5, Timeout: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := b.Execute(func() (int, error) { return 0, errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("call %d error = %v, want errBackend", i, err)
		}
	}
	if got := b.State(); got != "open" {
		t.Fatalf("State() = %q, want open", got)
	}

	called := false
	_, err := b.Execute(func() (int, error) { called = true; return 1, nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("error while open = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn was called while the circuit was open")
	}
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	b := New[int](Settings{
		Name:        "test-ignored",
		MinRequests: 2,
		IsFailure:   func(err error) bool { return !errors.Is(err, errRejected) },
	})

	for i := 0; i < 10; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errRejected })
		if !errors.Is(err, errRejected) {
			t.Fatalf("error = %v, want errRejected passed through", err)
		}
	}
	if got := b.State(); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
}

func TestBreaker_SuccessReturnsValue(t *testing.T) {
	b := New[string](Settings{Name: "test-success"})
	got, err := b.Execute(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("Execute() = %q, %v; want ok, nil", got, err)
	}
	if b.Name() != "test-success" {
		t.Errorf("Name() = %q", b.Name())
	}
}
