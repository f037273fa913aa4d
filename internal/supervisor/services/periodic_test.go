// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPeriodic_RunsImmediatelyAndRepeats(t *testing.T) {
	var runs atomic.Int32
	p := NewPeriodic("automation-health", 10*time.Millisecond, func(context.Context) error {
		if runs.Add(1)%2 == 0 {
			return errors.New("backend unreachable")
		}
		return nil
	})
	if p.String() != "automation-health" {
		t.Errorf("String() = %q, want %q", p.String(), "automation-health")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
	if got := runs.Load(); got < 3 {
		t.Errorf("runs = %d, want at least 3 (errors must not stop the loop)", got)
	}
}

func TestNewPeriodic_DefaultInterval(t *testing.T) {
	p := NewPeriodic("x", 0, func(context.Context) error { return nil })
	if p.interval != time.Minute {
		t.Errorf("interval = %v, want %v", p.interval, time.Minute)
	}
}
