// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package services

import (
	"context"
	"time"

	"github.com/tomtom215/instadash/internal/logging"
)

// Periodic runs fn immediately and then every interval. An error from fn is
// logged and the loop continues; Periodic itself only returns on shutdown.
type Periodic struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// NewPeriodic creates the service. interval defaults to one minute.
func NewPeriodic(name string, interval time.Duration, fn func(ctx context.Context) error) *Periodic {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Periodic{name: name, interval: interval, fn: fn}
}

// Serve implements suture.Service.
func (p *Periodic) Serve(ctx context.Context) error {
	log := logging.WithComponent(p.name)
	run := func() {
		if err := p.fn(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("Periodic task failed")
		}
	}

	run()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			run()
		}
	}
}

// String names the service in supervisor logs.
func (p *Periodic) String() string {
	return p.name
}
