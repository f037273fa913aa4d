// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds restart and shutdown tuning for every supervisor.
type TreeConfig struct {
	// FailureThreshold is the number of failures before backoff. Default 5.
	FailureThreshold float64

	// FailureDecay is the failure decay rate in seconds. Default 30.
	FailureDecay float64

	// FailureBackoff is the pause once the threshold is hit. Default 15s.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service may take to stop. Default 10s.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c *TreeConfig) applyDefaults() {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Tree is the Instadash supervisor hierarchy:
//
//	instadash
//	├── maintenance   session cleaner, automation health check
//	├── streaming     websocket hub, log broker, automation log source
//	└── api           HTTP server
//
// Each layer restarts its own children, so a flapping upstream log stream
// never takes the HTTP server down with it.
type Tree struct {
	root        *suture.Supervisor
	maintenance *suture.Supervisor
	streaming   *suture.Supervisor
	api         *suture.Supervisor
	logger      *slog.Logger
	config      TreeConfig
}

// NewTree builds the hierarchy. Supervisor events are written to logger
// through sutureslog.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	config.applyDefaults()

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = hook

	t := &Tree{
		root:        suture.New("instadash", rootSpec),
		maintenance: suture.New("maintenance", spec),
		streaming:   suture.New("streaming", spec),
		api:         suture.New("api", spec),
		logger:      logger,
		config:      config,
	}
	t.root.Add(t.maintenance)
	t.root.Add(t.streaming)
	t.root.Add(t.api)
	return t
}

// Root returns the root supervisor.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddMaintenanceService adds a periodic housekeeping service.
func (t *Tree) AddMaintenanceService(svc suture.Service) suture.ServiceToken {
	return t.maintenance.Add(svc)
}

// AddStreamingService adds a service that moves live data: the hub, the log
// broker or the upstream log source.
func (t *Tree) AddStreamingService(svc suture.Service) suture.ServiceToken {
	return t.streaming.Add(svc)
}

// AddAPIService adds the HTTP server.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel yields the
// result once the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
