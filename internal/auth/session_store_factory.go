// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
)

// NewSessionStore builds the store selected by cfg.Store.
func NewSessionStore(cfg *config.SessionConfig) (SessionStore, error) {
	switch cfg.Store {
	case "", "memory":
		return NewMemorySessionStore(), nil
	case "badger":
		return OpenBadgerSessionStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// SessionCleaner periodically removes expired sessions. It implements
// suture.Service.
type SessionCleaner struct {
	store    SessionStore
	lockout  *Lockout
	interval time.Duration
}

// NewSessionCleaner creates a cleaner running every interval.
func NewSessionCleaner(store SessionStore, interval time.Duration) *SessionCleaner {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SessionCleaner{store: store, interval: interval}
}

// WithLockout also prunes idle lockout entries on every tick.
func (c *SessionCleaner) WithLockout(l *Lockout) *SessionCleaner {
	c.lockout = l
	return c
}

// Serve runs until ctx is cancelled.
func (c *SessionCleaner) Serve(ctx context.Context) error {
	log := logging.WithComponent("sessions")
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.lockout != nil {
				c.lockout.Prune()
			}
			n, err := c.store.CleanupExpired(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("Session cleanup failed")
				continue
			}
			if n > 0 {
				metrics.SessionsExpired.Add(float64(n))
				metrics.ActiveSessions.Sub(float64(n))
				log.Debug().Int("removed", n).Msg("Removed expired sessions")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *SessionCleaner) String() string { return "session-cleaner" }
