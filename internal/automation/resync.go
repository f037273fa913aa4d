// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
)

// MonitoredLister lists every account with monitoring enabled, across users.
type MonitoredLister interface {
	ListMonitored(ctx context.Context) ([]*models.InstagramAccount, error)
}

// Resync re-sends the monitoring flag of every monitored account. It keeps
// going past individual failures and returns how many accounts were sent
// along with the joined errors.
func (c *Client) Resync(ctx context.Context, accounts MonitoredLister) (int, error) {
	monitored, err := accounts.ListMonitored(ctx)
	if err != nil {
		return 0, fmt.Errorf("list monitored accounts: %w", err)
	}

	var errs []error
	sent := 0
	for _, a := range monitored {
		if err := c.SetMonitoring(ctx, a.ID, true); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// HealthWatch checks backend health and resyncs monitoring whenever the backend
// becomes reachable, including the first successful check after startup.
type HealthWatch struct {
	client   *Client
	accounts MonitoredLister

	mu        sync.Mutex
	reachable bool
}

// NewHealthWatch creates a health watch; run Check periodically.
func NewHealthWatch(client *Client, accounts MonitoredLister) *HealthWatch {
	return &HealthWatch{client: client, accounts: accounts}
}

// Check runs one health check and updates the automation_reachable gauge.
// A failed resync leaves the backend marked unreachable so the next check retries.
func (w *HealthWatch) Check(ctx context.Context) error {
	if err := w.client.Health(ctx); err != nil {
		metrics.AutomationReachable.Set(0)
		w.setReachable(false)
		return err
	}
	metrics.AutomationReachable.Set(1)

	w.mu.Lock()
	was := w.reachable
	w.mu.Unlock()
	if was {
		return nil
	}

	sent, err := w.client.Resync(ctx, w.accounts)
	log := logging.WithComponent("automation")
	if err != nil {
		log.Warn().Err(err).Int("sent", sent).Msg("Monitoring resync incomplete")
		return err
	}
	log.Info().Int("accounts", sent).Msg("Monitoring state resynced")
	w.setReachable(true)
	return nil
}

// Reachable reports the outcome of the last check.
func (w *HealthWatch) Reachable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reachable
}

func (w *HealthWatch) setReachable(v bool) {
	w.mu.Lock()
	w.reachable = v
	w.mu.Unlock()
}
