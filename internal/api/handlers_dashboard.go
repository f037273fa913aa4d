// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Dashboard returns the caller's summary: account states, workflow counts
// and aggregate post engagement. Summaries are cached per user and dropped
// on every write that changes them.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if summary, ok := h.summaries.Get(owner); ok {
		metrics.SummaryCacheHits.Inc()
		NewResponseWriter(w, r).Success(summary)
		return
	}
	metrics.SummaryCacheMisses.Inc()

	summary, err := h.buildSummary(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.summaries.Set(owner, summary)
	NewResponseWriter(w, r).Success(summary)
}

// buildSummary queries the three repositories concurrently.
func (h *Handler) buildSummary(ctx context.Context, owner string) (*models.DashboardSummary, error) {
	var (
		accounts []*models.InstagramAccount
		flows    []*workflow.Workflow
		stats    *models.PostStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = observe("accounts", "list", func() ([]*models.InstagramAccount, error) {
			return h.store.Accounts().List(gctx, owner)
		})
		return err
	})
	g.Go(func() error {
		var err error
		flows, err = observe("workflows", "list", func() ([]*workflow.Workflow, error) {
			return h.store.Workflows().List(gctx, owner, "")
		})
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = observe("posts", "stats", func() (*models.PostStats, error) {
			return h.store.Posts().Stats(gctx, owner, "")
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &models.DashboardSummary{
		Accounts:    len(accounts),
		Workflows:   len(flows),
		GeneratedAt: time.Now().UTC(),
	}
	for _, a := range accounts {
		switch a.LoginStatus {
		case models.LoginStatusLoggedIn:
			s.LoggedIn++
		case models.LoginStatusError, models.LoginStatusChallengeRequired:
			s.NeedsAttention++
		}
		if a.MonitoringEnabled {
			s.Monitoring++
		}
	}
	for _, f := range flows {
		if f.Enabled {
			s.EnabledWorkflows++
		}
	}
	if stats != nil {
		s.Posts = *stats
	}
	return s, nil
}
