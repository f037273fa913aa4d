// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/cache"
	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/logstream"
	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/middleware"
	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/websocket"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Automation is the part of the automation client the handlers call.
type Automation interface {
	Configured() bool
	BreakerState() string
	Login(ctx context.Context, accountID, username, password, code string) error
	Logout(ctx context.Context, accountID string) error
	SetMonitoring(ctx context.Context, accountID string, enabled bool) error
}

// LogReader serves buffered and live automation logs.
type LogReader interface {
	Subscribe(accountID, lastEventID string) (*logstream.Subscription, []models.LogEntry)
	Recent(accountID string, n int) []models.LogEntry
	Forget(accountID string)
}

// Notifier pushes change events to dashboard clients.
type Notifier interface {
	AccountUpdated(a *models.InstagramAccount)
	AccountDeleted(userID, accountID string)
	PostStatsUpdated(p *models.InstagramPost)
	WorkflowUpdated(w *workflow.Workflow)
}

type nopNotifier struct{}

func (nopNotifier) AccountUpdated(*models.InstagramAccount) {}
func (nopNotifier) AccountDeleted(string, string)           {}
func (nopNotifier) PostStatsUpdated(*models.InstagramPost)  {}
func (nopNotifier) WorkflowUpdated(*workflow.Workflow)      {}

// Deps are the collaborators of a Handler. Store, Auth and Sessions are
// required; Logs, Hub and Performance may be nil, which disables the
// endpoints that need them.
type Deps struct {
	Store       store.Store
	Auth        *auth.Service
	Sessions    *auth.SessionMiddleware
	Automation  Automation
	Logs        LogReader
	Hub         *websocket.Hub
	Performance *middleware.PerformanceMonitor
	Config      *config.Config
	Version     string
}

// Handler serves the REST API.
type Handler struct {
	store       store.Store
	auth        *auth.Service
	sessions    *auth.SessionMiddleware
	automation  Automation
	logs        LogReader
	hub         *websocket.Hub
	notify      Notifier
	performance *middleware.PerformanceMonitor
	config      *config.Config
	version     string
	summaries   *cache.LRU[string, *models.DashboardSummary]
	heartbeat   time.Duration
	startTime   time.Time
}

// summaryTTL bounds how stale a dashboard summary may be. Writes through
// this API invalidate it sooner.
const summaryTTL = 30 * time.Second

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		store:       d.Store,
		auth:        d.Auth,
		sessions:    d.Sessions,
		automation:  d.Automation,
		logs:        d.Logs,
		hub:         d.Hub,
		notify:      nopNotifier{},
		performance: d.Performance,
		config:      d.Config,
		version:     d.Version,
		summaries:   cache.New[string, *models.DashboardSummary](10000, summaryTTL),
		heartbeat:   logstream.DefaultHeartbeat,
		startTime:   time.Now(),
	}
	if d.Hub != nil {
		h.notify = d.Hub
	}
	if d.Config != nil && d.Config.LogStream.Heartbeat > 0 {
		h.heartbeat = d.Config.LogStream.Heartbeat
	}
	if h.version == "" {
		h.version = "dev"
	}
	return h
}

// invalidate drops the cached dashboard summary of userID.
func (h *Handler) invalidate(userID string) {
	h.summaries.Delete(userID)
}

// AccountUpdated records an account change made outside the API, such as a
// status event from the automation log stream: the owner's summary is
// dropped and connected dashboards are notified.
func (h *Handler) AccountUpdated(a *models.InstagramAccount) {
	if a == nil {
		return
	}
	h.invalidate(a.UserID)
	h.notify.AccountUpdated(a)
}

func isStoreSentinel(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrConflict) ||
		errors.Is(err, store.ErrVersionMismatch)
}

// observe times a repository call and hides unexpected failures behind
// storeError.
func observe[T any](resource, op string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	if err == nil || isStoreSentinel(err) || errors.Is(err, context.Canceled) {
		metrics.RecordStoreOperation(resource, op, time.Since(start), nil)
		return v, err
	}
	metrics.RecordStoreOperation(resource, op, time.Since(start), err)
	return v, &storeError{op: resource + "." + op, err: err}
}

func observeErr(resource, op string, fn func() error) error {
	_, err := observe(resource, op, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
