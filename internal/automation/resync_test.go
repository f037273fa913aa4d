// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package automation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/instadash/internal/metrics"
	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/testinfra"
)

type monitoredList []*models.InstagramAccount

func (m monitoredList) ListMonitored(context.Context) ([]*models.InstagramAccount, error) {
	return m, nil
}

func monitoringCommands(srv *testinfra.AutomationServer) []testinfra.Command {
	var out []testinfra.Command
	for _, c := range srv.Commands() {
		if c.Method == http.MethodPut && strings.HasSuffix(c.Path, "/monitoring") {
			out = append(out, c)
		}
	}
	return out
}

// =====================================================
// Monitoring resync
// =====================================================

func TestClient_Resync(t *testing.T) {
	c, srv := newTestClient(t)
	accounts := monitoredList{{ID: "a1", MonitoringEnabled: true}, {ID: "a2", MonitoringEnabled: true}}

	sent, err := c.Resync(context.Background(), accounts)
	if err != nil || sent != 2 {
		t.Fatalf("Resync() = %d, %v; want 2, nil", sent, err)
	}
	cmds := monitoringCommands(srv)
	if len(cmds) != 2 || cmds[0].Path != "/accounts/a1/monitoring" || cmds[1].Path != "/accounts/a2/monitoring" {
		t.Fatalf("monitoring commands = %+v", cmds)
	}
	if body := string(cmds[0].Body); body != `{"enabled":true}` {
		t.Errorf("body = %s, want enabled true", body)
	}
}

func TestClient_ResyncReportsRejections(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetStatus(http.StatusUnprocessableEntity)

	sent, err := c.Resync(context.Background(), monitoredList{{ID: "a1"}, {ID: "a2"}})
	if sent != 0 || !errors.Is(err, ErrRejected) {
		t.Errorf("Resync() = %d, %v; want 0, ErrRejected", sent, err)
	}
	if got := len(monitoringCommands(srv)); got != 2 {
		t.Errorf("attempts = %d, want 2 (one failure must not stop the loop)", got)
	}
}

func TestHealthWatch_ResyncsWhenBackendReturns(t *testing.T) {
	c, srv := newTestClient(t)
	p := NewHealthWatch(c, monitoredList{{ID: "a1", MonitoringEnabled: true}})
	ctx := context.Background()

	if err := p.Check(ctx); err != nil {
		t.Fatalf("first Check() error = %v", err)
	}
	if !p.Reachable() || len(monitoringCommands(srv)) != 1 {
		t.Fatalf("after first check: reachable=%v commands=%d, want true and 1", p.Reachable(), len(monitoringCommands(srv)))
	}
	if got := testutil.ToFloat64(metrics.AutomationReachable); got != 1 {
		t.Errorf("automation_reachable = %v, want 1", got)
	}

	if err := p.Check(ctx); err != nil {
		t.Fatalf("steady Check() error = %v", err)
	}
	if got := len(monitoringCommands(srv)); got != 1 {
		t.Errorf("commands while steadily reachable = %d, want 1", got)
	}

	srv.SetHealthy(false)
	if err := p.Check(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Check() on unhealthy backend = %v, want ErrUnavailable", err)
	}
	if p.Reachable() {
		t.Error("Reachable() = true after failed check")
	}
	if got := testutil.ToFloat64(metrics.AutomationReachable); got != 0 {
		t.Errorf("automation_reachable = %v, want 0", got)
	}

	srv.SetHealthy(true)
	if err := p.Check(ctx); err != nil {
		t.Fatalf("recovery Check() error = %v", err)
	}
	if got := len(monitoringCommands(srv)); got != 2 {
		t.Errorf("commands after recovery = %d, want 2", got)
	}
}

func TestHealthWatch_RetriesFailedResync(t *testing.T) {
	c, srv := newTestClient(t)
	p := NewHealthWatch(c, monitoredList{{ID: "a1", MonitoringEnabled: true}})
	srv.SetStatus(http.StatusUnprocessableEntity)

	if err := p.Check(context.Background()); !errors.Is(err, ErrRejected) {
		t.Fatalf("Check() = %v, want ErrRejected", err)
	}
	if p.Reachable() {
		t.Fatal("Reachable() = true after a failed resync")
	}

	srv.SetStatus(http.StatusAccepted)
	if err := p.Check(context.Background()); err != nil {
		t.Fatalf("Check() retry = %v", err)
	}
	if got := len(monitoringCommands(srv)); got != 2 {
		t.Errorf("monitoring commands = %d, want 2", got)
	}
}
