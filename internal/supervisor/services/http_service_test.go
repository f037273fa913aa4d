// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeServer blocks in ListenAndServe until Shutdown unless listenErr is set.
type fakeServer struct {
	listenErr   error
	shutdownErr error

	started   chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	listens   atomic.Int32
	shutdowns atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		started: make(chan struct{}, 8),
		stopped: make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.stopOnce.Do(func() { close(f.stopped) })
	return f.shutdownErr
}

func waitStarted(t *testing.T, f *fakeServer) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe was not called")
	}
}

// ============================================================================
// HTTPServerService
// ============================================================================

var _ suture.Service = (*HTTPServerService)(nil)

func TestNewHTTPServerService_Timeout(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{5 * time.Second, 5 * time.Second},
		{0, 10 * time.Second},
		{-time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		svc := NewHTTPServerService(newFakeServer(), tt.in)
		if svc.shutdownTimeout != tt.want {
			t.Errorf("NewHTTPServerService(%v).shutdownTimeout = %v, want %v", tt.in, svc.shutdownTimeout, tt.want)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want %q", got, "http-server")
	}
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitStarted(t, srv)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	if got := srv.shutdowns.Load(); got != 1 {
		t.Errorf("Shutdown calls = %d, want 1", got)
	}
}

func TestHTTPServerService_ListenFailure(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	srv := newFakeServer()
	srv.listenErr = bindErr

	err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Errorf("Serve() = %v, want wrapped %v", err, bindErr)
	}
	if got := srv.shutdowns.Load(); got != 0 {
		t.Errorf("Shutdown calls = %d, want 0", got)
	}
}

func TestHTTPServerService_ShutdownFailure(t *testing.T) {
	drainErr := errors.New("context deadline exceeded while draining")
	srv := newFakeServer()
	srv.shutdownErr = drainErr
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	waitStarted(t, srv)
	cancel()

	if err := <-errCh; !errors.Is(err, drainErr) {
		t.Errorf("Serve() = %v, want wrapped %v", err, drainErr)
	}
}

func TestHTTPServerService_UnderSupervisor(t *testing.T) {
	srv := newFakeServer()
	sup := suture.New("api", suture.Spec{
		FailureBackoff: 10 * time.Millisecond,
		Timeout:        2 * time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)

	waitStarted(t, srv)
	cancel()
	<-done

	if got := srv.shutdowns.Load(); got < 1 {
		t.Errorf("Shutdown calls = %d, want at least 1", got)
	}
}
