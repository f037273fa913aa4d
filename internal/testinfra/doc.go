// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package testinfra holds shared test doubles and container helpers.
//
// AutomationServer is an in-process stand-in for the external automation
// backend. It records commands and serves a server-sent-event log stream:
//
//	backend := testinfra.NewAutomationServer(t)
//	backend.Emit(testinfra.StreamEvent{Event: "log", Data: entry})
//	backend.DropStreams() // force clients to reconnect
//
// Under the integration build tag the package also starts real services
// with testcontainers-go:
//
//	//go:build integration
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	testinfra.CleanupContainer(t, pg)
//
// Run them with:
//
//	go test -tags integration ./internal/database/...
package testinfra
