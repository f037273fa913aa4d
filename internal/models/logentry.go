// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package models

import "time"

// LogKind distinguishes plain log lines from login status reports.
type LogKind string

const (
	LogKindLog    LogKind = "log"
	LogKindStatus LogKind = "status"
)

// LogEntry is one event from the automation backend's log stream.
// ID is assigned by the backend and increases per stream; it doubles as the
// SSE event id so browsers can resume.
type LogEntry struct {
	ID        string      `json:"id"`
	AccountID string      `json:"account_id"`
	Kind      LogKind     `json:"kind"`
	Level     string      `json:"level"`
	Message   string      `json:"message"`
	Status    LoginStatus `json:"status,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// DashboardSummary is the landing-page overview across a user's accounts.
type DashboardSummary struct {
	Accounts         int       `json:"accounts"`
	LoggedIn         int       `json:"logged_in"`
	Monitoring       int       `json:"monitoring"`
	NeedsAttention   int       `json:"needs_attention"`
	Workflows        int       `json:"workflows"`
	EnabledWorkflows int       `json:"enabled_workflows"`
	Posts            PostStats `json:"posts"`
	GeneratedAt      time.Time `json:"generated_at"`
}
