// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package models

import "time"

// LoginStatus is the automation backend's view of an account's Instagram session.
type LoginStatus string

const (
	LoginStatusLoggedOut         LoginStatus = "logged_out"
	LoginStatusLoggingIn         LoginStatus = "logging_in"
	LoginStatusLoggedIn          LoginStatus = "logged_in"
	LoginStatusChallengeRequired LoginStatus = "challenge_required"
	LoginStatusError             LoginStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s LoginStatus) Valid() bool {
	switch s {
	case LoginStatusLoggedOut, LoginStatusLoggingIn, LoginStatusLoggedIn,
		LoginStatusChallengeRequired, LoginStatusError:
		return true
	}
	return false
}

// InstagramAccount is one Instagram login managed through the dashboard.
// Passwords are never part of the row; they pass straight through to the
// automation backend.
type InstagramAccount struct {
	ID                string      `json:"id"`
	UserID            string      `json:"user_id"`
	Username          string      `json:"username"`
	DisplayName       string      `json:"display_name,omitempty"`
	LoginStatus       LoginStatus `json:"login_status"`
	MonitoringEnabled bool        `json:"monitoring_enabled"`
	LastLoginAt       *time.Time  `json:"last_login_at,omitempty"`
	LastError         string      `json:"last_error,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Clone returns a deep copy.
func (a *InstagramAccount) Clone() *InstagramAccount {
	c := *a
	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// AccountPatch carries the user-editable account fields. Nil means unchanged.
type AccountPatch struct {
	DisplayName *string
}

// StatusUpdate records a login status transition reported by the automation
// backend or caused by a dashboard command.
type StatusUpdate struct {
	Status    LoginStatus
	Error     string
	Timestamp time.Time
}
