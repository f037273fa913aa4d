// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// AuthEvent is an authentication or account-control event written to the
// audit stream. Values are masked before they reach the log.
type AuthEvent struct {
	Event     string
	UserID    string
	Email     string
	SessionID string
	Provider  string
	IP        string
	Success   bool
	Reason    string
}

// SecurityLogger writes AuthEvents under component=auth.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a SecurityLogger on top of the global logger.
func NewSecurityLogger() *SecurityLogger {
	return &SecurityLogger{logger: WithComponent("auth")}
}

// NewSecurityLoggerWithLogger is NewSecurityLogger for a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// Log writes ev. Failures are logged at warn level.
func (l *SecurityLogger) Log(ev AuthEvent) {
	e := l.logger.Info()
	if !ev.Success {
		e = l.logger.Warn()
	}
	e = e.Str("event", ev.Event).Bool("success", ev.Success)
	if ev.UserID != "" {
		e = e.Str("user_id", ev.UserID)
	}
	if ev.Email != "" {
		e = e.Str("email", SanitizeEmail(ev.Email))
	}
	if ev.SessionID != "" {
		e = e.Str("session_id", SanitizeToken(ev.SessionID))
	}
	if ev.Provider != "" {
		e = e.Str("provider", ev.Provider)
	}
	if ev.IP != "" {
		e = e.Str("ip", ev.IP)
	}
	if ev.Reason != "" {
		e = e.Str("reason", truncate(ev.Reason, 200))
	}
	e.Msg("auth event")
}

// SanitizeToken keeps the first and last four characters of a secret.
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeEmail masks the local part of an address: "jane.doe@x.io" -> "ja***@x.io".
func SanitizeEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return "***" + domain
	}
	return local[:2] + "***" + domain
}

// SanitizeValue strips control characters from user-supplied text so a
// crafted value cannot forge extra log lines, then truncates it.
func SanitizeValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return truncate(s, 200)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
