// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"github.com/tomtom215/instadash/internal/logging"
)

// SecurityAudit turns login flow outcomes into security log events.
type SecurityAudit struct {
	log *logging.SecurityLogger
}

// NewSecurityAudit writes through the global logger.
func NewSecurityAudit() *SecurityAudit {
	return &SecurityAudit{log: logging.NewSecurityLogger()}
}

func (a *SecurityAudit) LoginSucceeded(req LoginRequest, session *Session) {
	a.log.Log(logging.AuthEvent{
		Event:     "login",
		UserID:    session.UserID,
		Email:     req.Email,
		SessionID: session.ID,
		Provider:  session.Provider,
		IP:        req.IP,
		Success:   true,
	})
}

func (a *SecurityAudit) LoginFailed(req LoginRequest, provider string, err error) {
	a.log.Log(logging.AuthEvent{
		Event:    "login",
		Email:    req.Email,
		Provider: provider,
		IP:       req.IP,
		Success:  false,
		Reason:   err.Error(),
	})
}

func (a *SecurityAudit) Logout(subject *AuthSubject) {
	a.log.Log(logging.AuthEvent{
		Event:     "logout",
		UserID:    subject.ID,
		Email:     subject.Email,
		SessionID: subject.SessionID,
		Provider:  subject.Provider,
		Success:   true,
	})
}
