// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logstream

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/instadash/internal/models"
)

// AccountStatusStore is the slice of store.AccountRepository the status
// applier needs.
type AccountStatusStore interface {
	GetByID(ctx context.Context, id string) (*models.InstagramAccount, error)
	SetLoginStatus(ctx context.Context, userID, id string, u models.StatusUpdate) (*models.InstagramAccount, error)
}

// AccountNotifier is told about every account row a status event changed.
type AccountNotifier interface {
	AccountUpdated(account *models.InstagramAccount)
}

// StatusApplier writes login status events to the account row.
type StatusApplier struct {
	accounts AccountStatusStore
	notifier AccountNotifier
}

// NewStatusApplier creates an applier. notifier may be nil.
func NewStatusApplier(accounts AccountStatusStore, notifier AccountNotifier) *StatusApplier {
	return &StatusApplier{accounts: accounts, notifier: notifier}
}

// Apply updates the account named by a status entry. Error and challenge
// statuses record the entry message as the account's last error.
func (s *StatusApplier) Apply(ctx context.Context, entry *models.LogEntry) error {
	if entry.Kind != models.LogKindStatus {
		return nil
	}
	if !entry.Status.Valid() {
		return fmt.Errorf("invalid login status %q", entry.Status)
	}

	account, err := s.accounts.GetByID(ctx, entry.AccountID)
	if err != nil {
		return fmt.Errorf("lookup account %s: %w", entry.AccountID, err)
	}

	update := models.StatusUpdate{Status: entry.Status, Timestamp: entry.Timestamp}
	if update.Timestamp.IsZero() {
		update.Timestamp = time.Now().UTC()
	}
	if entry.Status == models.LoginStatusError || entry.Status == models.LoginStatusChallengeRequired {
		update.Error = entry.Message
	}

	updated, err := s.accounts.SetLoginStatus(ctx, account.UserID, account.ID, update)
	if err != nil {
		return fmt.Errorf("set login status of %s: %w", account.ID, err)
	}
	if s.notifier != nil {
		s.notifier.AccountUpdated(updated)
	}
	return nil
}
