// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
)

type accountRepo struct{ s *Store }

func (r accountRepo) List(_ context.Context, userID string) ([]*models.InstagramAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.InstagramAccount, 0)
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, a.Clone())
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r accountRepo) Get(_ context.Context, userID, id string) (*models.InstagramAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, err := r.s.ownedAccount(userID, id)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (r accountRepo) Create(_ context.Context, a *models.InstagramAccount) (*models.InstagramAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, x := range r.s.accounts {
		if x.UserID == a.UserID && strings.EqualFold(x.Username, a.Username) {
			return nil, store.ErrConflict
		}
	}
	c := a.Clone()
	c.ID = uuid.NewString()
	if c.LoginStatus == "" {
		c.LoginStatus = models.LoginStatusLoggedOut
	}
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.accounts[c.ID] = c
	return c.Clone(), nil
}

func (r accountRepo) Update(_ context.Context, userID, id string, patch models.AccountPatch) (*models.InstagramAccount, error) {
	return r.mutate(userID, id, func(a *models.InstagramAccount) {
		if patch.DisplayName != nil {
			a.DisplayName = *patch.DisplayName
		}
	})
}

func (r accountRepo) SetLoginStatus(_ context.Context, userID, id string, u models.StatusUpdate) (*models.InstagramAccount, error) {
	return r.mutate(userID, id, func(a *models.InstagramAccount) {
		applyStatus(a, u)
	})
}

func (r accountRepo) SetMonitoring(_ context.Context, userID, id string, enabled bool) (*models.InstagramAccount, error) {
	return r.mutate(userID, id, func(a *models.InstagramAccount) {
		a.MonitoringEnabled = enabled
	})
}

func (r accountRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.ownedAccount(userID, id); err != nil {
		return err
	}
	delete(r.s.accounts, id)
	for pid, p := range r.s.posts {
		if p.AccountID == id {
			delete(r.s.posts, pid)
		}
	}
	now := r.s.now()
	for _, w := range r.s.workflows {
		if w.AccountID != nil && *w.AccountID == id {
			w.AccountID = nil
			w.Version++
			w.UpdatedAt = now
		}
	}
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id string) (*models.InstagramAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return a.Clone(), nil
}

func (r accountRepo) ListMonitored(_ context.Context) ([]*models.InstagramAccount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.InstagramAccount, 0)
	for _, a := range r.s.accounts {
		if a.MonitoringEnabled {
			out = append(out, a.Clone())
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r accountRepo) mutate(userID, id string, fn func(*models.InstagramAccount)) (*models.InstagramAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, err := r.s.ownedAccount(userID, id)
	if err != nil {
		return nil, err
	}
	fn(a)
	a.UpdatedAt = r.s.now()
	return a.Clone(), nil
}

// ownedAccount must be called with mu held.
func (s *Store) ownedAccount(userID, id string) (*models.InstagramAccount, error) {
	a, ok := s.accounts[id]
	if !ok || a.UserID != userID {
		return nil, store.ErrNotFound
	}
	return a, nil
}

func applyStatus(a *models.InstagramAccount, u models.StatusUpdate) {
	a.LoginStatus = u.Status
	a.LastError = u.Error
	if u.Status == models.LoginStatusLoggedIn {
		t := u.Timestamp
		a.LastLoginAt = &t
	}
}

func sortAccounts(as []*models.InstagramAccount) {
	sort.Slice(as, func(i, j int) bool {
		if as[i].Username != as[j].Username {
			return as[i].Username < as[j].Username
		}
		return as[i].ID < as[j].ID
	})
}
