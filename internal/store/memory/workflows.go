// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/workflow"
)

type workflowRepo struct{ s *Store }

func (r workflowRepo) List(_ context.Context, userID, accountID string) ([]*workflow.Workflow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*workflow.Workflow, 0)
	for _, w := range r.s.workflows {
		if w.UserID != userID {
			continue
		}
		if accountID != "" && (w.AccountID == nil || *w.AccountID != accountID) {
			continue
		}
		out = append(out, w.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r workflowRepo) Get(_ context.Context, userID, id string) (*workflow.Workflow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.workflows[id]
	if !ok || w.UserID != userID {
		return nil, store.ErrNotFound
	}
	return w.Clone(), nil
}

func (r workflowRepo) Create(_ context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkBinding(w); err != nil {
		return nil, err
	}
	c := w.Clone()
	c.ID = uuid.NewString()
	c.Version = 1
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.workflows[c.ID] = c
	return c.Clone(), nil
}

func (r workflowRepo) Update(_ context.Context, w *workflow.Workflow, expectedVersion int64) (*workflow.Workflow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.workflows[w.ID]
	if !ok || cur.UserID != w.UserID {
		return nil, store.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return nil, store.ErrVersionMismatch
	}
	if err := r.s.checkBinding(w); err != nil {
		return nil, err
	}
	next := w.Clone()
	next.CreatedAt = cur.CreatedAt
	next.Version = cur.Version + 1
	next.UpdatedAt = r.s.now()
	r.s.workflows[w.ID] = next
	return next.Clone(), nil
}

func (r workflowRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	w, ok := r.s.workflows[id]
	if !ok || w.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.workflows, id)
	return nil
}

// checkBinding verifies a bound account belongs to the workflow's owner.
// Must be called with mu held.
func (s *Store) checkBinding(w *workflow.Workflow) error {
	if w.AccountID == nil {
		return nil
	}
	_, err := s.ownedAccount(w.UserID, *w.AccountID)
	return err
}
