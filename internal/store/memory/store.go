// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package memory is an in-process implementation of the store ports. Rows
// are cloned on the way in and out so callers never share memory with the
// store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Store holds every table behind one lock.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	accounts  map[string]*models.InstagramAccount
	posts     map[string]*models.InstagramPost
	profiles  map[string]*models.Profile
	avatars   map[string]*models.Avatar
	workflows map[string]*workflow.Workflow
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		accounts:  make(map[string]*models.InstagramAccount),
		posts:     make(map[string]*models.InstagramPost),
		profiles:  make(map[string]*models.Profile),
		avatars:   make(map[string]*models.Avatar),
		workflows: make(map[string]*workflow.Workflow),
	}
}

// SetClock replaces the time source. Not safe to call concurrently with use.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

func (s *Store) Accounts() store.AccountRepository   { return accountRepo{s} }
func (s *Store) Posts() store.PostRepository         { return postRepo{s} }
func (s *Store) Profiles() store.ProfileRepository   { return profileRepo{s} }
func (s *Store) Workflows() store.WorkflowRepository { return workflowRepo{s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
