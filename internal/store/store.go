// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package store declares the repositories the API handlers depend on.
//
// Two implementations exist: package database (hosted Postgres through pgx)
// and package store/memory (development and tests). Both pass the shared
// suite in store/storetest.
//
// Every user-scoped method takes the owner's user ID and filters on it, so a
// row owned by another user is reported as ErrNotFound rather than as a
// permission failure.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Repository errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionMismatch = errors.New("version mismatch")
)

// AccountRepository stores Instagram accounts.
type AccountRepository interface {
	List(ctx context.Context, userID string) ([]*models.InstagramAccount, error)
	Get(ctx context.Context, userID, id string) (*models.InstagramAccount, error)
	// Create assigns ID and timestamps. The username is unique per user.
	Create(ctx context.Context, a *models.InstagramAccount) (*models.InstagramAccount, error)
	Update(ctx context.Context, userID, id string, patch models.AccountPatch) (*models.InstagramAccount, error)
	SetLoginStatus(ctx context.Context, userID, id string, u models.StatusUpdate) (*models.InstagramAccount, error)
	SetMonitoring(ctx context.Context, userID, id string, enabled bool) (*models.InstagramAccount, error)
	// Delete removes the account and its posts; workflows bound to it are
	// detached, which bumps their version.
	Delete(ctx context.Context, userID, id string) error

	// GetByID and ListMonitored are service-wide and must not be reachable
	// from user input without an ownership check.
	GetByID(ctx context.Context, id string) (*models.InstagramAccount, error)
	ListMonitored(ctx context.Context) ([]*models.InstagramAccount, error)
}

// PostRepository stores posts and their counters.
type PostRepository interface {
	// List returns one page and the total number of matching posts.
	List(ctx context.Context, userID string, f models.PostFilter) ([]*models.InstagramPost, int, error)
	Get(ctx context.Context, userID, id string) (*models.InstagramPost, error)
	// Create requires the account to belong to the user; the media ID is
	// unique per account.
	Create(ctx context.Context, p *models.InstagramPost) (*models.InstagramPost, error)
	UpdateStats(ctx context.Context, userID, id string, c models.PostCounters) (*models.InstagramPost, error)
	Delete(ctx context.Context, userID, id string) error
	// Stats aggregates one account, or every account of the user when
	// accountID is empty.
	Stats(ctx context.Context, userID, accountID string) (*models.PostStats, error)
}

// ProfileRepository stores user profiles and avatars.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	// Upsert creates the profile on first login and refreshes the email on
	// later ones; other fields are left as they are.
	Upsert(ctx context.Context, userID, email string) (*models.Profile, error)
	Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error)
	PutAvatar(ctx context.Context, userID string, a models.Avatar, avatarURL string) (*models.Profile, error)
	GetAvatar(ctx context.Context, userID string) (*models.Avatar, error)
}

// WorkflowRepository stores workflow graphs.
type WorkflowRepository interface {
	// List returns the user's workflows, optionally only those bound to accountID.
	List(ctx context.Context, userID, accountID string) ([]*workflow.Workflow, error)
	Get(ctx context.Context, userID, id string) (*workflow.Workflow, error)
	// Create assigns ID, timestamps and version 1.
	Create(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error)
	// Update replaces name, description, enabled, account and graph when the
	// stored version equals expectedVersion, and bumps the version.
	Update(ctx context.Context, w *workflow.Workflow, expectedVersion int64) (*workflow.Workflow, error)
	Delete(ctx context.Context, userID, id string) error
}

// Store bundles the repositories with lifecycle hooks.
type Store interface {
	Accounts() AccountRepository
	Posts() PostRepository
	Profiles() ProfileRepository
	Workflows() WorkflowRepository
	Ping(ctx context.Context) error
	Close()
}
