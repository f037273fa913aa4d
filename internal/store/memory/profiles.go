// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package memory

import (
	"bytes"
	"context"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
)

type profileRepo struct{ s *Store }

func (r profileRepo) Get(_ context.Context, userID string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r profileRepo) Upsert(_ context.Context, userID, email string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	p, ok := r.s.profiles[userID]
	if !ok {
		p = &models.Profile{ID: userID, CreatedAt: now}
		r.s.profiles[userID] = p
	}
	p.Email = email
	p.UpdatedAt = now
	c := *p
	return &c, nil
}

func (r profileRepo) Update(_ context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if patch.FullName != nil {
		p.FullName = *patch.FullName
	}
	if patch.Username != nil {
		p.Username = *patch.Username
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	p.UpdatedAt = r.s.now()
	c := *p
	return &c, nil
}

func (r profileRepo) PutAvatar(_ context.Context, userID string, a models.Avatar, avatarURL string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := r.s.now()
	r.s.avatars[userID] = &models.Avatar{
		ContentType: a.ContentType,
		Data:        bytes.Clone(a.Data),
		UpdatedAt:   now,
	}
	p.AvatarURL = avatarURL
	p.UpdatedAt = now
	c := *p
	return &c, nil
}

func (r profileRepo) GetAvatar(_ context.Context, userID string) (*models.Avatar, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.avatars[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.Avatar{ContentType: a.ContentType, Data: bytes.Clone(a.Data), UpdatedAt: a.UpdatedAt}, nil
}
