// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Session errors.
var (
	// ErrSessionNotFound is returned when a session is not found in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session exists but is expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session is a server-side login. Its ID is the opaque token given to the
// browser.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Email          string            `json:"email"`
	Username       string            `json:"username,omitempty"`
	Roles          []string          `json:"roles"`
	Provider       string            `json:"provider"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ToAuthSubject converts the session into the request subject.
func (s *Session) ToAuthSubject() *AuthSubject {
	return &AuthSubject{
		ID:        s.UserID,
		Email:     s.Email,
		Username:  s.Username,
		Roles:     slices.Clone(s.Roles),
		Provider:  s.Provider,
		SessionID: s.ID,
	}
}

func (s *Session) clone() *Session {
	c := *s
	c.Roles = slices.Clone(s.Roles)
	c.Metadata = maps.Clone(s.Metadata)
	return &c
}

// NewSession creates a session for subject that lives for ttl.
func NewSession(subject *AuthSubject, ttl time.Duration) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:             id,
		UserID:         subject.ID,
		Email:          subject.Email,
		Username:       subject.Username,
		Roles:          slices.Clone(subject.Roles),
		Provider:       subject.Provider,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
	}, nil
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SessionStore persists sessions.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get returns ErrSessionNotFound or ErrSessionExpired when the session
	// cannot be used.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session; deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes every session of a user and returns the count.
	DeleteByUserID(ctx context.Context, userID string) (int, error)

	// GetByUserID returns the live sessions of a user.
	GetByUserID(ctx context.Context, userID string) ([]*Session, error)

	// Touch records an access and moves the expiry.
	Touch(ctx context.Context, id string, newExpiry time.Time) error

	// CleanupExpired removes expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int, error)

	// Close releases the backing storage.
	Close() error
}

// MemorySessionStore keeps sessions in a map. Sessions are lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.clone()
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session.clone(), nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func (s *MemorySessionStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, session := range s.sessions {
		if session.UserID == userID && !session.IsExpired() {
			out = append(out, session.clone())
		}
	}
	return out, nil
}

func (s *MemorySessionStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	session.ExpiresAt = newExpiry
	return nil
}

func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

func (s *MemorySessionStore) Close() error { return nil }
