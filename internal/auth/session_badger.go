// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	sessionKeyPrefix     = "session:"
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore persists sessions in BadgerDB so logins survive a
// restart. Every key carries a TTL equal to the session's remaining
// lifetime, so Badger drops expired sessions on its own; CleanupExpired
// sweeps whatever is left.
type BadgerSessionStore struct {
	db     *badger.DB
	ownsDB bool
}

var _ SessionStore = (*BadgerSessionStore)(nil)

// NewBadgerSessionStore uses an already opened database. Close leaves it open.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// OpenBadgerSessionStore opens (or creates) a database at path.
func OpenBadgerSessionStore(path string) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return &BadgerSessionStore{db: db, ownsDB: true}, nil
}

func sessionKey(id string) []byte { return []byte(sessionKeyPrefix + id) }

func userKey(userID, id string) []byte {
	return []byte(sessionUserKeyPrefix + userID + ":" + id)
}

func ttlUntil(t time.Time) time.Duration {
	d := time.Until(t)
	if d < time.Second {
		d = time.Second
	}
	return d
}

func putSession(txn *badger.Txn, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := ttlUntil(session.ExpiresAt)
	if err := txn.SetEntry(badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl)); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if err := txn.SetEntry(badger.NewEntry(userKey(session.UserID, session.ID), []byte(session.ID)).WithTTL(ttl)); err != nil {
		return fmt.Errorf("set user index: %w", err)
	}
	return nil
}

func readSession(txn *badger.Txn, id string) (*Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var session Session
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &session) }); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

func (s *BadgerSessionStore) Create(_ context.Context, session *Session) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return putSession(txn, session)
	})
}

func (s *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var session *Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = readSession(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *BadgerSessionStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deleteSession(txn, id)
	})
}

func deleteSession(txn *badger.Txn, id string) error {
	session, err := readSession(txn, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := txn.Delete(sessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := txn.Delete(userKey(session.UserID, id)); err != nil {
		return fmt.Errorf("delete user index: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) sessionIDsForUser(txn *badger.Txn, userID string) []string {
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
	defer it.Close()

	prefix := []byte(sessionUserKeyPrefix + userID + ":")
	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids
}

func (s *BadgerSessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	count := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, id := range s.sessionIDsForUser(txn, userID) {
			if err := txn.Delete(sessionKey(id)); err != nil {
				return err
			}
			if err := txn.Delete(userKey(userID, id)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return count, nil
}

func (s *BadgerSessionStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	var out []*Session
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range s.sessionIDsForUser(txn, userID) {
			session, err := readSession(txn, id)
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if !session.IsExpired() {
				out = append(out, session)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return out, nil
}

func (s *BadgerSessionStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		session, err := readSession(txn, id)
		if err != nil {
			return err
		}
		session.LastAccessedAt = time.Now()
		session.ExpiresAt = newExpiry
		return putSession(txn, session)
	})
}

func (s *BadgerSessionStore) CleanupExpired(_ context.Context) (int, error) {
	var expired []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session Session
			err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &session) })
			if err != nil || session.IsExpired() {
				expired = append(expired, string(it.Item().Key()[len(prefix):]))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	count := 0
	for _, id := range expired {
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := deleteSession(txn, id); err != nil {
				// An unreadable record still has to go.
				return txn.Delete(sessionKey(id))
			}
			return nil
		})
		if err == nil {
			count++
		}
	}
	return count, nil
}

// Count returns the number of stored sessions.
func (s *BadgerSessionStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close closes the database when the store opened it.
func (s *BadgerSessionStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
