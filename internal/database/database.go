// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package database implements the store ports on the hosted Postgres
// instance through pgx.
//
// Ownership is part of every user-scoped statement (WHERE user_id = $n), so
// the database itself never returns another user's row.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/store"
)

// DB is the Postgres-backed store.
type DB struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*DB)(nil)

// New connects using cfg and, when configured, brings the schema up to date.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	pool, err := NewPool(ctx, cfg.DSN, PoolOptions{MaxConns: cfg.MaxConns})
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &DB{pool: pool}, nil
}

// NewWithPool wraps an existing pool; the caller keeps ownership of it.
func NewWithPool(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

func (db *DB) Accounts() store.AccountRepository   { return accountRepo{db.pool} }
func (db *DB) Posts() store.PostRepository         { return postRepo{db.pool} }
func (db *DB) Profiles() store.ProfileRepository   { return profileRepo{db.pool} }
func (db *DB) Workflows() store.WorkflowRepository { return workflowRepo{db.pool} }

// Ping checks connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool exposes the pool for migrations tooling.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// nullable turns "" into SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
