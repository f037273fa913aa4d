// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package testutil opens migrated Postgres pools for tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/instadash/internal/database"
)

// DSNEnvVar names the variable that enables Postgres-backed tests.
const DSNEnvVar = "PG_DSN"

// OpenMigratedPool opens a pool against PG_DSN and applies every migration.
// The test is skipped when PG_DSN is unset.
//
// It is destructive: it resets the public schema.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(DSNEnvVar)
	if dsn == "" {
		t.Skip("PG_DSN not set; skipping Postgres tests")
	}
	return OpenMigratedPoolDSN(t, dsn)
}

// OpenMigratedPoolDSN is OpenMigratedPool for an explicit DSN.
func OpenMigratedPoolDSN(t *testing.T, dsn string) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, dsn, database.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}
