// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/instadash/internal/store"
)

// Postgres SQLSTATE codes the repositories translate.
const (
	UniqueViolationCode      = "23505"
	ForeignKeyViolationCode  = "23503"
	CheckViolationCode       = "23514"
	InvalidTextRepresentCode = "22P02"
)

// AsPgError unwraps a server-side error.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// mapError converts driver errors into store sentinels. A malformed UUID in
// a path parameter is simply a row that does not exist.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if pe, ok := AsPgError(err); ok {
		switch pe.Code {
		case UniqueViolationCode:
			return store.ErrConflict
		case ForeignKeyViolationCode, InvalidTextRepresentCode:
			return store.ErrNotFound
		}
	}
	return err
}
