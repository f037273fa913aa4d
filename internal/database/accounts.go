// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
)

const accountColumns = `id::text, user_id, username, display_name, login_status, monitoring_enabled,
	last_login_at, last_error, created_at, updated_at`

type accountRepo struct{ pool *pgxpool.Pool }

func scanAccount(row pgx.Row) (*models.InstagramAccount, error) {
	var a models.InstagramAccount
	var status string
	err := row.Scan(&a.ID, &a.UserID, &a.Username, &a.DisplayName, &status, &a.MonitoringEnabled,
		&a.LastLoginAt, &a.LastError, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	a.LoginStatus = models.LoginStatus(status)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*models.InstagramAccount, error) {
	defer rows.Close()
	out := make([]*models.InstagramAccount, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, mapError(rows.Err())
}

func (r accountRepo) List(ctx context.Context, userID string) ([]*models.InstagramAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM instagram_accounts WHERE user_id = $1 ORDER BY username, id`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return collectAccounts(rows)
}

func (r accountRepo) Get(ctx context.Context, userID, id string) (*models.InstagramAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM instagram_accounts WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r accountRepo) Create(ctx context.Context, a *models.InstagramAccount) (*models.InstagramAccount, error) {
	status := a.LoginStatus
	if status == "" {
		status = models.LoginStatusLoggedOut
	}
	return scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO instagram_accounts (user_id, username, display_name, login_status, monitoring_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		a.UserID, a.Username, a.DisplayName, string(status), a.MonitoringEnabled))
}

func (r accountRepo) Update(ctx context.Context, userID, id string, patch models.AccountPatch) (*models.InstagramAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE instagram_accounts
		SET display_name = COALESCE($3, display_name), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountColumns,
		id, userID, patch.DisplayName))
}

func (r accountRepo) SetLoginStatus(ctx context.Context, userID, id string, u models.StatusUpdate) (*models.InstagramAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE instagram_accounts
		SET login_status = $3,
		    last_error = $4,
		    last_login_at = CASE WHEN $3 = 'logged_in' THEN $5::timestamptz ELSE last_login_at END,
		    updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountColumns,
		id, userID, string(u.Status), u.Error, u.Timestamp))
}

func (r accountRepo) SetMonitoring(ctx context.Context, userID, id string, enabled bool) (*models.InstagramAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE instagram_accounts SET monitoring_enabled = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountColumns,
		id, userID, enabled))
}

// Delete relies on the foreign keys: posts cascade, workflows are set null.
// Delete removes the account; posts go with it through ON DELETE CASCADE.
// Bound workflows are detached in the same transaction as a versioned write.
func (r accountRepo) Delete(ctx context.Context, userID, id string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE workflows SET account_id = NULL, version = version + 1, updated_at = now()
			WHERE account_id = $1 AND user_id = $2`, id, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM instagram_accounts WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

func (r accountRepo) GetByID(ctx context.Context, id string) (*models.InstagramAccount, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM instagram_accounts WHERE id = $1`, id))
}

func (r accountRepo) ListMonitored(ctx context.Context) ([]*models.InstagramAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM instagram_accounts WHERE monitoring_enabled ORDER BY username, id`)
	if err != nil {
		return nil, mapError(err)
	}
	return collectAccounts(rows)
}
