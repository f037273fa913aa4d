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
)

const profileColumns = `id, email, full_name, username, bio, avatar_url, created_at, updated_at`

type profileRepo struct{ pool *pgxpool.Pool }

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Username, &p.Bio, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r profileRepo) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, userID))
}

func (r profileRepo) Upsert(ctx context.Context, userID, email string) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()
		RETURNING `+profileColumns,
		userID, email))
}

func (r profileRepo) Update(ctx context.Context, userID string, patch models.ProfilePatch) (*models.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET full_name = COALESCE($2, full_name),
		    username = COALESCE($3, username),
		    bio = COALESCE($4, bio),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		userID, patch.FullName, patch.Username, patch.Bio))
}

// PutAvatar stores the image and points the profile at it in one
// transaction. A missing profile fails the foreign key and maps to ErrNotFound.
func (r profileRepo) PutAvatar(ctx context.Context, userID string, a models.Avatar, avatarURL string) (*models.Profile, error) {
	var out *models.Profile
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO profile_avatars (user_id, content_type, data) VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO UPDATE
			SET content_type = EXCLUDED.content_type, data = EXCLUDED.data, updated_at = now()`,
			userID, a.ContentType, a.Data); err != nil {
			return err
		}
		p, err := scanProfile(tx.QueryRow(ctx, `
			UPDATE profiles SET avatar_url = $2, updated_at = now() WHERE id = $1
			RETURNING `+profileColumns,
			userID, avatarURL))
		out = p
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r profileRepo) GetAvatar(ctx context.Context, userID string) (*models.Avatar, error) {
	var a models.Avatar
	err := r.pool.QueryRow(ctx,
		`SELECT content_type, data, updated_at FROM profile_avatars WHERE user_id = $1`, userID).
		Scan(&a.ContentType, &a.Data, &a.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}
