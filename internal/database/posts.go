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

// DefaultPageSize applies when a filter has no limit.
const DefaultPageSize = 50

const postColumns = `id::text, account_id::text, user_id, media_id, shortcode, url, caption, media_type,
	likes, comments, views, shares, posted_at, stats_updated_at, created_at, updated_at`

// postOrder whitelists ORDER BY clauses; user input never reaches SQL text.
var postOrder = map[models.PostSort]string{
	models.PostSortNewest:   "created_at DESC, id",
	models.PostSortOldest:   "created_at ASC, id",
	models.PostSortLikes:    "likes DESC, id",
	models.PostSortComments: "comments DESC, id",
	models.PostSortViews:    "views DESC, id",
}

type postRepo struct{ pool *pgxpool.Pool }

func scanPost(row pgx.Row) (*models.InstagramPost, error) {
	var p models.InstagramPost
	var mediaType string
	err := row.Scan(&p.ID, &p.AccountID, &p.UserID, &p.MediaID, &p.Shortcode, &p.URL, &p.Caption, &mediaType,
		&p.Likes, &p.Comments, &p.Views, &p.Shares, &p.PostedAt, &p.StatsUpdatedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	p.MediaType = models.MediaType(mediaType)
	return &p, nil
}

func (r postRepo) List(ctx context.Context, userID string, f models.PostFilter) ([]*models.InstagramPost, int, error) {
	order, ok := postOrder[f.Sort]
	if !ok {
		order = postOrder[models.PostSortNewest]
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	account := nullable(f.AccountID)

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM instagram_posts
		WHERE user_id = $1 AND ($2::uuid IS NULL OR account_id = $2::uuid)`,
		userID, account).Scan(&total)
	if err != nil {
		return nil, 0, mapError(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+postColumns+` FROM instagram_posts
		WHERE user_id = $1 AND ($2::uuid IS NULL OR account_id = $2::uuid)
		ORDER BY `+order+`
		LIMIT $3 OFFSET $4`,
		userID, account, limit, max(f.Offset, 0))
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	out := make([]*models.InstagramPost, 0, limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, mapError(rows.Err())
}

func (r postRepo) Get(ctx context.Context, userID, id string) (*models.InstagramPost, error) {
	return scanPost(r.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM instagram_posts WHERE id = $1 AND user_id = $2`, id, userID))
}

// Create inserts through a SELECT on the owning account so a post can only
// be attached to an account of the same user.
func (r postRepo) Create(ctx context.Context, p *models.InstagramPost) (*models.InstagramPost, error) {
	return scanPost(r.pool.QueryRow(ctx, `
		INSERT INTO instagram_posts (account_id, user_id, media_id, shortcode, url, caption, media_type,
			likes, comments, views, shares, posted_at)
		SELECT a.id, a.user_id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM instagram_accounts a
		WHERE a.id = $1 AND a.user_id = $2
		RETURNING `+postColumns,
		p.AccountID, p.UserID, p.MediaID, p.Shortcode, p.URL, p.Caption, string(p.MediaType),
		p.Likes, p.Comments, p.Views, p.Shares, p.PostedAt))
}

func (r postRepo) UpdateStats(ctx context.Context, userID, id string, c models.PostCounters) (*models.InstagramPost, error) {
	return scanPost(r.pool.QueryRow(ctx, `
		UPDATE instagram_posts
		SET likes = $3, comments = $4, views = $5, shares = $6, stats_updated_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+postColumns,
		id, userID, c.Likes, c.Comments, c.Views, c.Shares))
}

func (r postRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM instagram_posts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r postRepo) Stats(ctx context.Context, userID, accountID string) (*models.PostStats, error) {
	if accountID != "" {
		var exists bool
		err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM instagram_accounts WHERE id = $1 AND user_id = $2)`,
			accountID, userID).Scan(&exists)
		if err != nil {
			return nil, mapError(err)
		}
		if !exists {
			return nil, store.ErrNotFound
		}
	}
	account := nullable(accountID)

	st := &models.PostStats{AccountID: accountID}
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       COALESCE(sum(likes), 0)::bigint,
		       COALESCE(sum(comments), 0)::bigint,
		       COALESCE(sum(views), 0)::bigint,
		       COALESCE(sum(shares), 0)::bigint,
		       COALESCE(avg((likes + comments + shares)::float8 / views) FILTER (WHERE views > 0), 0)
		FROM instagram_posts
		WHERE user_id = $1 AND ($2::uuid IS NULL OR account_id = $2::uuid)`,
		userID, account).Scan(&st.Posts, &st.Likes, &st.Comments, &st.Views, &st.Shares, &st.AvgEngagementRate)
	if err != nil {
		return nil, mapError(err)
	}
	if st.Posts == 0 {
		return st, nil
	}

	err = r.pool.QueryRow(ctx, `
		SELECT id::text FROM instagram_posts
		WHERE user_id = $1 AND ($2::uuid IS NULL OR account_id = $2::uuid)
		ORDER BY likes + comments + shares DESC, id
		LIMIT 1`,
		userID, account).Scan(&st.TopPostID)
	if err != nil {
		return nil, mapError(err)
	}
	return st, nil
}
