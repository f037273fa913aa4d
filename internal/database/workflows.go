// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package database

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/workflow"
)

const workflowColumns = `id::text, user_id, account_id::text, name, description, enabled, graph, version, created_at, updated_at`

type workflowRepo struct{ pool *pgxpool.Pool }

func scanWorkflow(row pgx.Row) (*workflow.Workflow, error) {
	var w workflow.Workflow
	var graph []byte
	err := row.Scan(&w.ID, &w.UserID, &w.AccountID, &w.Name, &w.Description, &w.Enabled, &graph,
		&w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal(graph, &w.Graph); err != nil {
		return nil, fmt.Errorf("decode graph of workflow %s: %w", w.ID, err)
	}
	return &w, nil
}

func encodeGraph(g workflow.Graph) ([]byte, error) {
	g = g.Clone()
	return json.Marshal(g)
}

func (r workflowRepo) List(ctx context.Context, userID, accountID string) ([]*workflow.Workflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+workflowColumns+` FROM workflows
		WHERE user_id = $1 AND ($2::uuid IS NULL OR account_id = $2::uuid)
		ORDER BY name, id`,
		userID, nullable(accountID))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := make([]*workflow.Workflow, 0)
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, mapError(rows.Err())
}

func (r workflowRepo) Get(ctx context.Context, userID, id string) (*workflow.Workflow, error) {
	return scanWorkflow(r.pool.QueryRow(ctx,
		`SELECT `+workflowColumns+` FROM workflows WHERE id = $1 AND user_id = $2`, id, userID))
}

func (r workflowRepo) Create(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	graph, err := encodeGraph(w.Graph)
	if err != nil {
		return nil, err
	}
	var out *workflow.Workflow
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkBinding(ctx, tx, w); err != nil {
			return err
		}
		created, err := scanWorkflow(tx.QueryRow(ctx, `
			INSERT INTO workflows (user_id, account_id, name, description, enabled, graph)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+workflowColumns,
			w.UserID, w.AccountID, w.Name, w.Description, w.Enabled, graph))
		out = created
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// Update locks the row, checks ownership and version, then writes.
func (r workflowRepo) Update(ctx context.Context, w *workflow.Workflow, expectedVersion int64) (*workflow.Workflow, error) {
	graph, err := encodeGraph(w.Graph)
	if err != nil {
		return nil, err
	}
	var out *workflow.Workflow
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx,
			`SELECT version FROM workflows WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			w.ID, w.UserID).Scan(&current)
		if err != nil {
			return mapError(err)
		}
		if current != expectedVersion {
			return store.ErrVersionMismatch
		}
		if err := checkBinding(ctx, tx, w); err != nil {
			return err
		}
		updated, err := scanWorkflow(tx.QueryRow(ctx, `
			UPDATE workflows
			SET account_id = $3, name = $4, description = $5, enabled = $6, graph = $7,
			    version = version + 1, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING `+workflowColumns,
			w.ID, w.UserID, w.AccountID, w.Name, w.Description, w.Enabled, graph))
		out = updated
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r workflowRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// checkBinding verifies that a bound account belongs to the workflow owner.
func checkBinding(ctx context.Context, tx pgx.Tx, w *workflow.Workflow) error {
	if w.AccountID == nil {
		return nil
	}
	var owned bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM instagram_accounts WHERE id = $1 AND user_id = $2)`,
		*w.AccountID, w.UserID).Scan(&owned)
	if err != nil {
		return mapError(err)
	}
	if !owned {
		return store.ErrNotFound
	}
	return nil
}
