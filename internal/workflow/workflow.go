// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidName is returned for an empty or overlong workflow name.
var ErrInvalidName = errors.New("invalid workflow name")

// MaxNameLength bounds Workflow.Name.
const MaxNameLength = 100

// Workflow is a stored flow owned by a dashboard user and optionally bound to
// one Instagram account. Version increases on every write and is the
// optimistic-concurrency token clients send back.
type Workflow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AccountID   *string   `json:"account_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Graph       Graph     `json:"graph"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (w *Workflow) Clone() *Workflow {
	c := *w
	if w.AccountID != nil {
		id := *w.AccountID
		c.AccountID = &id
	}
	c.Graph = w.Graph.Clone()
	return &c
}

// Validate checks the invariants every stored workflow holds: a usable name,
// a structurally valid graph, and a runnable graph when enabled.
func (w *Workflow) Validate() error {
	name := strings.TrimSpace(w.Name)
	if name == "" || len(name) > MaxNameLength {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, MaxNameLength)
	}
	if w.Enabled {
		return w.Graph.ValidateRunnable()
	}
	return w.Graph.Validate()
}

// Report is the result of a validation request from the editor.
type Report struct {
	Valid    bool      `json:"valid"`
	Runnable bool      `json:"runnable"`
	Problems []Problem `json:"problems"`
	Order    []string  `json:"order,omitempty"`
}

// Inspect validates g structurally and as a runnable flow, returning every
// problem found and, when acyclic, the execution order.
func Inspect(g Graph) Report {
	structural := g.Check(false)
	r := Report{Valid: len(structural) == 0, Problems: structural}
	if r.Valid {
		r.Problems = g.Check(true)
		r.Runnable = len(r.Problems) == 0
		r.Order, _ = g.TopologicalOrder()
	}
	if r.Problems == nil {
		r.Problems = []Problem{}
	}
	return r
}
