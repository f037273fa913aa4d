// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/workflow"
)

const maxChangesPerRequest = 200

type workflowRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	AccountID   *string         `json:"account_id" validate:"omitempty,uuid"`
	Enabled     bool            `json:"enabled"`
	Graph       *workflow.Graph `json:"graph"`
	Version     int64           `json:"version" validate:"gte=0"`
}

type changesRequest struct {
	Version int64             `json:"version" validate:"gte=0"`
	Changes []workflow.Change `json:"changes" validate:"required,min=1,max=200,dive"`
}

type validateRequest struct {
	Graph *workflow.Graph `json:"graph"`
}

// ListWorkflows returns the caller's workflows, optionally only those bound
// to ?account_id.
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	accountID, err := optionalUUID(r, "account_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	flows, err := observe("workflows", "list", func() ([]*workflow.Workflow, error) {
		return h.store.Workflows().List(r.Context(), owner, accountID)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if flows == nil {
		flows = []*workflow.Workflow{}
	}
	NewResponseWriter(w, r).Success(flows)
}

// CreateWorkflow saves a new workflow at version 1.
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req workflowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	flow, err := h.workflowFromRequest(r.Context(), owner, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := observe("workflows", "create", func() (*workflow.Workflow, error) {
		return h.store.Workflows().Create(r.Context(), flow)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.workflowChanged(created)
	setVersionTag(w, created.Version)
	NewResponseWriter(w, r).Created(created)
}

// workflowFromRequest validates req and checks that a bound account belongs
// to owner.
func (h *Handler) workflowFromRequest(ctx context.Context, owner string, req *workflowRequest) (*workflow.Workflow, error) {
	flow := &workflow.Workflow{
		UserID:      owner,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Enabled:     req.Enabled,
	}
	if req.Graph != nil {
		flow.Graph = *req.Graph
	}
	if req.AccountID != nil && *req.AccountID != "" {
		id := *req.AccountID
		if _, err := observe("accounts", "get", func() (*models.InstagramAccount, error) {
			return h.store.Accounts().Get(ctx, owner, id)
		}); err != nil {
			return nil, err
		}
		flow.AccountID = &id
	}
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	return flow, nil
}

func (h *Handler) loadWorkflow(r *http.Request) (owner string, flow *workflow.Workflow, err error) {
	owner, err = authz.OwnerScope(r)
	if err != nil {
		return "", nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return "", nil, err
	}
	flow, err = observe("workflows", "get", func() (*workflow.Workflow, error) {
		return h.store.Workflows().Get(r.Context(), owner, id)
	})
	return owner, flow, err
}

// GetWorkflow returns one workflow with its version as ETag.
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	_, flow, err := h.loadWorkflow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	setVersionTag(w, flow.Version)
	NewResponseWriter(w, r).Success(flow)
}

// ReplaceWorkflow overwrites a workflow. The expected version comes from
// If-Match or, failing that, the body's version field; a stale version is a
// conflict.
func (h *Handler) ReplaceWorkflow(w http.ResponseWriter, r *http.Request) {
	owner, current, err := h.loadWorkflow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req workflowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	expected, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Graph == nil {
		g := current.Graph
		req.Graph = &g
	}
	flow, err := h.workflowFromRequest(r.Context(), owner, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	flow.ID = current.ID
	flow.CreatedAt = current.CreatedAt

	h.saveWorkflow(w, r, flow, expected)
}

// ApplyWorkflowChanges applies an editor change batch atomically. Either
// every change applies and the version is bumped once, or nothing changes.
func (h *Handler) ApplyWorkflowChanges(w http.ResponseWriter, r *http.Request) {
	_, current, err := h.loadWorkflow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req changesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	expected, err := expectedVersion(r, req.Version)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if expected != current.Version {
		respondError(w, r, fmt.Errorf("workflow %s at version %d: %w", current.ID, current.Version, store.ErrVersionMismatch))
		return
	}

	graph, err := current.Graph.Apply(req.Changes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	flow := current.Clone()
	flow.Graph = graph
	if err := flow.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	h.saveWorkflow(w, r, flow, expected)
}

func (h *Handler) saveWorkflow(w http.ResponseWriter, r *http.Request, flow *workflow.Workflow, expected int64) {
	saved, err := observe("workflows", "update", func() (*workflow.Workflow, error) {
		return h.store.Workflows().Update(r.Context(), flow, expected)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.workflowChanged(saved)
	setVersionTag(w, saved.Version)
	NewResponseWriter(w, r).Success(saved)
}

// ValidateWorkflow reports structural and runnable problems. A graph in the
// body is checked instead of the stored one, so the editor can validate
// unsaved work.
func (h *Handler) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	_, flow, err := h.loadWorkflow(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	graph := flow.Graph
	if r.ContentLength != 0 {
		var req validateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		if req.Graph != nil {
			graph = *req.Graph
		}
	}
	NewResponseWriter(w, r).Success(workflow.Inspect(graph))
}

// DeleteWorkflow removes a workflow.
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := observeErr("workflows", "delete", func() error {
		return h.store.Workflows().Delete(r.Context(), owner, id)
	}); err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(owner)
	NewResponseWriter(w, r).NoContent()
}

func (h *Handler) workflowChanged(flow *workflow.Workflow) {
	h.invalidate(flow.UserID)
	h.notify.WorkflowUpdated(flow)
}

// expectedVersion reads If-Match ("3", W/"3" or 3), falling back to the
// body version. One of them is required.
func expectedVersion(r *http.Request, bodyVersion int64) (int64, error) {
	if tag := r.Header.Get("If-Match"); tag != "" {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		v, err := strconv.ParseInt(strings.Trim(tag, `"`), 10, 64)
		if err != nil || v < 1 {
			return 0, badRequest("If-Match must be a workflow version")
		}
		return v, nil
	}
	if bodyVersion > 0 {
		return bodyVersion, nil
	}
	return 0, &requestError{
		status: http.StatusPreconditionRequired,
		code:   ErrCodeBadRequest,
		msg:    "the current workflow version is required in If-Match or the version field",
	}
}

func setVersionTag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}
