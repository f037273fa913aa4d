// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/models"
)

type createPostRequest struct {
	AccountID string     `json:"account_id" validate:"required,uuid"`
	MediaID   string     `json:"media_id" validate:"required,max=64"`
	Shortcode string     `json:"shortcode" validate:"omitempty,max=64,printascii"`
	URL       string     `json:"url" validate:"omitempty,http_url,max=2048"`
	Caption   string     `json:"caption" validate:"max=2200"`
	MediaType string     `json:"media_type" validate:"required,oneof=image video carousel reel"`
	Likes     int64      `json:"likes" validate:"gte=0"`
	Comments  int64      `json:"comments" validate:"gte=0"`
	Views     int64      `json:"views" validate:"gte=0"`
	Shares    int64      `json:"shares" validate:"gte=0"`
	PostedAt  *time.Time `json:"posted_at"`
}

type postStatsRequest struct {
	Likes    *int64 `json:"likes" validate:"required,gte=0"`
	Comments *int64 `json:"comments" validate:"required,gte=0"`
	Views    *int64 `json:"views" validate:"required,gte=0"`
	Shares   *int64 `json:"shares" validate:"required,gte=0"`
}

// ListPosts returns one page of the caller's posts.
//
// Query: account_id, sort (newest|oldest|likes|comments|views), limit, offset.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
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
	limit, offset, err := pagination(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sort := models.PostSort(r.URL.Query().Get("sort"))
	switch sort {
	case "":
		sort = models.PostSortNewest
	case models.PostSortNewest, models.PostSortOldest, models.PostSortLikes,
		models.PostSortComments, models.PostSortViews:
	default:
		respondError(w, r, badRequest("sort must be one of newest, oldest, likes, comments, views"))
		return
	}

	var total int
	posts, err := observe("posts", "list", func() ([]*models.InstagramPost, error) {
		var p []*models.InstagramPost
		var listErr error
		p, total, listErr = h.store.Posts().List(r.Context(), owner, models.PostFilter{
			AccountID: accountID,
			Sort:      sort,
			Limit:     limit,
			Offset:    offset,
		})
		return p, listErr
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if posts == nil {
		posts = []*models.InstagramPost{}
	}
	NewResponseWriter(w, r).SuccessWithPagination(posts, newPagination(total, len(posts), limit, offset))
}

// CreatePost records a post for one of the caller's accounts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	post, err := observe("posts", "create", func() (*models.InstagramPost, error) {
		return h.store.Posts().Create(r.Context(), &models.InstagramPost{
			AccountID: req.AccountID,
			UserID:    owner,
			MediaID:   strings.TrimSpace(req.MediaID),
			Shortcode: req.Shortcode,
			URL:       req.URL,
			Caption:   req.Caption,
			MediaType: models.MediaType(req.MediaType),
			Likes:     req.Likes,
			Comments:  req.Comments,
			Views:     req.Views,
			Shares:    req.Shares,
			PostedAt:  req.PostedAt,
		})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(owner)
	NewResponseWriter(w, r).Created(post)
}

// GetPost returns one post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
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
	post, err := observe("posts", "get", func() (*models.InstagramPost, error) {
		return h.store.Posts().Get(r.Context(), owner, id)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(post)
}

// UpdatePostStats replaces the engagement counters of a post.
func (h *Handler) UpdatePostStats(w http.ResponseWriter, r *http.Request) {
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
	var req postStatsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	post, err := observe("posts", "update_stats", func() (*models.InstagramPost, error) {
		return h.store.Posts().UpdateStats(r.Context(), owner, id, models.PostCounters{
			Likes:    *req.Likes,
			Comments: *req.Comments,
			Views:    *req.Views,
			Shares:   *req.Shares,
		})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(owner)
	h.notify.PostStatsUpdated(post)
	NewResponseWriter(w, r).Success(post)
}

// DeletePost removes a post.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
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
	if err := observeErr("posts", "delete", func() error {
		return h.store.Posts().Delete(r.Context(), owner, id)
	}); err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(owner)
	NewResponseWriter(w, r).NoContent()
}
