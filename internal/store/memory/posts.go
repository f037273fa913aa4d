// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
)

// DefaultPageSize applies when a filter has no limit.
const DefaultPageSize = 50

type postRepo struct{ s *Store }

func (r postRepo) List(_ context.Context, userID string, f models.PostFilter) ([]*models.InstagramPost, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*models.InstagramPost
	for _, p := range r.s.posts {
		if p.UserID != userID || (f.AccountID != "" && p.AccountID != f.AccountID) {
			continue
		}
		matched = append(matched, p)
	}
	sortPosts(matched, f.Sort)

	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	start := min(max(f.Offset, 0), total)
	end := min(start+limit, total)

	out := make([]*models.InstagramPost, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}

func (r postRepo) Get(_ context.Context, userID, id string) (*models.InstagramPost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	return p.Clone(), nil
}

func (r postRepo) Create(_ context.Context, p *models.InstagramPost) (*models.InstagramPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.ownedAccount(p.UserID, p.AccountID); err != nil {
		return nil, err
	}
	for _, x := range r.s.posts {
		if x.AccountID == p.AccountID && x.MediaID == p.MediaID {
			return nil, store.ErrConflict
		}
	}
	c := p.Clone()
	c.ID = uuid.NewString()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.posts[c.ID] = c
	return c.Clone(), nil
}

func (r postRepo) UpdateStats(_ context.Context, userID, id string, c models.PostCounters) (*models.InstagramPost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	now := r.s.now()
	p.Likes, p.Comments, p.Views, p.Shares = c.Likes, c.Comments, c.Views, c.Shares
	p.StatsUpdatedAt = &now
	p.UpdatedAt = now
	return p.Clone(), nil
}

func (r postRepo) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.s.posts, id)
	return nil
}

func (r postRepo) Stats(_ context.Context, userID, accountID string) (*models.PostStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if accountID != "" {
		if _, err := r.s.ownedAccount(userID, accountID); err != nil {
			return nil, err
		}
	}

	st := &models.PostStats{AccountID: accountID}
	var (
		rateSum  float64
		rated    int
		top      *models.InstagramPost
		topScore int64
	)
	for _, p := range r.s.posts {
		if p.UserID != userID || (accountID != "" && p.AccountID != accountID) {
			continue
		}
		st.Posts++
		st.Likes += p.Likes
		st.Comments += p.Comments
		st.Views += p.Views
		st.Shares += p.Shares
		if p.Views > 0 {
			rateSum += p.EngagementRate()
			rated++
		}
		score := p.Likes + p.Comments + p.Shares
		if top == nil || score > topScore || (score == topScore && p.ID < top.ID) {
			top, topScore = p, score
		}
	}
	if rated > 0 {
		st.AvgEngagementRate = rateSum / float64(rated)
	}
	if top != nil {
		st.TopPostID = top.ID
	}
	return st, nil
}

// sortPosts orders posts for listing; ties fall back to ID.
func sortPosts(ps []*models.InstagramPost, by models.PostSort) {
	key := func(p *models.InstagramPost) int64 {
		switch by {
		case models.PostSortLikes:
			return p.Likes
		case models.PostSortComments:
			return p.Comments
		case models.PostSortViews:
			return p.Views
		default:
			return p.CreatedAt.UnixNano()
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		ki, kj := key(ps[i]), key(ps[j])
		if ki == kj {
			return ps[i].ID < ps[j].ID
		}
		if by == models.PostSortOldest {
			return ki < kj
		}
		return ki > kj
	})
}
