// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package models

import "time"

// MediaType is the Instagram media kind of a post.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeVideo    MediaType = "video"
	MediaTypeCarousel MediaType = "carousel"
	MediaTypeReel     MediaType = "reel"
)

// InstagramPost is a published post tracked for an account.
type InstagramPost struct {
	ID             string     `json:"id"`
	AccountID      string     `json:"account_id"`
	UserID         string     `json:"user_id"`
	MediaID        string     `json:"media_id"`
	Shortcode      string     `json:"shortcode,omitempty"`
	URL            string     `json:"url,omitempty"`
	Caption        string     `json:"caption,omitempty"`
	MediaType      MediaType  `json:"media_type"`
	Likes          int64      `json:"likes"`
	Comments       int64      `json:"comments"`
	Views          int64      `json:"views"`
	Shares         int64      `json:"shares"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	StatsUpdatedAt *time.Time `json:"stats_updated_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Clone returns a deep copy.
func (p *InstagramPost) Clone() *InstagramPost {
	c := *p
	if p.PostedAt != nil {
		t := *p.PostedAt
		c.PostedAt = &t
	}
	if p.StatsUpdatedAt != nil {
		t := *p.StatsUpdatedAt
		c.StatsUpdatedAt = &t
	}
	return &c
}

// EngagementRate is (likes+comments+shares)/views, or 0 without views.
func (p *InstagramPost) EngagementRate() float64 {
	if p.Views <= 0 {
		return 0
	}
	return float64(p.Likes+p.Comments+p.Shares) / float64(p.Views)
}

// PostCounters is a stats update for one post.
type PostCounters struct {
	Likes    int64
	Comments int64
	Views    int64
	Shares   int64
}

// PostSort orders post listings.
type PostSort string

const (
	PostSortNewest   PostSort = "newest"
	PostSortOldest   PostSort = "oldest"
	PostSortLikes    PostSort = "likes"
	PostSortComments PostSort = "comments"
	PostSortViews    PostSort = "views"
)

// PostFilter narrows a post listing. An empty AccountID lists every account
// the owner has.
type PostFilter struct {
	AccountID string
	Sort      PostSort
	Limit     int
	Offset    int
}

// PostStats aggregates the posts of one account, or of all of a user's
// accounts when AccountID is empty.
type PostStats struct {
	AccountID         string  `json:"account_id,omitempty"`
	Posts             int64   `json:"posts"`
	Likes             int64   `json:"likes"`
	Comments          int64   `json:"comments"`
	Views             int64   `json:"views"`
	Shares            int64   `json:"shares"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
	TopPostID         string  `json:"top_post_id,omitempty"`
}
