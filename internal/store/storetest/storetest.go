// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package storetest is the behavioural contract every store.Store
// implementation must satisfy. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/instadash/internal/models"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/workflow"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the contract suite.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("AccountDeleteCascade", func(t *testing.T) { testAccountDeleteCascade(t, newStore(t)) })
	t.Run("Posts", func(t *testing.T) { testPosts(t, newStore(t)) })
	t.Run("PostStats", func(t *testing.T) { testPostStats(t, newStore(t)) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("Workflows", func(t *testing.T) { testWorkflows(t, newStore(t)) })
}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func newUser() string { return "user-" + uuid.NewString() }

func mustAccount(t *testing.T, s store.Store, userID, username string) *models.InstagramAccount {
	t.Helper()
	a, err := s.Accounts().Create(ctx(t), &models.InstagramAccount{UserID: userID, Username: username})
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return a
}

func mustPost(t *testing.T, s store.Store, a *models.InstagramAccount, mediaID string, c models.PostCounters) *models.InstagramPost {
	t.Helper()
	p, err := s.Posts().Create(ctx(t), &models.InstagramPost{
		AccountID: a.ID, UserID: a.UserID, MediaID: mediaID, MediaType: models.MediaTypeImage,
		Likes: c.Likes, Comments: c.Comments, Views: c.Views, Shares: c.Shares,
	})
	if err != nil {
		t.Fatalf("create post %s: %v", mediaID, err)
	}
	return p
}

func wantErr(t *testing.T, what string, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("%s: error = %v, want %v", what, err, want)
	}
}

// ============================================================
// Accounts
// ============================================================

func testAccounts(t *testing.T, s store.Store) {
	repo := s.Accounts()
	alice, bob := newUser(), newUser()

	a := mustAccount(t, s, alice, "shop.daily")
	if a.ID == "" || a.LoginStatus != models.LoginStatusLoggedOut || a.MonitoringEnabled {
		t.Fatalf("created account = %+v", a)
	}
	mustAccount(t, s, alice, "another_one")

	_, err := repo.Create(ctx(t), &models.InstagramAccount{UserID: alice, Username: "SHOP.DAILY"})
	wantErr(t, "duplicate username", err, store.ErrConflict)

	mustAccount(t, s, bob, "shop.daily")

	list, err := repo.List(ctx(t), alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Username != "another_one" {
		t.Fatalf("List = %+v, want 2 sorted by username", list)
	}

	_, err = repo.Get(ctx(t), bob, a.ID)
	wantErr(t, "foreign get", err, store.ErrNotFound)
	_, err = repo.Get(ctx(t), alice, uuid.NewString())
	wantErr(t, "missing get", err, store.ErrNotFound)

	name := "Daily Shop"
	got, err := repo.Update(ctx(t), alice, a.ID, models.AccountPatch{DisplayName: &name})
	if err != nil || got.DisplayName != name {
		t.Fatalf("Update = %+v, %v", got, err)
	}
	_, err = repo.Update(ctx(t), bob, a.ID, models.AccountPatch{DisplayName: &name})
	wantErr(t, "foreign update", err, store.ErrNotFound)

	at := time.Now().UTC().Truncate(time.Second)
	got, err = repo.SetLoginStatus(ctx(t), alice, a.ID, models.StatusUpdate{Status: models.LoginStatusLoggedIn, Timestamp: at})
	if err != nil {
		t.Fatal(err)
	}
	if got.LoginStatus != models.LoginStatusLoggedIn || got.LastLoginAt == nil || !got.LastLoginAt.Equal(at) {
		t.Fatalf("SetLoginStatus = %+v", got)
	}
	got, err = repo.SetLoginStatus(ctx(t), alice, a.ID, models.StatusUpdate{Status: models.LoginStatusChallengeRequired, Error: "checkpoint", Timestamp: at})
	if err != nil || got.LastError != "checkpoint" || got.LastLoginAt == nil {
		t.Fatalf("SetLoginStatus challenge = %+v, %v", got, err)
	}

	got, err = repo.SetMonitoring(ctx(t), alice, a.ID, true)
	if err != nil || !got.MonitoringEnabled {
		t.Fatalf("SetMonitoring = %+v, %v", got, err)
	}
	monitored, err := repo.ListMonitored(ctx(t))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, m := range monitored {
		found = found || m.ID == a.ID
		if !m.MonitoringEnabled {
			t.Errorf("ListMonitored returned unmonitored %s", m.ID)
		}
	}
	if !found {
		t.Error("ListMonitored missing monitored account")
	}

	byID, err := repo.GetByID(ctx(t), a.ID)
	if err != nil || byID.UserID != alice {
		t.Fatalf("GetByID = %+v, %v", byID, err)
	}

	wantErr(t, "foreign delete", repo.Delete(ctx(t), bob, a.ID), store.ErrNotFound)
	if err := repo.Delete(ctx(t), alice, a.ID); err != nil {
		t.Fatal(err)
	}
	_, err = repo.Get(ctx(t), alice, a.ID)
	wantErr(t, "get after delete", err, store.ErrNotFound)
}

func testAccountDeleteCascade(t *testing.T, s store.Store) {
	user := newUser()
	a := mustAccount(t, s, user, "cascade")
	p := mustPost(t, s, a, "m1", models.PostCounters{Likes: 1})

	accountID := a.ID
	w, err := s.Workflows().Create(ctx(t), &workflow.Workflow{UserID: user, AccountID: &accountID, Name: "bound"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Accounts().Delete(ctx(t), user, a.ID); err != nil {
		t.Fatal(err)
	}

	_, err = s.Posts().Get(ctx(t), user, p.ID)
	wantErr(t, "post after account delete", err, store.ErrNotFound)

	got, err := s.Workflows().Get(ctx(t), user, w.ID)
	if err != nil {
		t.Fatalf("workflow should survive account delete: %v", err)
	}
	if got.AccountID != nil {
		t.Errorf("workflow still bound to %s", *got.AccountID)
	}
	if got.Version != w.Version+1 {
		t.Errorf("detached workflow version = %d, want %d", got.Version, w.Version+1)
	}
	if got.UpdatedAt.Before(w.UpdatedAt) {
		t.Errorf("detached workflow UpdatedAt = %v, before %v", got.UpdatedAt, w.UpdatedAt)
	}
}

// ============================================================
// Posts
// ============================================================

func testPosts(t *testing.T, s store.Store) {
	repo := s.Posts()
	alice, bob := newUser(), newUser()
	a1 := mustAccount(t, s, alice, "one")
	a2 := mustAccount(t, s, alice, "two")
	b1 := mustAccount(t, s, bob, "bobs")

	_, err := repo.Create(ctx(t), &models.InstagramPost{AccountID: b1.ID, UserID: alice, MediaID: "x", MediaType: models.MediaTypeImage})
	wantErr(t, "post on foreign account", err, store.ErrNotFound)

	p1 := mustPost(t, s, a1, "m1", models.PostCounters{Likes: 10})
	mustPost(t, s, a1, "m2", models.PostCounters{Likes: 30})
	mustPost(t, s, a1, "m3", models.PostCounters{Likes: 20})
	mustPost(t, s, a2, "m1", models.PostCounters{Likes: 5})

	_, err = repo.Create(ctx(t), &models.InstagramPost{AccountID: a1.ID, UserID: alice, MediaID: "m1", MediaType: models.MediaTypeReel})
	wantErr(t, "duplicate media", err, store.ErrConflict)

	page, total, err := repo.List(ctx(t), alice, models.PostFilter{AccountID: a1.ID, Sort: models.PostSortLikes, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(page) != 2 || page[0].MediaID != "m2" || page[1].MediaID != "m3" {
		t.Fatalf("page 1 = %d/%d %v", len(page), total, mediaIDs(page))
	}
	page, _, err = repo.List(ctx(t), alice, models.PostFilter{AccountID: a1.ID, Sort: models.PostSortLikes, Limit: 2, Offset: 2})
	if err != nil || len(page) != 1 || page[0].MediaID != "m1" {
		t.Fatalf("page 2 = %v, %v", mediaIDs(page), err)
	}

	all, total, err := repo.List(ctx(t), alice, models.PostFilter{})
	if err != nil || total != 4 || len(all) != 4 {
		t.Fatalf("unfiltered list = %d/%d, %v", len(all), total, err)
	}
	none, total, err := repo.List(ctx(t), bob, models.PostFilter{})
	if err != nil || total != 0 || len(none) != 0 {
		t.Fatalf("bob's list = %d/%d, %v", len(none), total, err)
	}

	_, err = repo.Get(ctx(t), bob, p1.ID)
	wantErr(t, "foreign post get", err, store.ErrNotFound)

	updated, err := repo.UpdateStats(ctx(t), alice, p1.ID, models.PostCounters{Likes: 11, Comments: 2, Views: 100, Shares: 1})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Likes != 11 || updated.Views != 100 || updated.StatsUpdatedAt == nil {
		t.Fatalf("UpdateStats = %+v", updated)
	}
	_, err = repo.UpdateStats(ctx(t), bob, p1.ID, models.PostCounters{})
	wantErr(t, "foreign stats update", err, store.ErrNotFound)

	wantErr(t, "foreign delete", repo.Delete(ctx(t), bob, p1.ID), store.ErrNotFound)
	if err := repo.Delete(ctx(t), alice, p1.ID); err != nil {
		t.Fatal(err)
	}
	_, err = repo.Get(ctx(t), alice, p1.ID)
	wantErr(t, "get after delete", err, store.ErrNotFound)
}

func testPostStats(t *testing.T, s store.Store) {
	user := newUser()
	a := mustAccount(t, s, user, "stats")
	b := mustAccount(t, s, user, "other")
	mustPost(t, s, a, "m1", models.PostCounters{Likes: 10, Comments: 5, Views: 100, Shares: 5})
	top := mustPost(t, s, a, "m2", models.PostCounters{Likes: 40, Comments: 10, Views: 200})
	mustPost(t, s, a, "m3", models.PostCounters{Likes: 1})
	mustPost(t, s, b, "m1", models.PostCounters{Likes: 100, Views: 1000})

	st, err := s.Posts().Stats(ctx(t), user, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Posts != 3 || st.Likes != 51 || st.Comments != 15 || st.Views != 300 || st.Shares != 5 {
		t.Fatalf("Stats = %+v", st)
	}
	// (20/100 + 50/200) / 2; posts without views are left out.
	if diff := st.AvgEngagementRate - 0.225; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AvgEngagementRate = %v, want 0.225", st.AvgEngagementRate)
	}
	if st.TopPostID != top.ID {
		t.Errorf("TopPostID = %s, want %s", st.TopPostID, top.ID)
	}

	all, err := s.Posts().Stats(ctx(t), user, "")
	if err != nil || all.Posts != 4 || all.Likes != 151 {
		t.Fatalf("Stats(all) = %+v, %v", all, err)
	}

	_, err = s.Posts().Stats(ctx(t), newUser(), a.ID)
	wantErr(t, "foreign stats", err, store.ErrNotFound)

	empty := mustAccount(t, s, user, "empty")
	st, err = s.Posts().Stats(ctx(t), user, empty.ID)
	if err != nil || st.Posts != 0 || st.TopPostID != "" || st.AvgEngagementRate != 0 {
		t.Fatalf("empty Stats = %+v, %v", st, err)
	}
}

func mediaIDs(ps []*models.InstagramPost) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.MediaID
	}
	return out
}

// ============================================================
// Profiles
// ============================================================

func testProfiles(t *testing.T, s store.Store) {
	repo := s.Profiles()
	user := newUser()

	_, err := repo.Get(ctx(t), user)
	wantErr(t, "missing profile", err, store.ErrNotFound)
	_, err = repo.Update(ctx(t), user, models.ProfilePatch{})
	wantErr(t, "update missing profile", err, store.ErrNotFound)

	p, err := repo.Upsert(ctx(t), user, "first@example.com")
	if err != nil || p.ID != user || p.Email != "first@example.com" {
		t.Fatalf("Upsert = %+v, %v", p, err)
	}

	name, bio := "Jane Doe", "growth"
	p, err = repo.Update(ctx(t), user, models.ProfilePatch{FullName: &name, Bio: &bio})
	if err != nil || p.FullName != name || p.Bio != bio {
		t.Fatalf("Update = %+v, %v", p, err)
	}

	p, err = repo.Upsert(ctx(t), user, "second@example.com")
	if err != nil || p.Email != "second@example.com" || p.FullName != name {
		t.Fatalf("re-Upsert = %+v, %v; want email refreshed, name kept", p, err)
	}

	_, err = repo.GetAvatar(ctx(t), user)
	wantErr(t, "missing avatar", err, store.ErrNotFound)

	img := []byte{0x89, 'P', 'N', 'G'}
	p, err = repo.PutAvatar(ctx(t), user, models.Avatar{ContentType: "image/png", Data: img}, "/api/v1/profile/avatar")
	if err != nil || p.AvatarURL != "/api/v1/profile/avatar" {
		t.Fatalf("PutAvatar = %+v, %v", p, err)
	}
	av, err := repo.GetAvatar(ctx(t), user)
	if err != nil || av.ContentType != "image/png" || string(av.Data) != string(img) {
		t.Fatalf("GetAvatar = %+v, %v", av, err)
	}

	_, err = repo.PutAvatar(ctx(t), newUser(), models.Avatar{ContentType: "image/png", Data: img}, "x")
	wantErr(t, "avatar without profile", err, store.ErrNotFound)
}

// ============================================================
// Workflows
// ============================================================

func testWorkflows(t *testing.T, s store.Store) {
	repo := s.Workflows()
	alice, bob := newUser(), newUser()
	a := mustAccount(t, s, alice, "flows")
	b := mustAccount(t, s, bob, "bobflows")

	graph := workflow.Graph{
		Nodes: []workflow.Node{
			{ID: "t", Type: workflow.NodeTrigger, Data: map[string]any{"event": "new_post"}},
			{ID: "a", Type: workflow.NodeAction, Position: workflow.Position{X: 100, Y: 50}, Data: map[string]any{"action": "like"}},
		},
		Edges: []workflow.Edge{{ID: "e1", Source: "t", Target: "a"}},
	}

	foreign := b.ID
	_, err := repo.Create(ctx(t), &workflow.Workflow{UserID: alice, AccountID: &foreign, Name: "x", Graph: graph})
	wantErr(t, "bind to foreign account", err, store.ErrNotFound)

	accountID := a.ID
	w, err := repo.Create(ctx(t), &workflow.Workflow{UserID: alice, AccountID: &accountID, Name: "Auto like", Graph: graph})
	if err != nil {
		t.Fatal(err)
	}
	if w.ID == "" || w.Version != 1 {
		t.Fatalf("Create = %+v", w)
	}
	if _, err := repo.Create(ctx(t), &workflow.Workflow{UserID: alice, Name: "Unbound", Graph: workflow.Graph{}}); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx(t), alice, w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Graph.Nodes) != 2 || got.Graph.Nodes[1].Position.X != 100 || got.Graph.Nodes[0].Data["event"] != "new_post" {
		t.Fatalf("graph round trip = %+v", got.Graph)
	}
	_, err = repo.Get(ctx(t), bob, w.ID)
	wantErr(t, "foreign get", err, store.ErrNotFound)

	bound, err := repo.List(ctx(t), alice, a.ID)
	if err != nil || len(bound) != 1 {
		t.Fatalf("List(bound) = %d, %v", len(bound), err)
	}
	all, err := repo.List(ctx(t), alice, "")
	if err != nil || len(all) != 2 || all[0].Name != "Auto like" {
		t.Fatalf("List(all) = %d, %v", len(all), err)
	}

	got.Enabled = true
	got.Name = "Auto like v2"
	updated, err := repo.Update(ctx(t), got, 1)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Version != 2 || !updated.Enabled || updated.Name != "Auto like v2" {
		t.Fatalf("Update = %+v", updated)
	}

	_, err = repo.Update(ctx(t), got, 1)
	wantErr(t, "stale update", err, store.ErrVersionMismatch)

	stolen := got.Clone()
	stolen.UserID = bob
	_, err = repo.Update(ctx(t), stolen, 2)
	wantErr(t, "foreign update", err, store.ErrNotFound)

	wantErr(t, "foreign delete", repo.Delete(ctx(t), bob, w.ID), store.ErrNotFound)
	if err := repo.Delete(ctx(t), alice, w.ID); err != nil {
		t.Fatal(err)
	}
	_, err = repo.Get(ctx(t), alice, w.ID)
	wantErr(t, "get after delete", err, store.ErrNotFound)
}
