// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package cache provides a thread-safe, size-bounded LRU cache with per-entry
TTL.

Two components use it:
  - the dashboard handler caches DashboardSummary values per user and drops
    the user's entry after every write that changes the summary;
  - the authz enforcer caches casbin decisions keyed by role, object and
    action.

# Usage

	c := cache.New[string, *models.DashboardSummary](1000, 30*time.Second)
	if s, ok := c.Get(userID); ok {
	    return s
	}
	c.Set(userID, summary)
	c.Delete(userID)

Expiry is lazy: an expired entry is removed by the Get that finds it, or
by CleanupExpired.
*/
package cache
