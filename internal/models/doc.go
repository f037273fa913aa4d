// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package models defines the rows and value types shared by the store, the
API handlers and the log stream.

Row types:

  - InstagramAccount: an Instagram login driven by the automation backend,
    with its login state and monitoring toggle.
  - InstagramPost: a published post and its engagement counters.
  - Profile: the dashboard user's own profile and avatar.

Every row carries the owning user's ID; repositories filter on it so that a
row owned by someone else behaves exactly like a missing row.

Workflow graphs live in package workflow.
*/
package models
