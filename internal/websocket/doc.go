// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package websocket pushes dashboard change events to connected browsers.

A single Hub owns every connection. Each Client is bound to the user that
opened it, and a message carries the id of the user who owns the changed
resource. The hub delivers a message to that user's clients and to every
admin client; nobody else sees it.

	┌──────────┐
	│   Hub    │ ← AccountUpdated / PostStatsUpdated / WorkflowUpdated ...
	└────┬─────┘
	     │ owner == client.userID || client.admin
	┌────┴─────┬──────────┬──────────┐
	│ alice #1 │ alice #2 │ admin #1 │
	└──────────┴──────────┴──────────┘

Message types:

  - account_updated: an account row changed (login status, monitoring, name)
  - account_deleted: an account was removed; data is {"id": "..."}
  - post_stats_updated: the counters of a post changed
  - workflow_updated: a workflow was created, replaced or edited
  - pong: reply to a client "ping"

Each client runs a read pump (handles ping and enforces the pong deadline)
and a write pump (serialises messages and sends websocket pings). A client
whose send buffer is full is disconnected rather than slowing the hub.

The hub implements suture.Service via Serve and closes every client when
its context ends.
*/
package websocket
