// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package logstream moves automation logs from the backend to browsers.

	automation backend --SSE--> Source --> Bus (watermill) --> Broker --SSE--> browsers
	                              |
	                              +--> status events: store.SetLoginStatus + websocket account_updated

# Source

Source holds one long-lived SSE connection to {automation.url}{upstream_path}.
It parses id/event/data frames, decodes each frame into a models.LogEntry,
and publishes it on the Bus. When the connection drops it reconnects with
exponential backoff between reconnect_min and reconnect_max and sends the
last seen id as Last-Event-ID so the backend can resume.

Frames with event "status" are also applied to the account row through a
StatusApplier, which notifies websocket clients of the change.

# Bus

Bus is a watermill publisher/subscriber pair: the in-process gochannel
pub/sub by default, or core NATS through watermill-nats when several
dashboard instances share one upstream.

# Broker

Broker consumes the Bus, keeps the last replay_size entries per account in
a ring buffer, and fans entries out to per-account Subscriptions. A slow
subscriber loses entries (counted in logstream_entries_dropped_total)
instead of stalling the broker.

# Browser Stream

Stream writes a Subscription to an http.ResponseWriter as text/event-stream
with heartbeat comments, replaying buffered entries after the browser's
Last-Event-ID first.
*/
package logstream
