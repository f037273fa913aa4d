// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package services adapts components without a Serve(ctx) method to
// suture.Service.
//
// HTTPServerService turns ListenAndServe/Shutdown into Serve. Periodic runs
// a function on a ticker, for health checks and housekeeping that need no state of
// their own. Components that already implement Serve and String (the hub,
// the log broker and source, the session cleaner) are added to the tree
// directly.
package services
