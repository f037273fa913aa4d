// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package api is the Instadash REST API.

Every JSON response uses one envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

	{
	  "success": false,
	  "error": {"code": "VALIDATION_ERROR", "message": "...", "details": {...}},
	  "meta": {...}
	}

Handlers resolve the owner with authz.OwnerScope, decode and validate the
body with decodeJSON, call the store through observe (which records store
metrics) and hand any error to respondError, the single place that maps
domain errors to HTTP status codes and envelope codes.

Account commands (login, logout, monitoring) are forwarded to the automation
backend first. Local state changes only after the backend accepted, and a
rejected command surfaces as 502 EXTERNAL_SERVICE_ERROR.

Writes publish change events on the websocket hub and drop the caller's
cached dashboard summary.
*/
package api
