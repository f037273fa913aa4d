// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package automation is the HTTP client for the external Instagram automation
backend. The backend owns the Instagram sessions; the dashboard only sends
it commands and reads its log stream (see package logstream).

# Commands

	POST {url}/accounts/{id}/login       {"username","password","verification_code"}
	POST {url}/accounts/{id}/logout
	PUT  {url}/accounts/{id}/monitoring  {"enabled": true}
	GET  {url}/health                    {"status": "ok"}

Every request carries Authorization: Bearer {token}. Passwords are passed
through and never stored or logged.

# Failure Mapping

  - 4xx responses wrap ErrRejected. They do not count against the circuit.
  - 5xx responses, transport errors and an open circuit wrap ErrUnavailable.
  - An empty backend URL makes every call fail with ErrUnavailable.

Commands are throttled by a token bucket (command_rate, command_burst) so a
burst of dashboard clicks cannot hammer the backend.
*/
package automation
