// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

/*
Package auth authenticates dashboard users.

Credentials are checked by an IdentityProvider: HostedIdentity calls the
managed auth backend's password grant, LocalIdentity checks a single bcrypt
hash for development. A successful login creates a server-side Session
(memory or BadgerDB) whose opaque ID travels in an HttpOnly cookie or the
X-Session-Token header. API clients holding a hosted access token may use
Authorization: Bearer instead; TokenVerifier checks it locally.

	svc := auth.NewService(identity, sessions, mw, profiles, auth.ServiceConfig{...})
	r.With(mw.Authenticate, mw.RequireAuth).Get("/api/v1/accounts", h.ListAccounts)

Every request that reaches a handler behind RequireAuth carries an
AuthSubject in its context:

	subject := auth.GetAuthSubject(r.Context())

Repeated failures for the same email or client IP are throttled by
Lockout before the identity provider is contacted.
*/
package auth
