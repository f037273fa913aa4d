// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package authz decides what an authenticated caller may do.
//
// Two layers apply to every API request:
//
//	Request -> auth.Authenticate -> authz.AuthorizeRequest -> handler -> authz.OwnerScope
//	                                (casbin: role x path x action)     (row ownership)
//
// The route layer is a casbin RBAC model with keyMatch2 path patterns,
// embedded from model.conf and policy.csv. The admin role inherits user:
//
//	p, user, /api/v1/accounts/:id/logs, read
//	p, admin, /api/v1/admin/*, *
//	g, admin, user
//
// Decisions are cached per (role, object, action) in a bounded LRU. Since
// objects are concrete request paths the cache is size-limited rather than
// unbounded.
//
// The row layer is OwnerScope: every repository call is filtered by the
// user id it returns. Regular users always get their own id; admins may act
// on another user's rows with ?user_id=.
package authz
