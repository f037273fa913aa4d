// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package models

import "time"

// Profile is the dashboard user's profile. ID equals the identity provider's
// user ID.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Username  string    `json:"username,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch carries editable profile fields. Nil means unchanged.
type ProfilePatch struct {
	FullName *string
	Username *string
	Bio      *string
}

// Avatar is a stored profile image.
type Avatar struct {
	ContentType string
	Data        []byte
	UpdatedAt   time.Time
}
