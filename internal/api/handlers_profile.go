// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/models"
)

const (
	// MaxAvatarBytes caps an uploaded avatar.
	MaxAvatarBytes = 2 << 20

	avatarField = "avatar"
	avatarPath  = "/api/v1/profile/avatar"
)

// avatarTypes are the sniffed content types accepted for avatars.
var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type updateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Username *string `json:"username" validate:"omitempty,igusername"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := observe("profiles", "get", func() (*models.Profile, error) {
		return h.store.Profiles().Get(r.Context(), owner)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(profile)
}

// UpdateProfile edits name, username and bio. Omitted fields are unchanged.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	for _, f := range []*string{req.FullName, req.Bio} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}

	profile, err := observe("profiles", "update", func() (*models.Profile, error) {
		return h.store.Profiles().Update(r.Context(), owner, models.ProfilePatch{
			FullName: req.FullName,
			Username: req.Username,
			Bio:      req.Bio,
		})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(profile)
}

// UploadAvatar stores a JPEG, PNG or WebP image sent as the multipart field
// "avatar". The type is sniffed from the bytes; the declared type is ignored.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	data, err := readAvatar(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	contentType := http.DetectContentType(data)
	if !avatarTypes[contentType] {
		respondError(w, r, unsupportedMediaType("avatar must be a JPEG, PNG or WebP image, got %s", contentType))
		return
	}

	now := time.Now().UTC()
	url := fmt.Sprintf("%s?v=%d", avatarPath, now.Unix())
	profile, err := observe("profiles", "put_avatar", func() (*models.Profile, error) {
		return h.store.Profiles().PutAvatar(r.Context(), owner, models.Avatar{
			ContentType: contentType,
			Data:        data,
			UpdatedAt:   now,
		}, url)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("content_type", contentType).Int("bytes", len(data)).Msg("Avatar updated")
	NewResponseWriter(w, r).Success(profile)
}

// readAvatar extracts the avatar part. The whole body is capped a little
// above MaxAvatarBytes to leave room for the multipart framing.
func readAvatar(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, unsupportedMediaType("Content-Type must be multipart/form-data")
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxAvatarBytes+64<<10)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, badRequest("malformed multipart body")
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, badRequest("multipart field %q is required", avatarField)
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, payloadTooLarge("avatar must be at most %d bytes", MaxAvatarBytes)
			}
			return nil, badRequest("malformed multipart body")
		}
		if part.FormName() != avatarField {
			_ = part.Close()
			continue
		}

		var buf bytes.Buffer
		n, err := io.Copy(&buf, io.LimitReader(part, MaxAvatarBytes+1))
		_ = part.Close()
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr), n > MaxAvatarBytes:
			return nil, payloadTooLarge("avatar must be at most %d bytes", MaxAvatarBytes)
		case err != nil:
			return nil, badRequest("malformed multipart body")
		case n == 0:
			return nil, badRequest("avatar is empty")
		}
		return buf.Bytes(), nil
	}
}

// GetAvatar serves the caller's avatar image.
func (h *Handler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	avatar, err := observe("profiles", "get_avatar", func() (*models.Avatar, error) {
		return h.store.Profiles().GetAvatar(r.Context(), owner)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", avatar.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(w, r, "avatar", avatar.UpdatedAt, bytes.NewReader(avatar.Data))
}
