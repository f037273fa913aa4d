// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/automation"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/logstream"
	"github.com/tomtom215/instadash/internal/models"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

type createAccountRequest struct {
	Username    string `json:"username" validate:"required,igusername"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type updateAccountRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
}

type accountLoginRequest struct {
	Password         string `json:"password" validate:"required,max=256"`
	VerificationCode string `json:"verification_code" validate:"omitempty,numeric,min=4,max=8"`
}

type monitoringRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ListAccounts returns the caller's accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	accounts, err := observe("accounts", "list", func() ([]*models.InstagramAccount, error) {
		return h.store.Accounts().List(r.Context(), owner)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(accounts)
}

// CreateAccount registers an Instagram account for the caller.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	account, err := observe("accounts", "create", func() (*models.InstagramAccount, error) {
		return h.store.Accounts().Create(r.Context(), &models.InstagramAccount{
			UserID:      owner,
			Username:    strings.ToLower(req.Username),
			DisplayName: strings.TrimSpace(req.DisplayName),
		})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.invalidate(owner)
	h.notify.AccountUpdated(account)
	logging.Ctx(r.Context()).Info().Str("account_id", account.ID).Msg("Account created")
	NewResponseWriter(w, r).Created(account)
}

// account loads the {id} account within the caller's scope.
func (h *Handler) account(r *http.Request) (owner string, account *models.InstagramAccount, err error) {
	owner, err = authz.OwnerScope(r)
	if err != nil {
		return "", nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return "", nil, err
	}
	account, err = observe("accounts", "get", func() (*models.InstagramAccount, error) {
		return h.store.Accounts().Get(r.Context(), owner, id)
	})
	return owner, account, err
}

// GetAccount returns one account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	_, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(account)
}

// UpdateAccount changes the display name.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, err := authz.OwnerScope(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		req.DisplayName = &trimmed
	}

	account, err := observe("accounts", "update", func() (*models.InstagramAccount, error) {
		return h.store.Accounts().Update(r.Context(), owner, id, models.AccountPatch{DisplayName: req.DisplayName})
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.notify.AccountUpdated(account)
	NewResponseWriter(w, r).Success(account)
}

// DeleteAccount removes the account and its posts. An active automation
// session is ended first, on a best-effort basis.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if h.automation != nil && (account.MonitoringEnabled || account.LoginStatus == models.LoginStatusLoggedIn) {
		if err := h.automation.Logout(r.Context(), account.ID); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("account_id", account.ID).
				Msg("Could not log out account before deletion")
		}
	}

	if err := observeErr("accounts", "delete", func() error {
		return h.store.Accounts().Delete(r.Context(), owner, account.ID)
	}); err != nil {
		respondError(w, r, err)
		return
	}
	if h.logs != nil {
		h.logs.Forget(account.ID)
	}
	h.invalidate(owner)
	h.notify.AccountDeleted(owner, account.ID)
	logging.Ctx(r.Context()).Info().Str("account_id", account.ID).Msg("Account deleted")
	NewResponseWriter(w, r).NoContent()
}

func (h *Handler) requireAutomation() error {
	if h.automation == nil || !h.automation.Configured() {
		return automation.ErrUnavailable
	}
	return nil
}

// LoginAccount forwards a login to the automation backend and marks the
// account logging_in. The outcome arrives later as a status event.
func (h *Handler) LoginAccount(w http.ResponseWriter, r *http.Request) {
	owner, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req accountLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.requireAutomation(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.automation.Login(r.Context(), account.ID, account.Username, req.Password, req.VerificationCode); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := h.setStatus(r.Context(), owner, account.ID, models.LoginStatusLoggingIn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Accepted(updated)
}

// LogoutAccount forwards a logout and marks the account logged_out.
func (h *Handler) LogoutAccount(w http.ResponseWriter, r *http.Request) {
	owner, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.requireAutomation(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.automation.Logout(r.Context(), account.ID); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := h.setStatus(r.Context(), owner, account.ID, models.LoginStatusLoggedOut)
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(updated)
}

func (h *Handler) setStatus(ctx context.Context, owner, id string, status models.LoginStatus) (*models.InstagramAccount, error) {
	updated, err := observe("accounts", "set_login_status", func() (*models.InstagramAccount, error) {
		return h.store.Accounts().SetLoginStatus(ctx, owner, id, models.StatusUpdate{
			Status:    status,
			Timestamp: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	h.invalidate(owner)
	h.notify.AccountUpdated(updated)
	return updated, nil
}

// SetMonitoring toggles monitoring. The backend is told first and the flag
// is only persisted when it accepted.
func (h *Handler) SetMonitoring(w http.ResponseWriter, r *http.Request) {
	owner, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req monitoringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.requireAutomation(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.automation.SetMonitoring(r.Context(), account.ID, *req.Enabled); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := observe("accounts", "set_monitoring", func() (*models.InstagramAccount, error) {
		return h.store.Accounts().SetMonitoring(r.Context(), owner, account.ID, *req.Enabled)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.invalidate(owner)
	h.notify.AccountUpdated(updated)
	NewResponseWriter(w, r).Success(updated)
}

// AccountLogs returns the most recent buffered log entries.
func (h *Handler) AccountLogs(w http.ResponseWriter, r *http.Request) {
	_, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > maxLogLimit {
			respondError(w, r, badRequest("limit must be between 1 and %d", maxLogLimit))
			return
		}
		limit = n
	}

	entries := []models.LogEntry{}
	if h.logs != nil {
		entries = h.logs.Recent(account.ID, limit)
	}
	NewResponseWriter(w, r).Success(entries)
}

// StreamAccountLogs serves the account's log stream as server-sent events,
// replaying buffered entries after Last-Event-ID first.
func (h *Handler) StreamAccountLogs(w http.ResponseWriter, r *http.Request) {
	_, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if h.logs == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Log streaming is disabled")
		return
	}

	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("last_event_id")
	}
	sub, replay := h.logs.Subscribe(account.ID, lastID)
	defer sub.Close()

	log := logging.Ctx(r.Context())
	log.Debug().Str("account_id", account.ID).Int("replay", len(replay)).Msg("Log stream opened")
	err = logstream.Stream(r.Context(), w, sub, replay, h.heartbeat)
	switch {
	case errors.Is(err, logstream.ErrStreamingUnsupported):
		NewResponseWriter(w, r).InternalError("Streaming is not supported by this connection")
	case err != nil:
		log.Debug().Err(err).Str("account_id", account.ID).Msg("Log stream ended")
	}
	if n := sub.Dropped(); n > 0 {
		log.Warn().Int64("dropped", n).Str("account_id", account.ID).Msg("Log stream subscriber fell behind")
	}
}

// AccountStats returns aggregated post counters for one account.
func (h *Handler) AccountStats(w http.ResponseWriter, r *http.Request) {
	owner, account, err := h.account(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	stats, err := observe("posts", "stats", func() (*models.PostStats, error) {
		return h.store.Posts().Stats(r.Context(), owner, account.ID)
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(stats)
}
