// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/instadash/internal/validation"
)

const (
	maxJSONBody     = 1 << 20
	defaultPageSize = 20
	maxPageSize     = 100
)

// decodeJSON reads a size-limited JSON body into dst and validates it.
// Unknown fields are rejected so typos surface instead of being ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return unsupportedMediaType("Content-Type must be application/json")
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return err
		case strings.Contains(err.Error(), "request body too large"):
			return payloadTooLarge("Request body exceeds %d bytes", maxJSONBody)
		case errors.Is(err, io.EOF):
			return badRequest("Request body is required")
		default:
			return badRequest("Invalid JSON body: %s", jsonProblem(err))
		}
	}
	if dec.More() {
		return badRequest("Request body must contain a single JSON value")
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// jsonProblem trims decoder messages down to what helps the caller.
func jsonProblem(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, "json: "); i >= 0 {
		msg = msg[i+len("json: "):]
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// pagination reads ?limit= and ?offset=.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultPageSize, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > maxPageSize {
			return 0, 0, badRequest("limit must be between 1 and %d", maxPageSize)
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, badRequest("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

func newPagination(total, count, limit, offset int) *PaginationMeta {
	return &PaginationMeta{
		Total:   total,
		Count:   count,
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+count < total,
	}
}

// queryBool parses ?name= as a boolean; a missing value yields def.
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, badRequest("%s must be true or false", name)
	}
	return b, nil
}
