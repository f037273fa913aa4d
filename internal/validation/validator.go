// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package validation wraps a singleton go-playground/validator with the
// custom tags the API needs and turns its errors into field-level messages.
//
//	type createAccountRequest struct {
//	    Username    string `json:"username" validate:"required,igusername"`
//	    DisplayName string `json:"display_name" validate:"max=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // verr.Fields() -> [{Field: "username", Tag: "igusername", Message: ...}]
//	}
//
// Field names are reported by their json tag, so messages match the request
// body the client sent.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// RequestValidationError collects every failed rule of one struct.
type RequestValidationError struct {
	fields []FieldError
}

// Fields returns the individual failures.
func (e *RequestValidationError) Fields() []FieldError {
	return e.fields
}

func (e *RequestValidationError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.fields))
	for i, f := range e.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Details is the error.details payload of a VALIDATION_ERROR response.
func (e *RequestValidationError) Details() map[string]any {
	return map[string]any{"fields": e.fields}
}

// Get returns the shared validator, registering custom tags on first use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		if err := validate.RegisterValidation("igusername", validateInstagramUsername); err != nil {
			panic(fmt.Sprintf("register igusername: %v", err))
		}
		if err := validate.RegisterValidation("nodeid", validateNodeID); err != nil {
			panic(fmt.Sprintf("register nodeid: %v", err))
		}
	})
	return validate
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// ValidateStruct returns nil when s passes, otherwise the collected failures.
func ValidateStruct(s any) *RequestValidationError {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &RequestValidationError{fields: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}}}
	}
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: translate(fe),
		}
	}
	return &RequestValidationError{fields: fields}
}

// ValidateVar checks a single value against tag.
func ValidateVar(v any, tag string) error {
	return Get().Var(v, tag)
}

// ValidInstagramUsername reports whether s is an acceptable Instagram handle:
// 1 to 30 letters, digits, dots and underscores, not starting or ending
// with a dot.
func ValidInstagramUsername(s string) bool {
	if s == "" || len(s) > 30 {
		return false
	}
	if s[0] == '.' || s[len(s)-1] == '.' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_':
		default:
			return false
		}
	}
	return true
}

func validateInstagramUsername(fl validator.FieldLevel) bool {
	return ValidInstagramUsername(fl.Field().String())
}

// nodeid: editor-generated ids, 1 to 64 chars of [A-Za-z0-9_-].
func validateNodeID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

var messages = map[string]string{
	"required":   "%s is required",
	"email":      "%s must be a valid email address",
	"url":        "%s must be a valid URL",
	"http_url":   "%s must be a valid http(s) URL",
	"uuid":       "%s must be a UUID",
	"igusername": "%s must be 1-30 letters, digits, '.' or '_' and may not start or end with '.'",
	"nodeid":     "%s must be 1-64 letters, digits, '_' or '-'",
}

var messagesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field := fe.Field()
	if t, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(t, field)
	}
	if t, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(t, field, fe.Param())
	}

	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Map:
		unit = " items"
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, fe.Param(), unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, fe.Param(), unit)
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s", field, fe.Param(), unit)
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
