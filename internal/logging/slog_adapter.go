// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package logging

import (
	"context"
	"log/slog"
	"maps"

	"github.com/rs/zerolog"
)

// NewSlogLogger returns an slog.Logger writing through the global zerolog
// logger. The supervisor tree hands it to sutureslog.
func NewSlogLogger() *slog.Logger {
	return slog.New(newSlogHandler(WithComponent("supervisor")))
}

// slogHandler flattens slog attributes into zerolog fields; groups become
// dotted key prefixes.
type slogHandler struct {
	logger zerolog.Logger
	prefix string
	fields map[string]any
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newSlogHandler(logger zerolog.Logger) *slogHandler {
	return &slogHandler{logger: logger, fields: map[string]any{}}
}

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= zerologLevel(level)
}

//nolint:gocritic // slog.Record is passed by value per slog.Handler
func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	fields := maps.Clone(h.fields)
	record.Attrs(func(a slog.Attr) bool {
		addField(fields, h.prefix, a)
		return true
	})
	h.logger.WithLevel(zerologLevel(record.Level)).Fields(fields).Msg(record.Message)
	return nil
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &slogHandler{logger: h.logger, prefix: h.prefix, fields: maps.Clone(h.fields)}
	for _, a := range attrs {
		addField(out.fields, h.prefix, a)
	}
	return out
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &slogHandler{logger: h.logger, prefix: h.prefix + name + ".", fields: h.fields}
}

func addField(fields map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			addField(fields, prefix+a.Key+".", ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fields[prefix+a.Key] = v.Any()
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
