// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package api

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/tomtom215/instadash/internal/logging"
)

// staticHandler serves the dashboard UI from files, falling back to
// index.html for client-side routes.
type staticHandler struct {
	files  fs.FS
	server http.Handler
}

func newStaticHandler(files fs.FS) *staticHandler {
	return &staticHandler{files: files, server: http.FileServerFS(files)}
}

func (s *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	setStaticCacheControl(w, p)

	if p != "/" && p != "/index.html" && s.exists(strings.TrimPrefix(p, "/")) {
		s.server.ServeHTTP(w, r)
		return
	}
	s.serveIndex(w, r)
}

func (s *staticHandler) exists(name string) bool {
	info, err := fs.Stat(s.files, name)
	return err == nil && !info.IsDir()
}

func (s *staticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	index, err := fs.ReadFile(s.files, "index.html")
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Embedded index.html missing")
		writeNotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(index)
	}
}

func setStaticCacheControl(w http.ResponseWriter, p string) {
	switch path.Ext(p) {
	case ".js", ".css":
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	case ".png", ".svg", ".jpg", ".webp", ".avif", ".ico":
		w.Header().Set("Cache-Control", "public, max-age=604800")
	case ".json":
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}
}
