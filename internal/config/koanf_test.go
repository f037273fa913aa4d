// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setRequiredEnv provides the minimum environment Load needs to validate.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("IDENTITY_URL", "https://auth.example.test")
	t.Setenv("IDENTITY_ANON_KEY", "anon-key")
	t.Setenv("AUTOMATION_URL", "http://automation.internal:9000")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %v, want 24h", cfg.Session.TTL)
	}
	if cfg.LogStream.Bus != "memory" {
		t.Errorf("LogStream.Bus = %q, want memory", cfg.LogStream.Bus)
	}
	if cfg.UsesPostgres() {
		t.Error("UsesPostgres() = true with empty DSN")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/app")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ADMIN_EMAILS", "ops@example.com")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if !cfg.UsesPostgres() {
		t.Error("UsesPostgres() = false, want true")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if len(cfg.Identity.AdminEmails) != 1 {
		t.Errorf("AdminEmails = %v", cfg.Identity.AdminEmails)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Session.TTL = %v, want 2h", cfg.Session.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 7000
  cors_origins:
    - https://dash.example
logstream:
  replay_size: 50
  bus: memory
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOGSTREAM_REPLAY_SIZE", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000 from file", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://dash.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.LogStream.ReplaySize != 75 {
		t.Errorf("ReplaySize = %d, want env override 75", cfg.LogStream.ReplaySize)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_STORE", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"DATABASE_URL":       "database.dsn",
		"NATS_URL":           "logstream.nats_url",
		"disable_rate_limit": "security.rate_limit_disabled",
		"HOME":               "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
