// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/instadash/config.yaml",
	"/etc/instadash/config.yml",
}

// ConfigPathEnvVar names the variable that points at a config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			Timeout:       30 * time.Second,
			CORSOrigins:   []string{"*"},
			StaticEnabled: true,
			Environment:   "development",
		},
		Database: DatabaseConfig{
			MaxConns:       10,
			MigrateOnStart: true,
		},
		Identity: IdentityConfig{
			Provider:    "hosted",
			JWTAudience: "authenticated",
			Timeout:     10 * time.Second,
		},
		Session: SessionConfig{
			Store:        "memory",
			Path:         "/data/sessions",
			TTL:          24 * time.Hour,
			CookieName:   "instadash_session",
			CookieSecure: true,
			Sliding:      true,
			CleanupEvery: 15 * time.Minute,
		},
		Automation: AutomationConfig{
			Timeout:      15 * time.Second,
			CommandRate:  2,
			CommandBurst: 5,
		},
		LogStream: LogStreamConfig{
			Enabled:      true,
			UpstreamPath: "/logs/stream",
			ReplaySize:   200,
			Bus:          "memory",
			NATSURL:      "nats://127.0.0.1:4222",
			Subject:      "instadash.logs",
			ReconnectMin: 1 * time.Second,
			ReconnectMax: 30 * time.Second,
			Heartbeat:    15 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the config file (if any) and
// the environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"identity.admin_emails",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values that came from YAML are already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"http_host":      "server.host",
	"http_port":      "server.port",
	"server_timeout": "server.timeout",
	"cors_origins":   "server.cors_origins",
	"static_enabled": "server.static_enabled",
	"environment":    "server.environment",

	"database_url":              "database.dsn",
	"database_max_conns":        "database.max_conns",
	"database_migrate_on_start": "database.migrate_on_start",

	"identity_provider":         "identity.provider",
	"identity_url":              "identity.url",
	"identity_anon_key":         "identity.anon_key",
	"identity_jwt_secret":       "identity.jwt_secret",
	"identity_jwt_audience":     "identity.jwt_audience",
	"admin_emails":              "identity.admin_emails",
	"local_admin_email":         "identity.local_email",
	"local_admin_password_hash": "identity.local_password_hash",
	"identity_timeout":          "identity.timeout",

	"session_store":            "session.store",
	"session_path":             "session.path",
	"session_ttl":              "session.ttl",
	"session_cookie_name":      "session.cookie_name",
	"session_cookie_secure":    "session.cookie_secure",
	"session_sliding":          "session.sliding",
	"session_cleanup_interval": "session.cleanup_interval",

	"automation_url":           "automation.url",
	"automation_token":         "automation.token",
	"automation_timeout":       "automation.timeout",
	"automation_command_rate":  "automation.command_rate",
	"automation_command_burst": "automation.command_burst",

	"logstream_enabled":       "logstream.enabled",
	"logstream_upstream_path": "logstream.upstream_path",
	"logstream_replay_size":   "logstream.replay_size",
	"logstream_bus":           "logstream.bus",
	"nats_url":                "logstream.nats_url",
	"logstream_subject":       "logstream.subject",
	"logstream_reconnect_min": "logstream.reconnect_min",
	"logstream_reconnect_max": "logstream.reconnect_max",
	"logstream_heartbeat":     "logstream.heartbeat",

	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its koanf path, e.g.
// DATABASE_URL -> database.dsn. Returning "" drops the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
