// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package config loads Instadash configuration from struct defaults, an
// optional YAML file and environment variables, in that order of precedence.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Identity   IdentityConfig   `koanf:"identity"`
	Session    SessionConfig    `koanf:"session"`
	Automation AutomationConfig `koanf:"automation"`
	LogStream  LogStreamConfig  `koanf:"logstream"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists the origins allowed to call the API and open the
	// websocket. "*" allows any origin and disables credentialed CORS.
	CORSOrigins []string `koanf:"cors_origins"`

	// StaticEnabled serves the embedded dashboard UI on "/".
	StaticEnabled bool `koanf:"static_enabled"`

	// Environment is "development" or "production". Production turns on
	// stricter validation (secure cookies, no wildcard CORS).
	Environment string `koanf:"environment"`
}

// DatabaseConfig points at the hosted Postgres instance. An empty DSN keeps
// every row in process memory, which is only suitable for development.
type DatabaseConfig struct {
	DSN            string `koanf:"dsn"`
	MaxConns       int32  `koanf:"max_conns"`
	MigrateOnStart bool   `koanf:"migrate_on_start"`
}

// IdentityConfig selects how dashboard users sign in.
type IdentityConfig struct {
	// Provider is "hosted" (the managed auth backend) or "local" (a single
	// bcrypt-protected development account).
	Provider string `koanf:"provider"`

	// URL is the managed backend's base URL, e.g. https://xyz.example.co.
	URL string `koanf:"url"`

	// AnonKey is the public API key sent as the apikey header.
	AnonKey string `koanf:"anon_key"`

	// JWTSecret verifies access tokens presented as Bearer credentials.
	// Bearer auth is disabled when empty.
	JWTSecret   string `koanf:"jwt_secret"`
	JWTAudience string `koanf:"jwt_audience"`

	// AdminEmails are granted the admin role at login.
	AdminEmails []string `koanf:"admin_emails"`

	LocalEmail        string `koanf:"local_email"`
	LocalPasswordHash string `koanf:"local_password_hash"`

	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig controls dashboard sessions.
type SessionConfig struct {
	// Store is "memory" or "badger".
	Store        string        `koanf:"store"`
	Path         string        `koanf:"path"`
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
	Sliding      bool          `koanf:"sliding"`
	CleanupEvery time.Duration `koanf:"cleanup_interval"`
}

// AutomationConfig locates the external automation backend.
type AutomationConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`

	// CommandRate and CommandBurst throttle commands sent to the backend,
	// which in turn drives Instagram sessions.
	CommandRate  float64 `koanf:"command_rate"`
	CommandBurst int     `koanf:"command_burst"`
}

// LogStreamConfig controls ingestion and fan-out of automation logs.
type LogStreamConfig struct {
	Enabled      bool          `koanf:"enabled"`
	UpstreamPath string        `koanf:"upstream_path"`
	ReplaySize   int           `koanf:"replay_size"`
	Bus          string        `koanf:"bus"`
	NATSURL      string        `koanf:"nats_url"`
	Subject      string        `koanf:"subject"`
	ReconnectMin time.Duration `koanf:"reconnect_min"`
	ReconnectMax time.Duration `koanf:"reconnect_max"`
	Heartbeat    time.Duration `koanf:"heartbeat"`
}

// SecurityConfig holds request throttling settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsProduction reports whether production checks apply.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// UsesPostgres reports whether a database DSN was configured.
func (c *Config) UsesPostgres() bool {
	return c.Database.DSN != ""
}
