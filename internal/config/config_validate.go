// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/instadash/internal/logging"
)

// Validate checks the loaded configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateAutomation(); err != nil {
		return err
	}
	if err := c.validateLogStream(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be 'development' or 'production', got %q", c.Server.Environment)
	}
	if c.IsProduction() {
		for _, o := range c.Server.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must list explicit origins in production")
			}
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.DSN == "" {
		return nil
	}
	if !strings.HasPrefix(c.Database.DSN, "postgres://") && !strings.HasPrefix(c.Database.DSN, "postgresql://") &&
		!strings.Contains(c.Database.DSN, "host=") {
		return fmt.Errorf("DATABASE_URL must be a postgres URL or key/value DSN")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("DATABASE_MAX_CONNS must be at least 1")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.Provider {
	case "hosted":
		if err := validateHTTPURL("IDENTITY_URL", c.Identity.URL); err != nil {
			return err
		}
		if c.Identity.AnonKey == "" {
			return fmt.Errorf("IDENTITY_ANON_KEY is required for the hosted identity provider")
		}
	case "local":
		if c.Identity.LocalEmail == "" || c.Identity.LocalPasswordHash == "" {
			return fmt.Errorf("LOCAL_ADMIN_EMAIL and LOCAL_ADMIN_PASSWORD_HASH are required for the local identity provider")
		}
		if !strings.HasPrefix(c.Identity.LocalPasswordHash, "$2") {
			return fmt.Errorf("LOCAL_ADMIN_PASSWORD_HASH must be a bcrypt hash")
		}
		if c.IsProduction() {
			return fmt.Errorf("the local identity provider is not allowed in production")
		}
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be 'hosted' or 'local', got %q", c.Identity.Provider)
	}
	if c.Identity.JWTSecret != "" && len(c.Identity.JWTSecret) < 32 {
		return fmt.Errorf("IDENTITY_JWT_SECRET must be at least 32 characters")
	}
	return nil
}

func (c *Config) validateSession() error {
	switch c.Session.Store {
	case "memory":
	case "badger":
		if c.Session.Path == "" {
			return fmt.Errorf("SESSION_PATH is required for the badger session store")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be 'memory' or 'badger', got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.IsProduction() && !c.Session.CookieSecure {
		return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
	}
	return nil
}

func (c *Config) validateAutomation() error {
	if c.Automation.URL == "" {
		if c.LogStream.Enabled {
			return fmt.Errorf("AUTOMATION_URL is required when the log stream is enabled")
		}
		return nil
	}
	if err := validateHTTPURL("AUTOMATION_URL", c.Automation.URL); err != nil {
		return err
	}
	if c.Automation.Timeout <= 0 {
		return fmt.Errorf("AUTOMATION_TIMEOUT must be positive")
	}
	if c.Automation.CommandRate <= 0 || c.Automation.CommandBurst < 1 {
		return fmt.Errorf("AUTOMATION_COMMAND_RATE must be positive and AUTOMATION_COMMAND_BURST at least 1")
	}
	return nil
}

func (c *Config) validateLogStream() error {
	if !c.LogStream.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.LogStream.UpstreamPath, "/") {
		return fmt.Errorf("LOGSTREAM_UPSTREAM_PATH must start with '/'")
	}
	if c.LogStream.ReplaySize < 0 || c.LogStream.ReplaySize > 10000 {
		return fmt.Errorf("LOGSTREAM_REPLAY_SIZE must be between 0 and 10000")
	}
	switch c.LogStream.Bus {
	case "memory":
	case "nats":
		if !strings.HasPrefix(c.LogStream.NATSURL, "nats://") && !strings.HasPrefix(c.LogStream.NATSURL, "tls://") {
			return fmt.Errorf("NATS_URL must use nats:// or tls://")
		}
	default:
		return fmt.Errorf("LOGSTREAM_BUS must be 'memory' or 'nats', got %q", c.LogStream.Bus)
	}
	if c.LogStream.Subject == "" {
		return fmt.Errorf("LOGSTREAM_SUBJECT must not be empty")
	}
	if c.LogStream.ReconnectMin <= 0 || c.LogStream.ReconnectMax < c.LogStream.ReconnectMin {
		return fmt.Errorf("LOGSTREAM_RECONNECT_MIN must be positive and not exceed LOGSTREAM_RECONNECT_MAX")
	}
	if c.LogStream.Heartbeat <= 0 {
		return fmt.Errorf("LOGSTREAM_HEARTBEAT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}
