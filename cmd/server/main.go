// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tomtom215/instadash/internal/api"
	"github.com/tomtom215/instadash/internal/auth"
	"github.com/tomtom215/instadash/internal/authz"
	"github.com/tomtom215/instadash/internal/automation"
	"github.com/tomtom215/instadash/internal/config"
	"github.com/tomtom215/instadash/internal/database"
	"github.com/tomtom215/instadash/internal/logging"
	"github.com/tomtom215/instadash/internal/logstream"
	"github.com/tomtom215/instadash/internal/middleware"
	"github.com/tomtom215/instadash/internal/store"
	"github.com/tomtom215/instadash/internal/store/memory"
	"github.com/tomtom215/instadash/internal/supervisor"
	"github.com/tomtom215/instadash/internal/supervisor/services"
	"github.com/tomtom215/instadash/internal/websocket"
	"github.com/tomtom215/instadash/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	automationHealthInterval = 30 * time.Second
	performanceWindow        = 1000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Bool("postgres", cfg.UsesPostgres()).
		Str("identity", cfg.Identity.Provider).
		Str("session_store", cfg.Session.Store).
		Msg("Starting Instadash")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	sessionStore, err := auth.NewSessionStore(&cfg.Session)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	var verifier *auth.TokenVerifier
	if cfg.Identity.JWTSecret != "" {
		verifier, err = auth.NewTokenVerifier(cfg.Identity.JWTSecret, cfg.Identity.JWTAudience, cfg.Identity.AdminEmails)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize bearer token verifier")
		}
		logging.Info().Msg("Bearer token authentication enabled")
	}

	smCfg := auth.SessionMiddlewareConfigFrom(&cfg.Session)
	smCfg.Unauthorized = api.WriteUnauthorized
	smCfg.Forbidden = api.WriteForbidden
	sessions := auth.NewSessionMiddleware(sessionStore, verifier, smCfg)

	identity, err := auth.NewIdentityProvider(&cfg.Identity)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize identity provider")
	}
	lockout := auth.NewLockout(auth.DefaultLockoutConfig())
	authService := auth.NewService(identity, sessions, st.Profiles(), lockout)

	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization policy")
	}

	client := automation.New(&cfg.Automation)
	if !client.Configured() {
		logging.Warn().Msg("Automation backend not configured; account commands will return 503")
	}

	hub := websocket.NewHub()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(auth.NewSessionCleaner(sessionStore, cfg.Session.CleanupEvery).WithLockout(lockout))
	tree.AddStreamingService(hub)
	if client.Configured() {
		watch := automation.NewHealthWatch(client, st.Accounts())
		tree.AddMaintenanceService(services.NewPeriodic("automation-health", automationHealthInterval, watch.Check))
	}

	deps := api.Deps{
		Store:       st,
		Auth:        authService,
		Sessions:    sessions,
		Automation:  client,
		Hub:         hub,
		Performance: middleware.NewPerformanceMonitor(performanceWindow, 0),
		Config:      cfg,
		Version:     version,
	}

	var bus *logstream.Bus
	if cfg.LogStream.Enabled {
		bus, err = logstream.NewBus(&cfg.LogStream)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create log bus")
		}
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing log bus")
			}
		}()

		broker := logstream.NewBroker(bus, cfg.LogStream.ReplaySize)
		tree.AddStreamingService(broker)
		deps.Logs = broker
		logging.Info().Str("bus", bus.Kind()).Int("replay", cfg.LogStream.ReplaySize).Msg("Log streaming enabled")
	}

	handler := api.NewHandler(deps)

	// Status events go through the handler so cached summaries are dropped
	// before the hub is notified.
	if bus != nil && client.Configured() {
		source := logstream.NewSource(logstream.SourceConfig{
			URL:          strings.TrimRight(client.BaseURL(), "/") + cfg.LogStream.UpstreamPath,
			Token:        client.Token(),
			ReconnectMin: cfg.LogStream.ReconnectMin,
			ReconnectMax: cfg.LogStream.ReconnectMax,
		}, bus, logstream.NewStatusApplier(st.Accounts(), handler))
		tree.AddStreamingService(source)
	}

	routerCfg := api.RouterConfig{
		Sessions:   sessions,
		Authz:      authz.NewMiddleware(enforcer),
		Chi:        api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg)),
		Production: cfg.IsProduction(),
		Metrics:    true,
	}
	if cfg.Server.StaticEnabled {
		routerCfg.Static = web.Dist()
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(handler, routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", cfg.Addr()).Msg("Instadash started")

	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor stopped with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor terminated unexpectedly")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Instadash stopped")
}

// openStore returns the Postgres store when a DSN is configured and the
// in-process store otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if !cfg.UsesPostgres() {
		if cfg.IsProduction() {
			logging.Warn().Msg("No database configured; data will be lost on restart")
		}
		return memory.New(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := database.New(connectCtx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	logging.Info().Bool("migrated", cfg.Database.MigrateOnStart).Msg("Connected to Postgres")
	return db, nil
}
