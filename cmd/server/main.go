// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tomtom215/botsentry/internal/api"
	"github.com/tomtom215/botsentry/internal/config"
	"github.com/tomtom215/botsentry/internal/detective"
	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/supervisor"
	"github.com/tomtom215/botsentry/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("BotSentry stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires the detective service, HTTP API and supervisor tree, and
// blocks until ctx is cancelled or the tree gives up.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("addr", listenAddr(cfg)).
		Bool("admin_configured", cfg.Security.AdminConfigured()).
		Bool("expose_label", cfg.Detective.ExposeLabel).
		Str("upstream", cfg.Server.Upstream).
		Msg("Starting BotSentry")

	if !cfg.Security.AdminConfigured() {
		logging.Warn().Msg("No ADMIN_KEY or ADMIN_KEY_HASH set; admin endpoints will reject every request")
	}

	svc, err := detective.New(cfg.Detective.ServiceConfig())
	if err != nil {
		return fmt.Errorf("create detective service: %w", err)
	}

	server, err := newHTTPServer(cfg, svc)
	if err != nil {
		svc.Close()
		return err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		svc.Close()
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDetectionService(services.NewCleanupService(svc.Cleanup()))
	tree.AddDetectionService(services.NewCloserService("detective-service", svc.Close))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var runErr error
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
		runErr = err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}
	return runErr
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
}

// newHTTPServer builds the router and the http.Server around it.
func newHTTPServer(cfg *config.Config, svc api.Detective) (*http.Server, error) {
	site, err := api.NewSiteHandler(cfg.Server.Upstream)
	if err != nil {
		return nil, fmt.Errorf("configure upstream: %w", err)
	}

	handler := api.NewHandler(svc, api.NewAdminAuth(cfg.Security.AdminKey, cfg.Security.AdminKeyHash))
	router := api.NewRouter(handler, api.RouterConfig{
		Middleware:  middlewareConfig(cfg),
		ExposeLabel: cfg.Detective.ExposeLabel,
		Site:        site,
	})

	return &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func middlewareConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	m := api.DefaultChiMiddlewareConfig()
	m.CORSAllowedOrigins = cfg.Security.CORSOrigins
	m.RateLimitRequests = cfg.Security.RateLimitReqs
	m.RateLimitWindow = cfg.Security.RateLimitWindow
	m.RateLimitDisabled = cfg.Security.RateLimitDisabled
	m.ProofRateLimitRequests = cfg.Security.ProofRateLimitReqs
	return m
}
