/*
main.go - Loyalty engine entry point

PURPOSE:
  Initializes and starts the loyalty ledger service: configuration,
  logger, platform client, loyalty service, HTTP router, and graceful
  shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and configuration (env vars + optional yaml)
  2. Build the zap logger at the configured level
  3. Create the platform client and loyalty service
  4. Start the HTTP server
  5. On SIGINT/SIGTERM, drain requests for up to 30s and exit

CONFIGURATION:
  SERVER_PORT, SERVER_ADMINTOKEN, PLATFORM_ENDPOINT, PLATFORM_ADMINTOKEN,
  PROGRAM_POINTSPERDOLLAR, PROGRAM_SIGNUPBONUS, LOGLEVEL, ...
  See config/config.go for the full set and defaults. The defaults point
  at a local commerce twin (cmd/twin).
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/api"
	"github.com/meridian/loyalty-engine/config"
	"github.com/meridian/loyalty-engine/loyalty"
	"github.com/meridian/loyalty-engine/platform"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	client := platform.NewClient(
		cfg.Platform.Endpoint,
		cfg.Platform.AdminToken,
		time.Duration(cfg.Platform.TimeoutSeconds)*time.Second,
	)

	svc := loyalty.NewService(client, loyalty.Program{
		PointsPerDollar: cfg.Program.PointsPerDollar,
		SignupBonus:     cfg.Program.SignupBonus,
		SpecialEvent:    cfg.Program.SpecialEvent,
		EventMultiplier: cfg.Program.EventMultiplier,
	}, logger)

	handler := api.NewHandler(svc, cfg.Server.AdminToken)
	router := api.NewRouter(handler, logger, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminToken:     cfg.Server.AdminToken,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("loyalty engine starting",
			zap.String("addr", server.Addr),
			zap.String("platform", cfg.Platform.Endpoint),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl
	return zapcfg.Build()
}
