package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"spendlog/internal/backend"
	"spendlog/internal/cache"
	"spendlog/internal/chat"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
	"spendlog/internal/sessions"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(applog.WithComponent(logger, applog.ComponentBackend)).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	directory := sessions.NewDirectory(cfg.SessionTTL, cfg.SessionMaxEntries)
	cacheManager := cache.NewManager(applog.WithComponent(logger, applog.ComponentSessions))
	cacheManager.Register(directory.Cache())
	cacheManager.StartCleanup(time.Minute)

	dispatcher := chat.NewDispatcher(res.Ledger, backendCfg.Location, applog.WithComponent(logger, applog.ComponentChat))

	var stopping atomic.Bool
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:             res.Ledger,
		Sessions:           directory,
		Chat:               dispatcher,
		Location:           backendCfg.Location,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready: func(context.Context) error {
			if stopping.Load() {
				return errors.New("shutting down")
			}
			return nil
		},
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		stopping.Store(true)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Ledger cleanup error", "error", err)
		}
		stats := srv.Stats()
		logger.Info("Server stopped",
			"requests", stats.Requests,
			"rate_limited", stats.RateLimited,
			"suspicious", stats.Suspicious,
			"tenants_opened", res.Registry.Opened())
	})

	logger.Info("Starting spendlog server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", backendCfg.Location.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
