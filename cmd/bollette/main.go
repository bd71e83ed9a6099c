package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"bollette/internal/auth"
	"bollette/internal/billing"
	"bollette/internal/cli"
	apphttp "bollette/internal/http"
	applog "bollette/internal/log"
	"bollette/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required for the API server")
		os.Exit(1)
	}

	ctx := context.Background()
	store := cli.InitStore(ctx, logger, cfg)

	billService := billing.NewBillService(store.Store, store.AMQP)
	if store.Cleanup != nil {
		billService.SetCloser(store.Cleanup)
	}
	defer billService.Close()

	generator := billing.NewGenerator(store.Store, store.Store, store.AMQP, cfg.DueDays)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	accounts := auth.NewPasswordAuthenticator(store.Store)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Bills:     billService,
		Generator: generator,
		Tokens:    tokens,
		Accounts:  accounts,
		RateLimit: ratelimit.DefaultConfig(),
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer stopCancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting bollette server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
