package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/primetimelines/shonacoin/internal/api"
	"github.com/primetimelines/shonacoin/internal/auth"
	"github.com/primetimelines/shonacoin/internal/config"
	"github.com/primetimelines/shonacoin/internal/contribution"
	"github.com/primetimelines/shonacoin/internal/negotiation"
	"github.com/primetimelines/shonacoin/internal/server"
	"github.com/primetimelines/shonacoin/internal/storage"
	"github.com/primetimelines/shonacoin/internal/storage/memory"
	"github.com/primetimelines/shonacoin/internal/storage/sqldb"
	"github.com/primetimelines/shonacoin/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.Init(logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	tokens, err := auth.NewTokenManager([]byte(cfg.Auth.TokenSecret), cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}
	otp := auth.NewOTPService(store, auth.LogNotifier{Logger: logger}, tokens, logger, cfg.Auth.OTPCodeTTL)

	contributions := contribution.NewService(store, logger)
	negotiations := negotiation.NewService(store, logger)

	srv := server.New(cfg.Server.Port, logger, cfg.Server.RequestTimeout)
	api.Mount(srv.Router,
		tokens,
		api.NewAuthHandler(otp),
		api.NewContributionHandler(contributions, negotiations),
		api.NewNegotiationHandler(negotiations))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("shonacoin started",
		slog.Int("port", cfg.Server.Port),
		slog.String("storage", cfg.Storage.Driver))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), nil
	case "sqlite", "sqlite3":
		return sqldb.NewSQLite(cfg.Storage.DSN)
	default:
		return sqldb.New(sqldb.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	}
}
