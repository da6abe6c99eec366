package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nesi-market/nesi/internal/app/digest"
	"github.com/nesi-market/nesi/internal/config"
	"github.com/nesi-market/nesi/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := setupLogger(cfg)

	logger.Info("starting notification digest", slog.String("env", cfg.Env), slog.String("schedule", cfg.DigestSchedule))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := digest.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize digest app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("digest app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("digest app stopped gracefully")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
