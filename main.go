package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"telegram-timesheet/internal/app"
	"telegram-timesheet/internal/config"
	"telegram-timesheet/internal/logging"
)

func main() {
	_ = godotenv.Load() // TELEGRAM_BOT_TOKEN etc.

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Production: cfg.IsProduction(),
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("bot stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
