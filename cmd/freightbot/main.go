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

	"github.com/okhomin/freightbot/core/bootstrap"
	coreconfig "github.com/okhomin/freightbot/core/config"
	"github.com/okhomin/freightbot/core/logger"
	coretelegram "github.com/okhomin/freightbot/core/telegram"
	"github.com/okhomin/freightbot/internal/handlers"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("freightbot: %v", err)
	}
}

func run() error {
	// .env is optional; real deployments configure via environment.
	_ = godotenv.Load()

	cfg, err := coreconfig.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Error(logger.Background(), "app", "infra.close_failed",
				slog.String("err", err.Error()),
			)
		}
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	app, err := handlers.NewApp(cfg, infra.DB, infra.Redis)
	if err != nil {
		return err
	}

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return err
	}

	startedAt := time.Now()
	runOpts.OnStart = func(ctx context.Context, _ coretelegram.Runtime) error {
		logger.Info(ctx, "app", "ready",
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}
	runOpts.OnStop = func(ctx context.Context, _ coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		return nil
	}

	return coretelegram.RunTelegram(ctx, runOpts)
}
