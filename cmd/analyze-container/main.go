package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hedmana/chess-analysis-board/app"
	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/engine"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger := app.NewLogger(cfg.Logs, os.Stderr)

	if cfg.QueueURL == "" {
		logger.Fatal().Msg("QUEUE_URL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := app.NewQueueClient(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create SQS client")
	}

	var store app.JobStore
	if cfg.DB.Enabled() {
		s, err := app.OpenStore(ctx, cfg.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Postgres")
		}
		defer s.Close()
		store = s
		logger.Info().Msg("connected to Postgres")
	} else {
		logger.Warn().Msg("DB_URL not set; reports will only be logged")
	}

	w := &app.Worker{
		Config: cfg,
		Log:    logger,
		Queue:  queue,
		Store:  store,
		NewEngine: func() (engine.Engine, error) {
			return engine.New(cfg)
		},
		IdleSleep: 2 * time.Second,
	}
	if err := w.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker stopped")
	}
}
