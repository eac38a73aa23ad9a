package main

import (
	"context"
	"os"

	"github.com/hedmana/chess-analysis-board/app"
	"github.com/hedmana/chess-analysis-board/app/config"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logger := app.NewLogger(cfg.Logs, os.Stderr)

	srv, cleanup, err := app.NewServerFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize server")
	}
	defer cleanup()

	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := app.NewRouter(srv).Run(cfg.HTTP.Addr); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
}
