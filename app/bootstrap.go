package app

import (
	"context"
	"fmt"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/engine"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewServerFromConfig builds the engine and, when both a database and a
// queue are configured, the batch job backends. The returned cleanup
// releases everything that was opened.
func NewServerFromConfig(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, func(), error) {
	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}
	closers := []func() error{eng.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	log.Info().Str("engine", eng.Name()).Msg("engine ready")

	var opts []Option
	if cfg.DB.Enabled() && cfg.QueueURL != "" {
		store, err := OpenStore(ctx, cfg.DB)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, store.Close)

		queue, err := NewQueueClient(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, WithJobs(store, queue))
		log.Info().Str("queue", cfg.QueueURL).Msg("batch jobs enabled")
	}

	return NewServer(cfg, log, eng, opts...), cleanup, nil
}
