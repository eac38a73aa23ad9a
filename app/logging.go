package app

import (
	"io"
	"strings"
	"time"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Style "json" writes one object per
// line; anything else gets the human-readable console writer.
func NewLogger(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if !strings.EqualFold(cfg.Style, "json") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
