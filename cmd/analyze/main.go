// Command analyze runs batch analysis locally and prints one JSON report
// per position on stdout.
//
//	analyze [-depth N] [-workers N] FEN...
//	analyze -file positions.txt   (one FEN per line)
//	analyze -pgn game.pgn
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hedmana/chess-analysis-board/app"
	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/engine"
	"github.com/hedmana/chess-analysis-board/app/models"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "", "read FENs from this file, one per line")
	pgnFile := flag.String("pgn", "", "analyze every position of the game in this PGN file")
	depth := flag.Int("depth", 0, "override MINIMAX_DEPTH")
	workers := flag.Int("workers", 0, "override WORKERS")
	flag.Parse()

	start := time.Now()
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	if *depth > 0 {
		cfg.Engine.MinimaxDepth = *depth
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	logger := app.NewLogger(cfg.Logs, os.Stderr)

	positions, err := readPositions(*file, *pgnFile, flag.Args())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to read positions")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports, err := app.AnalyzeBatch(ctx, cfg, logger, func() (engine.Engine, error) {
		return engine.New(cfg)
	}, positions)
	if err != nil && reports == nil {
		logger.Fatal().Err(err).Msg("analysis failed")
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range reports {
		if err := enc.Encode(r); err != nil {
			logger.Fatal().Err(err).Msg("failed to write report")
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg("analysis interrupted")
		os.Exit(1)
	}
	logger.Info().Int("positions", len(reports)).Dur("took", time.Since(start)).Msg("done")
}

func readPositions(file, pgnFile string, args []string) ([]models.PositionReport, error) {
	switch {
	case pgnFile != "":
		b, err := os.ReadFile(pgnFile)
		if err != nil {
			return nil, err
		}
		return app.PositionsFromPGN(string(b))
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var fens []string
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
				fens = append(fens, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return app.PositionsFromJob(fens, "")
	case len(args) > 0:
		return app.PositionsFromFENs(args), nil
	}
	return nil, fmt.Errorf("nothing to analyze: pass FENs, -file or -pgn")
}
