package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/engine"
	"github.com/hedmana/chess-analysis-board/app/models"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
)

const (
	InaccuracyThreshold = 50  // 0.50 pawns
	MistakeThreshold    = 100 // 1.00 pawns
	BlunderThreshold    = 200 // 2.00 pawns
	SuboptimalThreshold = 30
)

var ErrNoPositions = errors.New("no positions to analyze")

// EngineFactory builds a fresh engine. Batch analysis calls it once per worker.
type EngineFactory func() (engine.Engine, error)

// PositionsFromFENs wraps a plain list of FENs as batch input.
func PositionsFromFENs(fens []string) []models.PositionReport {
	out := make([]models.PositionReport, 0, len(fens))
	for i, fen := range fens {
		side, moveNumber := fenInfo(fen)
		out = append(out, models.PositionReport{
			Index:      i,
			MoveNumber: moveNumber,
			SideToMove: side,
			FEN:        fen,
		})
	}
	return out
}

// PositionsFromPGN expands a game into every position it passes through,
// including the final one. Each position but the last carries the move
// that was played from it.
func PositionsFromPGN(pgn string) ([]models.PositionReport, error) {
	g := chess.NewGame()
	if err := g.UnmarshalText([]byte(NormalizeChessDotComPGN(pgn))); err != nil {
		return nil, fmt.Errorf("parse pgn: %w", err)
	}
	positions := g.Positions()
	moves := g.Moves()

	out := make([]models.PositionReport, 0, len(positions))
	for i, p := range positions {
		fen := p.String()
		side, moveNumber := fenInfo(fen)
		r := models.PositionReport{
			Index:      i,
			MoveNumber: moveNumber,
			SideToMove: side,
			FEN:        fen,
		}
		if i < len(moves) {
			r.Played = chess.UCINotation{}.Encode(p, moves[i])
		}
		out = append(out, r)
	}
	return out, nil
}

// PositionsFromJob turns a queued job (or job request) into batch input.
func PositionsFromJob(fens []string, pgn string) ([]models.PositionReport, error) {
	switch {
	case pgn != "" && len(fens) > 0:
		return nil, errors.New("send either fens or pgn, not both")
	case pgn != "":
		return PositionsFromPGN(pgn)
	case len(fens) > 0:
		return PositionsFromFENs(fens), nil
	}
	return nil, ErrNoPositions
}

// AnalyzeBatch analyzes positions on cfg.Workers goroutines, each owning
// one engine. Every engine is created before any work starts; if one
// fails, nothing is analyzed. Results keep the input order. A per-position
// failure is recorded on its report and does not stop the batch.
func AnalyzeBatch(ctx context.Context, cfg *config.Config, log zerolog.Logger, newEngine EngineFactory, positions []models.PositionReport) ([]models.PositionReport, error) {
	if len(positions) == 0 {
		return nil, ErrNoPositions
	}
	start := time.Now()

	numWorkers := cfg.Workers
	if numWorkers > len(positions) {
		numWorkers = len(positions)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	engines := make([]engine.Engine, 0, numWorkers)
	defer func() {
		for _, eng := range engines {
			_ = eng.Close()
		}
	}()
	for i := 0; i < numWorkers; i++ {
		eng, err := newEngine()
		if err != nil {
			return nil, fmt.Errorf("worker %d: failed to create engine: %w", i, err)
		}
		engines = append(engines, eng)
	}

	log.Info().Int("positions", len(positions)).Int("workers", numWorkers).Msg("analyzing batch")

	results := make([]models.PositionReport, len(positions))
	copy(results, positions)

	jobs := make(chan int)
	var wg sync.WaitGroup

	// Start workers
	for id, eng := range engines {
		wg.Add(1)
		go func(id int, eng engine.Engine) {
			defer wg.Done()
			if err := eng.NewGame(); err != nil {
				log.Warn().Err(err).Int("worker", id).Msg("new game failed")
			}
			for i := range jobs {
				analyzeOne(ctx, cfg.Engine.Timeout, eng, &results[i])
				if results[i].Error != "" {
					log.Warn().Int("worker", id).Int("index", i).Str("fen", results[i].FEN).Str("error", results[i].Error).Msg("position failed")
				}
			}
		}(id, eng)
	}

	// Feed jobs
	go func() {
		defer close(jobs)
		for i := range results {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Analysis == nil && results[i].Error == "" {
				results[i].Error = err.Error()
			}
		}
		return results, err
	}

	ClassifyMoves(results)

	log.Info().Int("positions", len(results)).Dur("took", time.Since(start)).Msg("batch complete")
	return results, nil
}

func analyzeOne(ctx context.Context, timeout time.Duration, eng engine.Engine, r *models.PositionReport) {
	start := time.Now()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a, err := eng.Analyze(ctx, r.FEN)
	r.Engine = eng.Name()
	r.TookMS = time.Since(start).Milliseconds()
	if err != nil {
		r.Error = err.Error()
		return
	}
	r.Analysis = &a
}

// ClassifyMoves judges each played move by how much the evaluation moved
// against the player between its position and the next one. Mate scores
// and failed positions are skipped.
func ClassifyMoves(reports []models.PositionReport) {
	for i := 0; i+1 < len(reports); i++ {
		before, after := &reports[i], reports[i+1]
		if before.Played == "" || after.Index != before.Index+1 {
			continue
		}
		if !isCentipawns(before.Analysis) || !isCentipawns(after.Analysis) {
			continue
		}
		loss, judgement := JudgeMove(before.SideToMove, before.Analysis.Evaluation.Value, after.Analysis.Evaluation.Value)
		before.CPLoss = loss
		before.Judgement = judgement
	}
}

func isCentipawns(a *models.Analysis) bool {
	return a != nil && a.Evaluation.Type == models.EvalCentipawns
}

// JudgeMove takes white-positive evaluations before and after a move by
// color ("w" or "b") and returns the centipawns lost and the verdict, if any.
func JudgeMove(color string, cpBefore, cpAfter int) (int, string) {
	var delta int
	if color == "w" {
		// White moved → if cpAfter < cpBefore, move was bad for White
		delta = cpAfter - cpBefore
	} else {
		// Black moved → good moves DECREASE cpAfter
		delta = cpBefore - cpAfter
	}

	loss := 0
	if delta < 0 {
		loss = -delta
	}

	switch {
	case loss >= BlunderThreshold:
		return loss, models.JudgementBlunder
	case loss >= MistakeThreshold:
		return loss, models.JudgementMistake
	case loss >= InaccuracyThreshold:
		return loss, models.JudgementInaccuracy
	case loss >= SuboptimalThreshold:
		return loss, models.JudgementSuboptimal
	}
	return loss, ""
}
