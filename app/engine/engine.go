// Package engine exposes move selection and position analysis behind one
// interface, implemented either by the in-process minimax search or by an
// external UCI engine such as Stockfish.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/rules"
	"github.com/hedmana/chess-analysis-board/app/search"
)

// NoMove is returned by BestMove when the side to move has no legal moves.
// It is not an error.
const NoMove = ""

const (
	KindMinimax   = "minimax"
	KindStockfish = "stockfish"
	KindUCI       = "uci"
)

var (
	ErrNotReady      = errors.New("engine not ready")
	ErrUnknownEngine = errors.New("unknown engine")
)

// Engine instances are not safe for concurrent use; give each goroutine its
// own or serialize calls.
type Engine interface {
	Name() string
	// BestMove returns the chosen move in UCI notation, or NoMove.
	BestMove(ctx context.Context, fen string) (string, error)
	Analyze(ctx context.Context, fen string) (models.Analysis, error)
	// NewGame drops any state carried over from earlier positions.
	NewGame() error
	Close() error
}

// New builds the engine selected by cfg.Engine.Kind.
func New(cfg *config.Config) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine.Kind)) {
	case "", KindMinimax:
		provider, err := rules.ProviderByName(cfg.Engine.Rules)
		if err != nil {
			return nil, err
		}
		policy, err := search.ParseReplacePolicy(cfg.Engine.CachePolicy)
		if err != nil {
			return nil, err
		}
		return NewMinimax(provider, cfg.Engine.MinimaxDepth, policy), nil
	case KindStockfish, KindUCI:
		settings := models.EngineSettings{
			Depth:      cfg.Engine.Depth,
			MoveTimeMS: cfg.Engine.MoveTime,
			UseDepth:   cfg.Engine.DepthOrTime,
		}
		return NewUCIEngine(cfg.Engine.Path, settings)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine.Kind)
}
