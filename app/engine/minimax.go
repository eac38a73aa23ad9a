package engine

import (
	"context"

	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/rules"
	"github.com/hedmana/chess-analysis-board/app/search"
)

const DefaultMinimaxDepth = 4

// Minimax is the in-process engine. Its score cache lives as long as the
// instance and is reused across calls.
type Minimax struct {
	rules    rules.Provider
	depth    int
	searcher *search.Searcher
}

func NewMinimax(provider rules.Provider, depth int, policy search.ReplacePolicy) *Minimax {
	if provider == nil {
		provider = rules.Notnil{}
	}
	if depth < 1 {
		depth = DefaultMinimaxDepth
	}
	return &Minimax{
		rules:    provider,
		depth:    depth,
		searcher: search.NewSearcher(search.NewCache(policy)),
	}
}

func (e *Minimax) Name() string { return KindMinimax }
func (e *Minimax) Depth() int   { return e.depth }

// Stats describes the most recent search.
func (e *Minimax) Stats() search.Stats { return e.searcher.Stats() }

func (e *Minimax) CacheSize() int { return e.searcher.Cache().Len() }

// BestMove ignores ctx: a search always runs to completion.
func (e *Minimax) BestMove(_ context.Context, fen string) (string, error) {
	pos, err := e.rules.Parse(fen)
	if err != nil {
		return NoMove, err
	}
	return e.bestMove(pos), nil
}

func (e *Minimax) Analyze(_ context.Context, fen string) (models.Analysis, error) {
	pos, err := e.rules.Parse(fen)
	if err != nil {
		return models.Analysis{}, err
	}

	best := e.bestMove(pos)
	eval := models.Evaluation{
		Type:  models.EvalCentipawns,
		Value: search.Evaluate(pos).Centipawns(),
	}
	return models.NewAnalysis(eval, best), nil
}

func (e *Minimax) bestMove(pos rules.Position) string {
	m, _, ok := e.searcher.BestMove(pos, e.depth)
	if !ok {
		return NoMove
	}
	return m.String()
}

func (e *Minimax) NewGame() error {
	e.searcher.Cache().Clear()
	return nil
}

func (e *Minimax) Close() error { return nil }
