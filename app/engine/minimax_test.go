package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hedmana/chess-analysis-board/app/config"
	"github.com/hedmana/chess-analysis-board/app/models"
	"github.com/hedmana/chess-analysis-board/app/rules"
	"github.com/hedmana/chess-analysis-board/app/search"
)

const (
	backRankMate = "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"
	foolsMate    = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	stalemate    = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
)

func TestMinimaxBestMoveFindsMate(t *testing.T) {
	for _, p := range []rules.Provider{rules.Notnil{}, rules.Dragontooth{}} {
		eng := NewMinimax(p, 2, search.ReplaceAlways)
		move, err := eng.BestMove(context.Background(), backRankMate)
		if err != nil {
			t.Fatalf("%s: BestMove error: %v", p.Name(), err)
		}
		if move != "a1a8" {
			t.Fatalf("%s: BestMove = %q, want a1a8", p.Name(), move)
		}
	}
}

func TestMinimaxNoMove(t *testing.T) {
	eng := NewMinimax(nil, 3, search.ReplaceAlways)
	for _, fen := range []string{foolsMate, stalemate} {
		move, err := eng.BestMove(context.Background(), fen)
		if err != nil || move != NoMove {
			t.Fatalf("BestMove(%s) = (%q,%v), want NoMove", fen, move, err)
		}

		a, err := eng.Analyze(context.Background(), fen)
		if err != nil {
			t.Fatalf("Analyze(%s) error: %v", fen, err)
		}
		if a.BestMove != nil || a.TopMoves == nil || len(a.TopMoves) != 0 {
			t.Fatalf("Analyze(%s) = %+v, want no move and empty top moves", fen, a)
		}
	}
}

func TestMinimaxInvalidFEN(t *testing.T) {
	eng := NewMinimax(rules.Notnil{}, 2, search.ReplaceAlways)
	if _, err := eng.BestMove(context.Background(), "not a fen"); !errors.Is(err, rules.ErrInvalidFEN) {
		t.Fatalf("BestMove error = %v, want ErrInvalidFEN", err)
	}
	if _, err := eng.Analyze(context.Background(), "8/8/8/8/8/8/8/8 w - - 0 1"); !errors.Is(err, rules.ErrInvalidFEN) {
		t.Fatalf("Analyze error = %v, want ErrInvalidFEN", err)
	}
}

func TestMinimaxAnalyzeReportsStaticEvaluation(t *testing.T) {
	eng := NewMinimax(rules.Notnil{}, 2, search.ReplaceAlways)
	a, err := eng.Analyze(context.Background(), backRankMate)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	pos, _ := rules.Notnil{}.Parse(backRankMate)
	want := models.Evaluation{Type: models.EvalCentipawns, Value: search.Evaluate(pos).Centipawns()}
	if a.Evaluation != want {
		t.Fatalf("evaluation = %+v, want %+v", a.Evaluation, want)
	}
	if len(a.TopMoves) != 1 || a.TopMoves[0] != (models.TopMove{From: "a1", To: "a8", Notation: "a1a8"}) {
		t.Fatalf("top moves = %+v", a.TopMoves)
	}
}

func TestMinimaxCacheLifecycle(t *testing.T) {
	eng := NewMinimax(rules.Notnil{}, 2, search.ReplaceDeeper)
	if _, err := eng.BestMove(context.Background(), rules.Start); err != nil {
		t.Fatalf("BestMove error: %v", err)
	}
	if eng.CacheSize() == 0 {
		t.Fatalf("cache should be populated after a search")
	}
	if eng.Stats().Nodes == 0 {
		t.Fatalf("stats should count visited nodes")
	}

	// a second call reuses the cache and must agree with the first
	first, _ := eng.BestMove(context.Background(), rules.Start)
	if err := eng.NewGame(); err != nil {
		t.Fatalf("NewGame error: %v", err)
	}
	if eng.CacheSize() != 0 {
		t.Fatalf("NewGame should clear the cache, size = %d", eng.CacheSize())
	}
	second, _ := eng.BestMove(context.Background(), rules.Start)
	if first != second {
		t.Fatalf("warm %q and cold %q searches disagree", first, second)
	}
}

func TestNewMinimaxDefaults(t *testing.T) {
	eng := NewMinimax(nil, 0, search.ReplaceAlways)
	if eng.Depth() != DefaultMinimaxDepth || eng.Name() != KindMinimax {
		t.Fatalf("defaults = depth %d name %q", eng.Depth(), eng.Name())
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}

func TestNewSelectsEngine(t *testing.T) {
	cfg := &config.Config{Engine: config.EngineConfig{Kind: "Minimax", MinimaxDepth: 3, Rules: "dragontooth", CachePolicy: "deeper"}}
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	mm, ok := eng.(*Minimax)
	if !ok || mm.Depth() != 3 {
		t.Fatalf("New returned %T %+v", eng, eng)
	}
	if mm.searcher.Cache().Policy() != search.ReplaceDeeper {
		t.Fatalf("cache policy not applied")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []config.EngineConfig{
		{Kind: "alphazero"},
		{Kind: "minimax", Rules: "nope"},
		{Kind: "minimax", CachePolicy: "sometimes"},
		{Kind: "stockfish", Path: "/definitely/not/an/engine"},
	}
	for _, ec := range cases {
		if _, err := New(&config.Config{Engine: ec}); err == nil {
			t.Fatalf("New(%+v) should fail", ec)
		}
	}
	if _, err := New(&config.Config{Engine: config.EngineConfig{Kind: "alphazero"}}); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("unknown kind error = %v, want ErrUnknownEngine", err)
	}
}
