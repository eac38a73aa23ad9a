package search

import (
	"math"

	"github.com/hedmana/chess-analysis-board/app/rules"
)

// Stats counts the work done by the last BestMove call.
type Stats struct {
	Nodes     int
	Leaves    int
	CacheHits int
	Cutoffs   int
}

// Searcher runs a fixed-depth alpha-beta search. Each Searcher owns its
// cache, which persists across calls; it must not be shared between
// goroutines without external locking.
type Searcher struct {
	cache *Cache
	stats Stats
}

// NewSearcher uses cache, or a fresh ReplaceAlways cache when cache is nil.
func NewSearcher(cache *Cache) *Searcher {
	if cache == nil {
		cache = NewCache(ReplaceAlways)
	}
	return &Searcher{cache: cache}
}

func (s *Searcher) Cache() *Cache { return s.cache }
func (s *Searcher) Stats() Stats  { return s.stats }

// BestMove searches every root move to depth plies and returns the best one
// for the side to move: white maximizes, black minimizes. A later move only
// replaces the current choice when it scores strictly better, so ties go to
// the first move in generation order. ok is false when there are no legal
// moves.
func (s *Searcher) BestMove(pos rules.Position, depth int) (best rules.Move, score float64, ok bool) {
	s.stats = Stats{}

	white := pos.Turn() == rules.White
	score = math.Inf(1)
	if white {
		score = math.Inf(-1)
	}

	for _, m := range pos.LegalMoves() {
		childScore := s.Search(pos.Play(m), depth-1, math.Inf(-1), math.Inf(1), !white)
		// the first move is always kept, even when every move loses to mate
		if !ok || (white && childScore > score) || (!white && childScore < score) {
			best, score, ok = m, childScore, true
		}
	}
	return best, score, ok
}

// Search returns the minimax value of pos searched to depth plies, pruned to
// the (alpha, beta) window. maximizing is true when white is to move.
func (s *Searcher) Search(pos rules.Position, depth int, alpha, beta float64, maximizing bool) float64 {
	s.stats.Nodes++

	key := pos.FEN()
	if score, ok := s.cache.Lookup(key, depth, alpha, beta); ok {
		s.stats.CacheHits++
		return score
	}

	// terminal positions are scored before the horizon so a mate on the
	// last ply is still seen as a mate
	switch pos.Status() {
	case rules.Checkmate:
		score := math.Inf(1)
		if maximizing {
			score = math.Inf(-1)
		}
		s.cache.Store(key, Entry{Depth: depth, Score: score, Bound: Exact})
		return score
	case rules.Stalemate, rules.InsufficientMaterial:
		s.cache.Store(key, Entry{Depth: depth, Score: 0, Bound: Exact})
		return 0
	}

	if depth <= 0 {
		s.stats.Leaves++
		score := Score(pos)
		s.cache.Store(key, Entry{Depth: 0, Score: score, Bound: Exact})
		return score
	}

	origAlpha, origBeta := alpha, beta
	var best float64

	if maximizing {
		best = math.Inf(-1)
		for _, m := range pos.LegalMoves() {
			score := s.Search(pos.Play(m), depth-1, alpha, beta, false)
			best = math.Max(best, score)
			alpha = math.Max(alpha, score)
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
	} else {
		best = math.Inf(1)
		for _, m := range pos.LegalMoves() {
			score := s.Search(pos.Play(m), depth-1, alpha, beta, true)
			best = math.Min(best, score)
			beta = math.Min(beta, score)
			if beta <= alpha {
				s.stats.Cutoffs++
				break
			}
		}
	}

	s.cache.Store(key, Entry{Depth: depth, Score: best, Bound: boundOf(best, origAlpha, origBeta)})
	return best
}

func boundOf(score, alpha, beta float64) Bound {
	switch {
	case score <= alpha:
		return Upper
	case score >= beta:
		return Lower
	}
	return Exact
}
