// Package search holds the tree search: a static evaluator, a score cache
// keyed by FEN and the alpha-beta driver that ties them together.
//
// Scores are in pawns and always from white's point of view: positive favors
// white, negative favors black, whichever side is to move.
package search

import "github.com/hedmana/chess-analysis-board/app/rules"

var pieceValues = [...]float64{
	rules.NoPieceType: 0,
	rules.Pawn:        1.0,
	rules.Knight:      3.0,
	rules.Bishop:      3.2,
	rules.Rook:        5.0,
	rules.Queen:       9.0,
	rules.King:        0,
}

const (
	centerBonus      = 0.2
	advancedPawn     = 0.1
	mobilityPerMove  = 0.01
	advancedPawnRank = 4 // ranks counted from the pawn's own back rank, 0-based
)

// d3 e3 d4 e4 d5 e5 d6 e6
var centerSquares = map[rules.Square]bool{
	19: true, 20: true,
	27: true, 28: true,
	35: true, 36: true,
	43: true, 44: true,
}

// Evaluation splits a static score into its two components.
type Evaluation struct {
	Material   float64
	Positional float64
}

func (e Evaluation) Total() float64 {
	return e.Material + e.Positional
}

// Centipawns truncates toward zero.
func (e Evaluation) Centipawns() int {
	return int(e.Total() * 100)
}

// Evaluate scores a position without searching.
//
// The mobility term counts the moves of whichever side is to move and is
// added for both colors alike, so it is not zero-sum: the same placement
// scores higher for white when there are more moves available to the mover.
func Evaluate(pos rules.Position) Evaluation {
	var e Evaluation

	for sq := rules.Square(0); sq < 64; sq++ {
		pc, ok := pos.PieceAt(sq)
		if !ok {
			continue
		}
		sign := 1.0
		if pc.Color == rules.Black {
			sign = -1.0
		}

		e.Material += sign * pieceValues[pc.Type]

		switch pc.Type {
		case rules.Knight, rules.Bishop:
			if centerSquares[sq] {
				e.Positional += sign * centerBonus
			}
		case rules.Pawn:
			if relativeRank(sq, pc.Color) >= advancedPawnRank {
				e.Positional += sign * advancedPawn
			}
		}
	}

	e.Positional += mobilityPerMove * float64(len(pos.LegalMoves()))
	return e
}

// Score is Evaluate collapsed to a single number.
func Score(pos rules.Position) float64 {
	return Evaluate(pos).Total()
}

func relativeRank(sq rules.Square, c rules.Color) int {
	if c == rules.White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}
