package rules

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// Dragontooth backs positions with the bitboard generator
// github.com/dylhunn/dragontoothmg. It is considerably faster than notnil.
type Dragontooth struct{}

func (Dragontooth) Name() string { return ProviderDragontooth }

func (Dragontooth) Parse(fen string) (pos Position, err error) {
	defer recoverParse(&err)

	normalized, err := normalizeFEN(fen)
	if err != nil {
		return nil, err
	}
	return &dragonPosition{board: dragontoothmg.ParseFen(normalized)}, nil
}

type dragonPosition struct {
	board dragontoothmg.Board
}

func (p *dragonPosition) FEN() string { return p.board.ToFen() }

func (p *dragonPosition) Turn() Color {
	if p.board.Wtomove {
		return White
	}
	return Black
}

func (p *dragonPosition) LegalMoves() []Move {
	generated := p.board.GenerateLegalMoves()
	moves := make([]Move, 0, len(generated))
	for _, m := range generated {
		moves = append(moves, fromDragonMove(m))
	}
	return moves
}

func (p *dragonPosition) Play(m Move) Position {
	for _, dm := range p.board.GenerateLegalMoves() {
		if fromDragonMove(dm) == m {
			// Board holds no references, so the copy is independent
			next := p.board
			next.Apply(dm)
			return &dragonPosition{board: next}
		}
	}
	panic(fmt.Sprintf("rules: %s is not legal in %s", m, p.FEN()))
}

func (p *dragonPosition) Status() Status {
	if len(p.board.GenerateLegalMoves()) == 0 {
		if p.board.OurKingInCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if IsInsufficientMaterial(p) {
		return InsufficientMaterial
	}
	return Ongoing
}

func (p *dragonPosition) PieceAt(sq Square) (Piece, bool) {
	mask := uint64(1) << uint(sq)
	switch {
	case p.board.White.All&mask != 0:
		return Piece{Type: dragonPieceType(&p.board.White, mask), Color: White}, true
	case p.board.Black.All&mask != 0:
		return Piece{Type: dragonPieceType(&p.board.Black, mask), Color: Black}, true
	}
	return Piece{}, false
}

func dragonPieceType(bb *dragontoothmg.Bitboards, mask uint64) PieceType {
	switch {
	case bb.Pawns&mask != 0:
		return Pawn
	case bb.Knights&mask != 0:
		return Knight
	case bb.Bishops&mask != 0:
		return Bishop
	case bb.Rooks&mask != 0:
		return Rook
	case bb.Queens&mask != 0:
		return Queen
	case bb.Kings&mask != 0:
		return King
	}
	return NoPieceType
}

func fromDragonMove(m dragontoothmg.Move) Move {
	promo := NoPieceType
	switch m.Promote() {
	case dragontoothmg.Knight:
		promo = Knight
	case dragontoothmg.Bishop:
		promo = Bishop
	case dragontoothmg.Rook:
		promo = Rook
	case dragontoothmg.Queen:
		promo = Queen
	}
	return Move{From: Square(m.From()), To: Square(m.To()), Promo: promo}
}
