package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

// Notnil backs positions with github.com/notnil/chess.
type Notnil struct{}

func (Notnil) Name() string { return ProviderNotnil }

func (Notnil) Parse(fen string) (pos Position, err error) {
	defer recoverParse(&err)

	normalized, err := normalizeFEN(fen)
	if err != nil {
		return nil, err
	}
	opt, err := chess.FEN(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	g := chess.NewGame(opt)
	return &notnilPosition{pos: g.Position()}, nil
}

type notnilPosition struct {
	pos *chess.Position
}

func (p *notnilPosition) FEN() string { return p.pos.String() }

func (p *notnilPosition) Turn() Color {
	if p.pos.Turn() == chess.Black {
		return Black
	}
	return White
}

func (p *notnilPosition) LegalMoves() []Move {
	valid := p.pos.ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, Move{
			From:  Square(m.S1()),
			To:    Square(m.S2()),
			Promo: fromNotnilType(m.Promo()),
		})
	}
	return moves
}

func (p *notnilPosition) Play(m Move) Position {
	for _, cm := range p.pos.ValidMoves() {
		if Square(cm.S1()) == m.From && Square(cm.S2()) == m.To && fromNotnilType(cm.Promo()) == m.Promo {
			return &notnilPosition{pos: p.pos.Update(cm)}
		}
	}
	panic(fmt.Sprintf("rules: %s is not legal in %s", m, p.FEN()))
}

func (p *notnilPosition) Status() Status {
	switch p.pos.Status() {
	case chess.Checkmate:
		return Checkmate
	case chess.Stalemate:
		return Stalemate
	}
	if IsInsufficientMaterial(p) {
		return InsufficientMaterial
	}
	return Ongoing
}

func (p *notnilPosition) PieceAt(sq Square) (Piece, bool) {
	pc := p.pos.Board().Piece(chess.Square(sq))
	if pc == chess.NoPiece {
		return Piece{}, false
	}
	color := White
	if pc.Color() == chess.Black {
		color = Black
	}
	return Piece{Type: fromNotnilType(pc.Type()), Color: color}, true
}

func fromNotnilType(t chess.PieceType) PieceType {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceType
}
