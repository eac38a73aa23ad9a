// Package rules adapts third-party chess move generators to the small set of
// board operations the search needs: parse a FEN, list legal moves, play a
// move, report terminal status and piece placement.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFEN is returned (wrapped) by every Provider when a position
// cannot be parsed.
var ErrInvalidFEN = errors.New("invalid FEN")

type Color int8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	}
	return ""
}

type Piece struct {
	Type  PieceType
	Color Color
}

// Square indexes the board from a1 (0) to h8 (63), file-major within a rank.
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (sq Square) File() int { return int(sq) % 8 }
func (sq Square) Rank() int { return int(sq) / 8 }

func (sq Square) String() string {
	if sq < 0 || sq > 63 {
		return "-"
	}
	return string([]byte{'a' + byte(sq.File()), '1' + byte(sq.Rank())})
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// Move is produced only by a Position's LegalMoves.
type Move struct {
	From  Square
	To    Square
	Promo PieceType
}

// String returns UCI long algebraic notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	return m.From.String() + m.To.String() + m.Promo.String()
}

type Status int8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	}
	return "ongoing"
}

// Position is an immutable board state. Play returns a new Position and
// leaves the receiver untouched.
type Position interface {
	// FEN is the canonical serialization, including clocks.
	FEN() string
	Turn() Color
	// LegalMoves lists the legal moves in the provider's generation order.
	LegalMoves() []Move
	// Play panics if m is not one of LegalMoves.
	Play(m Move) Position
	Status() Status
	PieceAt(sq Square) (Piece, bool)
}

type Provider interface {
	Name() string
	Parse(fen string) (Position, error)
}

const (
	ProviderNotnil      = "notnil"
	ProviderDragontooth = "dragontooth"
)

// ProviderByName picks a rules backend; an empty name means notnil.
func ProviderByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderNotnil:
		return Notnil{}, nil
	case ProviderDragontooth, "dragontoothmg":
		return Dragontooth{}, nil
	}
	return nil, fmt.Errorf("unknown rules provider %q", name)
}

// Start is the standard initial position.
const Start = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
