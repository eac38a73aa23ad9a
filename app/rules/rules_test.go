package rules

import (
	"errors"
	"sort"
	"testing"
)

const (
	foolsMate   = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	stalemate   = "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"
	kiwipete    = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	promotion   = "8/P6k/8/8/8/8/8/K7 w - - 0 1"
	kingVsKing  = "8/8/8/4k3/8/8/8/4K3 w - - 0 1"
	afterE4     = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	rookEndgame = "8/8/8/4k3/8/8/8/R3K3 w - - 0 1"
)

var providers = []Provider{Notnil{}, Dragontooth{}}

func mustParse(t *testing.T, p Provider, fen string) Position {
	t.Helper()
	pos, err := p.Parse(fen)
	if err != nil {
		t.Fatalf("%s.Parse(%q) error = %v", p.Name(), fen, err)
	}
	return pos
}

func notations(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	sort.Strings(out)
	return out
}

func TestSquareString(t *testing.T) {
	cases := map[Square]string{0: "a1", 7: "h1", 12: "e2", 28: "e4", 63: "h8", NoSquare: "-"}
	for sq, want := range cases {
		if got := sq.String(); got != want {
			t.Fatalf("Square(%d).String() = %q, want %q", sq, got, want)
		}
	}
}

func TestParseSquare(t *testing.T) {
	sq, err := ParseSquare("e4")
	if err != nil || sq != 28 || sq.File() != 4 || sq.Rank() != 3 {
		t.Fatalf("ParseSquare(e4) = (%d,%v), want (28,nil)", sq, err)
	}
	for _, bad := range []string{"", "e", "i1", "a9", "e44"} {
		if _, err := ParseSquare(bad); err == nil {
			t.Fatalf("ParseSquare(%q) should fail", bad)
		}
	}
}

func TestMoveString(t *testing.T) {
	e2, _ := ParseSquare("e2")
	e4, _ := ParseSquare("e4")
	a7, _ := ParseSquare("a7")
	a8, _ := ParseSquare("a8")
	if got := (Move{From: e2, To: e4}).String(); got != "e2e4" {
		t.Fatalf("Move.String() = %q, want e2e4", got)
	}
	if got := (Move{From: a7, To: a8, Promo: Queen}).String(); got != "a7a8q" {
		t.Fatalf("Move.String() = %q, want a7a8q", got)
	}
}

func TestProviderByName(t *testing.T) {
	cases := map[string]string{"": ProviderNotnil, "notnil": ProviderNotnil, "Dragontooth": ProviderDragontooth}
	for name, want := range cases {
		p, err := ProviderByName(name)
		if err != nil || p.Name() != want {
			t.Fatalf("ProviderByName(%q) = (%v,%v), want %s", name, p, err, want)
		}
	}
	if _, err := ProviderByName("stockfish"); err == nil {
		t.Fatalf("ProviderByName should reject unknown names")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"not a fen",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e5 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"rnbqkbnr/ppppxppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	}
	for _, p := range providers {
		for _, fen := range bad {
			if _, err := p.Parse(fen); !errors.Is(err, ErrInvalidFEN) {
				t.Fatalf("%s.Parse(%q) error = %v, want ErrInvalidFEN", p.Name(), fen, err)
			}
		}
	}
}

func TestParseFillsMissingClocks(t *testing.T) {
	for _, p := range providers {
		pos := mustParse(t, p, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
		if got := len(pos.LegalMoves()); got != 20 {
			t.Fatalf("%s: legal moves = %d, want 20", p.Name(), got)
		}
	}
}

func TestLegalMoveCounts(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want int
	}{
		{"start", Start, 20},
		{"after e4", afterE4, 20},
		{"kiwipete", kiwipete, 48},
		{"promotion", promotion, 7},
		{"mated", foolsMate, 0},
		{"stalemated", stalemate, 0},
	}
	for _, p := range providers {
		for _, tc := range cases {
			t.Run(p.Name()+"/"+tc.name, func(t *testing.T) {
				if got := len(mustParse(t, p, tc.fen).LegalMoves()); got != tc.want {
					t.Fatalf("legal moves = %d, want %d", got, tc.want)
				}
			})
		}
	}
}

func TestProvidersAgreeOnMoves(t *testing.T) {
	for _, fen := range []string{Start, afterE4, promotion, rookEndgame} {
		a := notations(mustParse(t, Notnil{}, fen).LegalMoves())
		b := notations(mustParse(t, Dragontooth{}, fen).LegalMoves())
		if len(a) != len(b) {
			t.Fatalf("%s: notnil %v, dragontooth %v", fen, a, b)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: notnil %v, dragontooth %v", fen, a, b)
			}
		}
	}
}

func TestPlayReturnsNewPosition(t *testing.T) {
	for _, p := range providers {
		pos := mustParse(t, p, Start)
		before := pos.FEN()

		var e2e4 Move
		for _, m := range pos.LegalMoves() {
			if m.String() == "e2e4" {
				e2e4 = m
			}
		}
		next := pos.Play(e2e4)

		if pos.FEN() != before {
			t.Fatalf("%s: Play mutated the receiver: %s", p.Name(), pos.FEN())
		}
		if next.Turn() != Black {
			t.Fatalf("%s: side to move after e2e4 = %s, want b", p.Name(), next.Turn())
		}
		e4, _ := ParseSquare("e4")
		if pc, ok := next.PieceAt(e4); !ok || pc != (Piece{Type: Pawn, Color: White}) {
			t.Fatalf("%s: PieceAt(e4) = (%+v,%v)", p.Name(), pc, ok)
		}
	}
}

func TestPlayPanicsOnIllegalMove(t *testing.T) {
	for _, p := range providers {
		pos := mustParse(t, p, Start)
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: Play(e2e5) should panic", p.Name())
				}
			}()
			e2, _ := ParseSquare("e2")
			e5, _ := ParseSquare("e5")
			pos.Play(Move{From: e2, To: e5})
		}()
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		fen  string
		want Status
	}{
		{"start", Start, Ongoing},
		{"checkmate", foolsMate, Checkmate},
		{"stalemate", stalemate, Stalemate},
		{"kings only", kingVsKing, InsufficientMaterial},
		{"lone knight", "8/8/8/4k3/8/8/8/3NK3 w - - 0 1", InsufficientMaterial},
		{"same colored bishops", "5b2/8/8/4k3/8/8/8/2B1K3 w - - 0 1", InsufficientMaterial},
		{"opposite colored bishops", "4b3/8/8/4k3/8/8/8/2B1K3 w - - 0 1", Ongoing},
		{"knight against pawn", "8/8/8/4k3/7p/8/8/3NK3 w - - 0 1", Ongoing},
		{"rook", rookEndgame, Ongoing},
	}
	for _, p := range providers {
		for _, tc := range cases {
			t.Run(p.Name()+"/"+tc.name, func(t *testing.T) {
				if got := mustParse(t, p, tc.fen).Status(); got != tc.want {
					t.Fatalf("Status() = %s, want %s", got, tc.want)
				}
			})
		}
	}
}

func TestPieceAt(t *testing.T) {
	for _, p := range providers {
		pos := mustParse(t, p, Start)
		cases := map[string]Piece{
			"e1": {Type: King, Color: White},
			"d8": {Type: Queen, Color: Black},
			"b1": {Type: Knight, Color: White},
			"c8": {Type: Bishop, Color: Black},
			"h1": {Type: Rook, Color: White},
			"a7": {Type: Pawn, Color: Black},
		}
		for name, want := range cases {
			sq, _ := ParseSquare(name)
			if got, ok := pos.PieceAt(sq); !ok || got != want {
				t.Fatalf("%s: PieceAt(%s) = (%+v,%v), want %+v", p.Name(), name, got, ok, want)
			}
		}
		e4, _ := ParseSquare("e4")
		if _, ok := pos.PieceAt(e4); ok {
			t.Fatalf("%s: PieceAt(e4) should be empty", p.Name())
		}
	}
}
