package rules

type materialCount struct {
	pieces  [2][King + 1]int
	bishops [2]int // bishops by square color: 0 dark, 1 light
}

func countMaterial(p Position) materialCount {
	var mc materialCount
	for sq := Square(0); sq < 64; sq++ {
		pc, ok := p.PieceAt(sq)
		if !ok {
			continue
		}
		mc.pieces[pc.Color][pc.Type]++
		if pc.Type == Bishop {
			mc.bishops[(sq.File()+sq.Rank())%2]++
		}
	}
	return mc
}

func (mc materialCount) total(c Color) int {
	n := 0
	for _, count := range mc.pieces[c] {
		n += count
	}
	return n
}

// insufficient reports whether c cannot possibly deliver mate, even with the
// opponent's cooperation.
func (mc materialCount) insufficient(c Color) bool {
	own := mc.pieces[c]
	if own[Pawn]+own[Rook]+own[Queen] > 0 {
		return false
	}

	opp := mc.pieces[c.Other()]
	if own[Knight] > 0 {
		// a lone knight only fails when the opponent has nothing it could
		// block with
		return mc.total(c) <= 2 && opp[Pawn]+opp[Knight]+opp[Bishop]+opp[Rook] == 0
	}

	if own[Bishop] > 0 {
		sameColor := mc.bishops[0] == 0 || mc.bishops[1] == 0
		pawns := mc.pieces[White][Pawn] + mc.pieces[Black][Pawn]
		knights := mc.pieces[White][Knight] + mc.pieces[Black][Knight]
		return sameColor && pawns == 0 && knights == 0
	}

	return true
}

// IsInsufficientMaterial reports a dead draw: neither side can mate.
func IsInsufficientMaterial(p Position) bool {
	mc := countMaterial(p)
	return mc.insufficient(White) && mc.insufficient(Black)
}
