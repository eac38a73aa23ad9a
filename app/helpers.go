package app

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reTags     = regexp.MustCompile(`(?m)^\[.*?\]\s*`) // [Tag "Value"] lines
	reComments = regexp.MustCompile(`\{[^}]*\}`)       // {...} comments (incl. [%clk ...])
	reNAG      = regexp.MustCompile(`\$\d+`)           // $1, $2, etc.
	reSpaces   = regexp.MustCompile(`\s+`)
)

// NormalizeChessDotComPGN removes headers/comments/NAGs and collapses whitespace.
func NormalizeChessDotComPGN(pgn string) string {
	pgn = reTags.ReplaceAllString(pgn, "")
	pgn = reComments.ReplaceAllString(pgn, "")
	pgn = reNAG.ReplaceAllString(pgn, "")
	pgn = reSpaces.ReplaceAllString(strings.TrimSpace(pgn), " ")
	return pgn
}

// NormalizeFEN keeps placement, side, castling and en passant, dropping the
// clocks so repeated positions compare equal.
func NormalizeFEN(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) > 4 {
		parts = parts[:4]
	}
	return strings.Join(parts, " ")
}

// fenInfo reads side to move and fullmove number straight from the FEN
// fields, defaulting to white and move 1 when they are missing.
func fenInfo(fen string) (side string, moveNumber int) {
	parts := strings.Fields(fen)
	side, moveNumber = "w", 1
	if len(parts) >= 2 && parts[1] == "b" {
		side = "b"
	}
	if len(parts) >= 6 {
		fmt.Sscanf(parts[5], "%d", &moveNumber)
	}
	return side, moveNumber
}
