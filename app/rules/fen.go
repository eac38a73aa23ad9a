package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeFEN checks the structure of a FEN before it reaches a move
// generator (neither backend copes with a board that lacks a king) and fills
// in the clocks when only the first four fields were given.
func normalizeFEN(fen string) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return "", fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	if err := validatePlacement(fields[0]); err != nil {
		return "", err
	}

	if fields[1] != "w" && fields[1] != "b" {
		return "", fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}

	if fields[2] != "-" {
		for _, r := range fields[2] {
			if !strings.ContainsRune("KQkq", r) {
				return "", fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, fields[2])
			}
		}
	}

	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil || (sq.Rank() != 2 && sq.Rank() != 5) {
			return "", fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, fields[3])
		}
	}

	for _, clock := range fields[4:] {
		if n, err := strconv.Atoi(clock); err != nil || n < 0 {
			return "", fmt.Errorf("%w: clock %q", ErrInvalidFEN, clock)
		}
	}

	return strings.Join(fields, " "), nil
}

func validatePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	kings := map[rune]int{}
	for i, rank := range ranks {
		width := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '8':
				width += int(r - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", r):
				width++
				if r == 'k' || r == 'K' {
					kings[r]++
				}
			default:
				return fmt.Errorf("%w: unexpected %q in rank %d", ErrInvalidFEN, r, 8-i)
			}
		}
		if width != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, 8-i, width)
		}
	}

	if kings['K'] != 1 || kings['k'] != 1 {
		return fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	return nil
}

// recoverParse turns a panic inside a third-party parser into ErrInvalidFEN.
func recoverParse(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInvalidFEN, r)
	}
}
