// Package types contains shared data structures for chs.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is the structural breakdown of a FEN string.
// Board is indexed as Board[rank][file] with rank 0 being the eighth rank,
// in the order FEN lists them. Empty squares are "".
type Position struct {
	Board          [][]string
	ActiveColor    string // "w" or "b"
	Castling       string
	EnPassant      string
	HalfmoveClock  int
	FullmoveNumber int
}

// InvalidPosition is returned when a FEN string can't be split into a board.
type InvalidPosition struct {
	FEN    string
	Reason string
}

func (e *InvalidPosition) Error() string {
	return fmt.Sprintf("invalid position %q: %s", e.FEN, e.Reason)
}

// ParsePosition splits a FEN string into its six fields.
// Missing trailing fields take their usual defaults.
func ParsePosition(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, &InvalidPosition{FEN: fen, Reason: "empty"}
	}

	board, err := parsePlacement(fields[0])
	if err != nil {
		return nil, &InvalidPosition{FEN: fen, Reason: err.Error()}
	}

	pos := &Position{
		Board:          board,
		ActiveColor:    field(fields, 1, "w"),
		Castling:       field(fields, 2, "-"),
		EnPassant:      field(fields, 3, "-"),
		HalfmoveClock:  0,
		FullmoveNumber: 1,
	}
	if pos.ActiveColor != "w" && pos.ActiveColor != "b" {
		return nil, &InvalidPosition{FEN: fen, Reason: "active color must be w or b"}
	}
	if n, err := strconv.Atoi(field(fields, 4, "0")); err == nil {
		pos.HalfmoveClock = n
	}
	if n, err := strconv.Atoi(field(fields, 5, "1")); err == nil {
		pos.FullmoveNumber = n
	}
	return pos, nil
}

func field(fields []string, i int, def string) string {
	if i < len(fields) {
		return fields[i]
	}
	return def
}

func parsePlacement(placement string) ([][]string, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}
	board := make([][]string, 0, 8)
	for _, rank := range ranks {
		row := make([]string, 0, 8)
		for _, c := range rank {
			if c >= '1' && c <= '8' {
				for i := 0; i < int(c-'0'); i++ {
					row = append(row, "")
				}
				continue
			}
			if !strings.ContainsRune("pnbrqkPNBRQK", c) {
				return nil, fmt.Errorf("unknown piece %q", c)
			}
			row = append(row, string(c))
		}
		if len(row) != 8 {
			return nil, fmt.Errorf("rank %q has %d squares", rank, len(row))
		}
		board = append(board, row)
	}
	return board, nil
}

// Piece returns the piece letter on a square such as "e4", or "" when empty.
func (p *Position) Piece(square string) string {
	if len(square) != 2 {
		return ""
	}
	file := int(square[0] - 'a')
	rank := int(square[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return ""
	}
	return p.Board[7-rank][file]
}

// WhiteToMove returns true if white is the side to move.
func (p *Position) WhiteToMove() bool {
	return p.ActiveColor == "w"
}
