// Package ui provides the terminal front ends for chs: a full-screen tview
// board and a plain line-mode board for constrained terminals.
package ui

import (
	"github.com/notnil/chess"

	"chs/config"
	"chs/game"
	"chs/types"
)

// Colour slots, in the order palette returns them.
const (
	colLight = iota
	colDark
	colLightLast
	colDarkLast
	colWhitePiece
	colBlackPiece
	colCoords
	colCheck
)

// palette lists the configured 256-colour indexes by slot.
func palette(c config.ConfigColors) []int {
	return []int{
		c.LightSquare,
		c.DarkSquare,
		c.LightLastMove,
		c.DarkLastMove,
		c.WhitePiece,
		c.BlackPiece,
		c.Coordinates,
		c.CheckBackground,
	}
}

// cell is one square as it should be drawn.
type cell struct {
	Square   string // "e4"
	Piece    string // FEN letter, "" when empty
	Dark     bool
	LastMove bool
	Check    bool
}

// slots returns the background and foreground colour slots of the cell.
func (c cell) slots() (bg, fg int) {
	switch {
	case c.Check:
		bg = colCheck
	case c.LastMove && c.Dark:
		bg = colDarkLast
	case c.LastMove:
		bg = colLightLast
	case c.Dark:
		bg = colDark
	default:
		bg = colLight
	}
	fg = colBlackPiece
	if isWhitePiece(c.Piece) {
		fg = colWhitePiece
	}
	return bg, fg
}

// boardCells lays out the session's board in screen order, top row first.
// When flipped, black's pieces are at the bottom.
func boardCells(s *game.Session, flipped bool) [8][8]cell {
	var cells [8][8]cell
	pos, err := types.ParsePosition(s.FEN())
	if err != nil {
		return cells
	}

	var from, to string
	if m := s.LastMove(); m != nil {
		from, to = m.S1().String(), m.S2().String()
	}
	king := ""
	if s.InCheck() {
		king = "K"
		if s.Turn() == chess.Black {
			king = "k"
		}
	}

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			file, rank := col, 7-row
			if flipped {
				file, rank = 7-col, row
			}
			sq := string(rune('a'+file)) + string(rune('1'+rank))
			piece := pos.Piece(sq)
			cells[row][col] = cell{
				Square:   sq,
				Piece:    piece,
				Dark:     (file+rank)%2 == 0,
				LastMove: sq == from || sq == to,
				Check:    king != "" && piece == king,
			}
		}
	}
	return cells
}

// fileLabels returns the file letters in screen order.
func fileLabels(flipped bool) string {
	if flipped {
		return "hgfedcba"
	}
	return "abcdefgh"
}

// rankLabel returns the rank digit of a screen row.
func rankLabel(row int, flipped bool) rune {
	if flipped {
		return rune('1' + row)
	}
	return rune('8' - row)
}

var unicodePieces = map[rune]rune{
	'k': '♚', 'q': '♛', 'r': '♜', 'b': '♝', 'n': '♞', 'p': '♟',
}

// pieceRune returns the glyph for a FEN piece letter. Both sides share the
// solid glyphs and are told apart by colour.
func pieceRune(piece string, unicode bool) rune {
	if piece == "" {
		return ' '
	}
	r := rune(piece[0])
	if !unicode {
		return r
	}
	lower := r
	if r >= 'A' && r <= 'Z' {
		lower = r + ('a' - 'A')
	}
	if g, ok := unicodePieces[lower]; ok {
		return g
	}
	return r
}

// isWhitePiece returns true for an uppercase FEN letter.
func isWhitePiece(piece string) bool {
	return piece != "" && piece[0] >= 'A' && piece[0] <= 'Z'
}
