package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/rivo/tview"
	"github.com/samber/lo"

	"chs/config"
	"chs/game"
)

// cellWidth is the number of columns a square takes on screen.
const cellWidth = 3

// BoardUI draws a chess board from a game session.
type BoardUI struct {
	Box     *tview.Box
	session *game.Session
	cfg     *config.Config
	flipped bool
	styles  []tcell.Color
}

func NewBoard(c *config.Config) *BoardUI {
	board := &BoardUI{Box: tview.NewBox()}
	board.SetConfig(c)
	board.Box.SetDrawFunc(func(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
		if board.session == nil {
			return x, y, 1, 1
		}
		cells := boardCells(board.session, board.flipped)
		for row := 0; row < 8; row++ {
			for col := 0; col < 8; col++ {
				board.drawCell(screen, cells[row][col], x+3+col*cellWidth, y+row)
			}
		}
		board.drawCoordinates(screen, x, y)
		return x, y, 8*cellWidth + 3, 9
	})
	return board
}

// SetSession shows s, from the player's side of the board.
func (b *BoardUI) SetSession(s *game.Session) {
	b.session = s
	b.flipped = s.Player() == chess.Black
}

func (b *BoardUI) SetConfig(c *config.Config) {
	b.styles = lo.Map(palette(c.Theme.Colors), func(index int, _ int) tcell.Color {
		return tcell.PaletteColor(index)
	})
	b.cfg = c
}

func (b *BoardUI) drawCell(s tcell.Screen, c cell, left, top int) {
	bg, fg := c.slots()
	style := tcell.StyleDefault.Background(b.styles[bg]).Foreground(b.styles[fg])

	s.SetContent(left, top, ' ', nil, style)
	s.SetContent(left+1, top, pieceRune(c.Piece, b.cfg.Theme.UnicodePieces), nil, style)
	s.SetContent(left+2, top, ' ', nil, style)
}

func (b *BoardUI) drawCoordinates(s tcell.Screen, x, y int) {
	style := tcell.StyleDefault.Foreground(b.styles[colCoords])
	for row := 0; row < 8; row++ {
		s.SetContent(x+1, y+row, rankLabel(row, b.flipped), nil, style)
	}
	for col, file := range fileLabels(b.flipped) {
		s.SetContent(x+3+col*cellWidth+1, y+8, file, nil, style)
	}
}
