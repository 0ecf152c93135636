package ui

import (
	"fmt"

	"github.com/notnil/chess"
	"github.com/rivo/tview"

	"chs/game"
)

// maxVisibleMoves is how many move rows the panel shows before scrolling.
const maxVisibleMoves = 12

// GameInfoPanel displays game information and move history alongside the board.
type GameInfoPanel struct {
	box     *tview.TextView
	session *game.Session
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetSession updates the panel with the session's state.
func (p *GameInfoPanel) SetSession(s *game.Session) {
	p.session = s
	p.refresh()
}

func (p *GameInfoPanel) refresh() {
	if p.session == nil {
		p.box.SetText("")
		return
	}
	p.box.SetText(infoText(p.session))
}

// infoText renders the panel contents for s.
func infoText(s *game.Session) string {
	var text string

	text += "[white::b]Game Info[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"

	side := "White"
	if s.Player() == chess.Black {
		side = "Black"
	}
	text += fmt.Sprintf("[white]You:[-:-:-] %s\n", side)
	text += fmt.Sprintf("[white]Level:[-:-:-] %d\n", s.Level())

	rows := moveRows(s.History())
	if len(rows) == 0 {
		return text
	}

	text += "\n[white::b]Moves[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"

	start := 0
	if len(rows) > maxVisibleMoves {
		start = len(rows) - maxVisibleMoves
	}
	for i := start; i < len(rows); i++ {
		marker := " "
		if i == len(rows)-1 {
			marker = "[white]>[-]"
		}
		text += fmt.Sprintf("%s[dimgray]%3d.[-] %s\n", marker, i+1, rows[i])
	}
	if start > 0 {
		text += fmt.Sprintf("[dimgray]  ··· %d earlier[-]\n", start)
	}
	return text
}

// moveRows pairs a SAN history into "e4 e5" rows, one per full move.
func moveRows(history []string) []string {
	var rows []string
	for i := 0; i < len(history); i += 2 {
		row := history[i]
		if i+1 < len(history) {
			row = fmt.Sprintf("%-7s %s", history[i], history[i+1])
		}
		rows = append(rows, row)
	}
	return rows
}

// CreateGameLayout creates the main game layout with board and side panel,
// the status bar and the move input below.
func CreateGameLayout(board *BoardUI, info *GameInfoPanel, status *tview.TextView, input *tview.InputField) *tview.Flex {
	// Create horizontal flex: board | info panel
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, false)   // Board (flexible, takes remaining space)
	boardRow.AddItem(info.Box(), 26, 0, false) // Info panel (fixed width)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(boardRow, 0, 1, false)
	mainFlex.AddItem(status, 5, 0, false)
	mainFlex.AddItem(input, 1, 0, true)

	return mainFlex
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)        // Left spacer
	centered.AddItem(form, maxWidth, 0, true) // Form with max width
	centered.AddItem(nil, 0, 1, false)        // Right spacer

	return centered
}
