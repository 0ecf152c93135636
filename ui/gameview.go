package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"chs/config"
	"chs/game"
)

// GameView is the full-screen game: board, info panel, status and move input.
// All session access happens on the tview event goroutine; engine searches run
// in their own goroutine and hand results back with QueueUpdateDraw.
type GameView struct {
	app      *tview.Application
	ctx      context.Context
	ctrl     *game.Controller
	log      zerolog.Logger
	board    *BoardUI
	info     *GameInfoPanel
	status   *tview.TextView
	input    *tview.InputField
	layout   *tview.Flex
	thinking bool
	message  string
}

func NewGameView(ctx context.Context, app *tview.Application, ctrl *game.Controller, cfg *config.Config, log zerolog.Logger) *GameView {
	v := &GameView{
		app:   app,
		ctx:   ctx,
		ctrl:  ctrl,
		log:   log,
		board: NewBoard(cfg),
		info:  NewGameInfoPanel(),
	}
	v.board.SetSession(ctrl.Session)

	v.status = tview.NewTextView()
	v.status.SetDynamicColors(true)
	v.status.SetBorder(true)
	v.status.SetBorderPadding(0, 0, 1, 1)
	v.status.SetTitle(" Status ")
	v.status.SetTitleAlign(tview.AlignLeft)

	v.input = tview.NewInputField().SetLabel("Your move: ")
	v.input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			v.submit(v.input.GetText())
		case tcell.KeyEscape:
			v.app.Stop()
		}
	})

	v.layout = CreateGameLayout(v.board, v.info, v.status, v.input)
	v.refresh()
	return v
}

// Layout returns the root primitive of the view.
func (v *GameView) Layout() *tview.Flex {
	return v.layout
}

// Begin lets the engine open the game when the player has black.
func (v *GameView) Begin() {
	v.think()
	v.refresh()
}

func (v *GameView) submit(text string) {
	defer v.input.SetText("")
	if v.thinking {
		return
	}
	s := v.ctrl.Session

	switch game.ParseCommand(text) {
	case game.CmdQuit:
		v.app.Stop()
		return
	case game.CmdBack:
		n, err := s.TakeBack()
		if err != nil {
			v.message = "[red]" + err.Error() + "[-]"
			break
		}
		v.message = fmt.Sprintf("Took back %d move(s).", n)
	case game.CmdHint:
		v.hint()
	case game.CmdNone:
		// Retry after an engine failure.
		v.message = ""
		v.think()
	case game.CmdMove:
		notation, err := s.PlayerMove(text)
		if err != nil {
			v.message = "[red]" + tview.Escape(err.Error()) + "[-]"
			break
		}
		v.message = "You played " + notation
		v.think()
	}
	v.refresh()
}

// think starts an engine search if it is the engine's turn.
func (v *GameView) think() {
	s := v.ctrl.Session
	if s.IsOver() || s.IsPlayerTurn() {
		return
	}
	v.thinking = true
	fen := s.FEN()
	go func() {
		mv, err := v.ctrl.Think(v.ctx, fen)
		v.app.QueueUpdateDraw(func() {
			v.thinking = false
			if err != nil {
				v.message = "[red]Engine error: " + tview.Escape(err.Error()) + "[-] (Enter to retry)"
				v.refresh()
				return
			}
			notation, err := s.ApplyEngineMove(mv)
			switch {
			case err != nil:
				v.message = "[red]" + tview.Escape(err.Error()) + "[-]"
			case notation == "":
				v.message = "Engine has no move. (Enter to retry)"
			default:
				v.message = "Computer played " + notation
			}
			v.refresh()
		})
	}()
}

func (v *GameView) hint() {
	s := v.ctrl.Session
	if s.IsOver() || !s.IsPlayerTurn() {
		v.message = "Hints are only available on your turn."
		return
	}
	v.thinking = true
	fen := s.FEN()
	go func() {
		mv, err := v.ctrl.Advise(v.ctx, fen)
		v.app.QueueUpdateDraw(func() {
			v.thinking = false
			if err != nil {
				v.message = "[red]" + tview.Escape(err.Error()) + "[-]"
			} else {
				v.message = "Hint: " + s.HintSAN(mv)
			}
			v.refresh()
		})
	}()
}

func (v *GameView) refresh() {
	v.info.SetSession(v.ctrl.Session)
	v.status.SetText(statusText(v.ctrl.Session, v.thinking, v.message))
}

// statusText renders the status bar.
func statusText(s *game.Session, thinking bool, message string) string {
	var turnLine, controlsLine string

	if r := s.Outcome(); r.Over {
		turnLine = "  " + r.Headline()
		if reason := r.Reason(); reason != "" {
			turnLine += " (" + reason + ")"
		}
		turnLine += "\n"
		controlsLine = "  back · take back   quit · exit"
	} else {
		switch {
		case thinking && s.IsPlayerTurn():
			turnLine = "  ◌ Looking for a hint...\n"
		case thinking:
			turnLine = "  ◌ Thinking...\n"
		case s.IsPlayerTurn():
			turnLine = "  ● Your move"
			if s.InCheck() {
				turnLine += " (check!)"
			}
			turnLine += "\n"
		default:
			turnLine = "  ◌ Computer to move\n"
		}
		controlsLine = "  e4 / Nf3 / g1f3 · move   back · hint · quit"
	}

	if message != "" {
		message = "  " + message + "\n"
	}
	return message + turnLine + controlsLine
}

// RunGame runs the full-screen game until the player quits or ctx is done.
func RunGame(ctx context.Context, ctrl *game.Controller, cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tview.NewApplication()
	view := NewGameView(ctx, app, ctrl, cfg, log)

	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	view.Begin()
	log.Info().Int("skill", ctrl.Session.Level()).Msg("game started")
	if err := app.SetRoot(view.Layout(), true).SetFocus(view.input).Run(); err != nil {
		return err
	}
	log.Info().Int("moves", len(ctrl.Session.History())).Msg("game closed")
	return nil
}
