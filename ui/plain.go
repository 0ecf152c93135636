package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"chs/config"
	"chs/game"
)

const historyFile = "chs/history"

// LineReader is the prompt the plain front end reads commands from.
type LineReader interface {
	Readline() (string, error)
}

// Plain plays a game on a line-oriented terminal: the board is printed with
// ANSI colours after every move and moves are typed at a prompt.
type Plain struct {
	ctrl  *game.Controller
	theme config.Theme
	out   io.Writer
	log   zerolog.Logger
}

func NewPlain(ctrl *game.Controller, theme config.Theme, out io.Writer, log zerolog.Logger) *Plain {
	return &Plain{ctrl: ctrl, theme: theme, out: out, log: log}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// RunPlain runs a plain game on the terminal until the player quits, the game
// ends, or ctx is done.
func RunPlain(ctx context.Context, ctrl *game.Controller, theme config.Theme, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	history, err := xdg.StateFile(historyFile)
	if err != nil {
		log.Warn().Err(err).Msg("no history file")
		history = ""
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "Your move: ",
		HistoryFile:     history,
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	return NewPlain(ctrl, theme, l.Stdout(), log).Loop(ctx, l)
}

// Loop alternates engine moves and player input until the game is over.
func (p *Plain) Loop(ctx context.Context, in LineReader) error {
	s := p.ctrl.Session
	p.show()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if s.IsOver() {
			p.printResult()
			return nil
		}

		if !s.IsPlayerTurn() {
			p.println("Computer is thinking...")
			notation, err := p.ctrl.EngineTurn(ctx)
			switch {
			case ctx.Err() != nil:
				return nil
			case err != nil:
				p.printf("Engine error: %v (press Enter to retry)\n", err)
			case notation == "":
				p.println("Engine has no move. (press Enter to retry)")
			default:
				p.printf("Computer played %s\n", notation)
				p.show()
				continue
			}
		}

		line, err := in.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if done := p.handle(ctx, line); done {
			return nil
		}
	}
}

// handle runs one line of player input. It returns true when the player quits.
func (p *Plain) handle(ctx context.Context, line string) bool {
	s := p.ctrl.Session
	switch game.ParseCommand(line) {
	case game.CmdQuit:
		return true
	case game.CmdNone:
	case game.CmdBack:
		n, err := s.TakeBack()
		if err != nil {
			p.println(err.Error())
			return false
		}
		p.printf("Took back %d move(s).\n", n)
		p.show()
	case game.CmdHint:
		if !s.IsPlayerTurn() {
			p.println("Hints are only available on your turn.")
			return false
		}
		hint, err := p.ctrl.Hint(ctx)
		if err != nil {
			p.println(err.Error())
			return false
		}
		p.printf("Hint: %s\n", hint)
	case game.CmdMove:
		notation, err := s.PlayerMove(line)
		if err != nil {
			p.println(err.Error())
			return false
		}
		p.log.Debug().Str("san", notation).Msg("player moved")
		p.printf("You played %s\n", notation)
		p.show()
	}
	return false
}

func (p *Plain) show() {
	WriteBoard(p.out, p.ctrl.Session, p.theme)
	if s := p.ctrl.Session; s.InCheck() && !s.IsOver() {
		p.println("Check!")
	}
}

func (p *Plain) printResult() {
	r := p.ctrl.Session.Outcome()
	p.println(r.Headline())
	if reason := r.Reason(); reason != "" {
		p.println(reason)
	}
	if history := p.ctrl.Session.History(); len(history) > 0 {
		p.println(strings.Join(moveRows(history), "\n"))
	}
}

func (p *Plain) println(msg string) {
	io.WriteString(p.out, msg)
	io.WriteString(p.out, "\n")
}

func (p *Plain) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// WriteBoard prints the session's board with 256-colour ANSI escapes.
func WriteBoard(w io.Writer, s *game.Session, theme config.Theme) {
	flipped := s.Player() == chess.Black
	cells := boardCells(s, flipped)
	colors := palette(theme.Colors)

	var b strings.Builder
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&b, " %c ", rankLabel(row, flipped))
		for col := 0; col < 8; col++ {
			c := cells[row][col]
			bg, fg := c.slots()
			fmt.Fprintf(&b, "\x1b[48;5;%dm\x1b[38;5;%dm %c \x1b[0m", colors[bg], colors[fg], pieceRune(c.Piece, theme.UnicodePieces))
		}
		b.WriteString("\n")
	}
	b.WriteString("   ")
	for _, file := range fileLabels(flipped) {
		fmt.Fprintf(&b, "\x1b[38;5;%dm %c \x1b[0m", colors[colCoords], file)
	}
	b.WriteString("\n")
	io.WriteString(w, b.String())
}
