package game

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"chs/engine"
)

// ErrNoHint is returned when the hint engine has no move to suggest.
var ErrNoHint = errors.New("no hint available")

// Command is what the player typed at the move prompt.
type Command int

const (
	CmdMove Command = iota
	CmdBack
	CmdHint
	CmdQuit
	CmdNone
)

// ParseCommand classifies a line of player input.
func ParseCommand(input string) Command {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return CmdNone
	case "back":
		return CmdBack
	case "hint":
		return CmdHint
	case "quit", "exit", "resign":
		return CmdQuit
	}
	return CmdMove
}

// Controller plays a Session against the engines of a Pool. Calls must
// come from one goroutine at a time; each engine is only ever asked one
// question at once.
type Controller struct {
	Session *Session
	pool    *engine.Pool
	log     zerolog.Logger
}

// NewController ties a session to the engine pool.
func NewController(s *Session, pool *engine.Pool, log zerolog.Logger) *Controller {
	return &Controller{Session: s, pool: pool, log: log}
}

// Think asks the playing engine for a move in the given position. It does
// not touch the session, so it may run off the goroutine that owns it.
func (c *Controller) Think(ctx context.Context, fen string) (engine.Move, error) {
	mv, err := c.pool.Play.BestMove(ctx, fen)
	if err != nil {
		c.log.Warn().Err(err).Str("fen", fen).Msg("engine move failed")
		return "", err
	}
	if mv.IsNone() {
		c.log.Info().Str("fen", fen).Msg("engine has no move")
	}
	return mv, nil
}

// Advise asks the hint engine for the best move in the given position.
func (c *Controller) Advise(ctx context.Context, fen string) (engine.Move, error) {
	mv, err := c.pool.Hint.BestMove(ctx, fen)
	if err != nil {
		c.log.Warn().Err(err).Msg("hint failed")
		return "", err
	}
	if mv.IsNone() {
		return "", ErrNoHint
	}
	return mv, nil
}

// EngineTurn asks the playing engine for a move and applies it.
// It returns the move in SAN, or "" when the engine had no move.
func (c *Controller) EngineTurn(ctx context.Context) (string, error) {
	mv, err := c.Think(ctx, c.Session.FEN())
	if err != nil {
		return "", err
	}
	notation, err := c.Session.ApplyEngineMove(mv)
	if err != nil {
		return "", err
	}
	if notation != "" {
		c.log.Debug().Str("move", mv.String()).Str("san", notation).Msg("engine played")
	}
	return notation, nil
}

// Hint asks the hint engine for the best move and returns it in SAN.
func (c *Controller) Hint(ctx context.Context) (string, error) {
	mv, err := c.Advise(ctx, c.Session.FEN())
	if err != nil {
		return "", err
	}
	return c.Session.HintSAN(mv), nil
}
