package game

import (
	"context"
	"errors"
	"testing"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chs/engine"
	"chs/types"
)

// scriptedEngine answers BestMove from a fixed list.
type scriptedEngine struct {
	moves []engine.Move
	err   error
	fens  []string
}

func (e *scriptedEngine) Start(context.Context) error { return nil }
func (e *scriptedEngine) Stop() error { return nil }

func (e *scriptedEngine) BestMove(_ context.Context, fen string) (engine.Move, error) {
	e.fens = append(e.fens, fen)
	if e.err != nil {
		return "", e.err
	}
	if len(e.moves) == 0 {
		return engine.NoMove, nil
	}
	mv := e.moves[0]
	e.moves = e.moves[1:]
	return mv, nil
}

func newController(player chess.Color, play, hint *scriptedEngine) *Controller {
	return NewController(NewSession(3, player), engine.NewPool(play, hint), zerolog.Nop())
}

func TestEngineTurn(t *testing.T) {
	play := &scriptedEngine{moves: []engine.Move{"e2e4"}}
	c := newController(chess.Black, play, &scriptedEngine{})

	notation, err := c.EngineTurn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "e4", notation)
	assert.Equal(t, []string{types.StartFEN}, play.fens)
	assert.True(t, c.Session.IsPlayerTurn())
}

func TestEngineTurnNoMove(t *testing.T) {
	c := newController(chess.Black, &scriptedEngine{}, &scriptedEngine{})
	notation, err := c.EngineTurn(context.Background())
	require.NoError(t, err)
	assert.Empty(t, notation)
	assert.Equal(t, types.StartFEN, c.Session.FEN())
}

func TestEngineTurnError(t *testing.T) {
	c := newController(chess.Black, &scriptedEngine{err: engine.ErrComputeTimeout}, &scriptedEngine{})
	_, err := c.EngineTurn(context.Background())
	assert.True(t, errors.Is(err, engine.ErrComputeTimeout))
	assert.Equal(t, types.StartFEN, c.Session.FEN())
}

func TestEngineTurnIllegalMove(t *testing.T) {
	c := newController(chess.Black, &scriptedEngine{moves: []engine.Move{"e2e5"}}, &scriptedEngine{})
	_, err := c.EngineTurn(context.Background())
	assert.Error(t, err)
}

func TestHint(t *testing.T) {
	hint := &scriptedEngine{moves: []engine.Move{"g1f3"}}
	play := &scriptedEngine{}
	c := newController(chess.White, play, hint)

	notation, err := c.Hint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Nf3", notation)
	assert.Empty(t, play.fens)
	assert.Equal(t, types.StartFEN, c.Session.FEN())

	_, err = c.Hint(context.Background())
	assert.True(t, errors.Is(err, ErrNoHint))
}

func TestHintError(t *testing.T) {
	c := newController(chess.White, &scriptedEngine{}, &scriptedEngine{err: engine.ErrTerminated})
	_, err := c.Hint(context.Background())
	assert.True(t, errors.Is(err, engine.ErrTerminated))
}
