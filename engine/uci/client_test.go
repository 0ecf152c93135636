package uci

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chs/engine"
	"chs/types"
)

func TestStartHandshake(t *testing.T) {
	c, logs := fakeClient(t, "default", 5)
	assert.Equal(t, NotStarted, c.State())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, 1, logs.sentCount("uci"))
	assert.Equal(t, 1, logs.sentCount("setoption name Skill Level value 12"))
	assert.Equal(t, 0, logs.sentCount("setoption name Threads value 1"))
}

func TestStartTwiceIsNoop(t *testing.T) {
	c, logs := fakeClient(t, "default", 1)
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, 1, logs.sentCount("uci"))
	assert.Equal(t, 1, logs.sentCount("setoption name Skill Level value 1"))
}

func TestStartSingleThread(t *testing.T) {
	c, logs := fakeClient(t, "default", 8)
	c.cfg.SingleThread = true
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 1, logs.sentCount("setoption name Skill Level value 20"))
	assert.Equal(t, 1, logs.sentCount("setoption name Threads value 1"))
}

func TestStartSpawnFailure(t *testing.T) {
	c := New(engine.Config{Path: "/nonexistent/stockfish", HandshakeTimeout: time.Second}, zerolog.Nop())
	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSpawn))
	assert.Equal(t, Terminated, c.State())
	assert.NoError(t, c.Stop())
}

func TestStartInitTimeout(t *testing.T) {
	c, _ := fakeClient(t, "silent", 3)
	c.cfg.HandshakeTimeout = 200 * time.Millisecond

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInitTimeout))
	assert.Equal(t, Terminated, c.State())

	// The instance must not quietly carry on.
	_, err = c.BestMove(context.Background(), types.StartFEN)
	assert.True(t, errors.Is(err, engine.ErrTerminated))
}

func TestBestMove(t *testing.T) {
	c, logs := fakeClient(t, "default", 4)
	mv, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("e2e4"), mv)
	assert.False(t, mv.IsNone())
	assert.False(t, c.Searching())
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, 1, logs.sentCount("isready"))
	assert.Equal(t, 1, logs.sentCount("position fen "+types.StartFEN))
	assert.Equal(t, 1, logs.sentCount("go depth 15"))
}

func TestBestMoveAutoStarts(t *testing.T) {
	c, logs := fakeClient(t, "default", 2)
	assert.Equal(t, NotStarted, c.State())
	_, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	_, err = c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.sentCount("uci"))
	assert.Equal(t, 2, logs.sentCount("go depth 15"))
}

func TestBestMoveNone(t *testing.T) {
	c, _ := fakeClient(t, "none", 1)
	mv, err := c.BestMove(context.Background(), "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)
	assert.Equal(t, engine.NoMove, mv)
	assert.True(t, mv.IsNone())
}

func TestBestMoveChunkedOutput(t *testing.T) {
	c, _ := fakeClient(t, "chunked", 1)
	mv, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("g1f3"), mv)
}

func TestUnsolicitedBestMoveIgnored(t *testing.T) {
	c, logs := fakeClient(t, "unsolicited", 1)
	require.NoError(t, c.Start(context.Background()))
	assert.Contains(t, logs.String(), "ignoring unsolicited bestmove")
	assert.False(t, c.Searching())

	mv, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("e2e4"), mv)
}

func TestDuplicateBestMoveDeliveredOnce(t *testing.T) {
	c, logs := fakeClient(t, "double", 1)
	mv, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("e2e4"), mv)

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "ignoring unsolicited bestmove")
	}, 2*time.Second, 10*time.Millisecond)

	mv, err = c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("e2e4"), mv)
}

func TestDuplicateBestMoveBackToBack(t *testing.T) {
	c, logs := fakeClient(t, "double", 1)
	for i := 0; i < 50; i++ {
		mv, err := c.BestMove(context.Background(), types.StartFEN)
		require.NoError(t, err)
		require.Equal(t, engine.Move("e2e4"), mv, "search %d", i+1)
	}
	assert.Equal(t, 50, logs.sentCount("isready"))
}

func TestEngineIgnoringStopRecovers(t *testing.T) {
	c, logs := fakeClient(t, "stubborn", 1)
	c.cfg.MoveTimeout = 200 * time.Millisecond

	_, err := c.BestMove(context.Background(), types.StartFEN)
	require.True(t, errors.Is(err, engine.ErrComputeTimeout))

	c.cfg.MoveTimeout = 3 * time.Second
	for i := 0; i < 3; i++ {
		mv, err := c.BestMove(context.Background(), types.StartFEN)
		require.NoError(t, err)
		assert.Equal(t, engine.Move("e2e4"), mv)
	}
	assert.Contains(t, logs.String(), "engine never answered an abandoned search")
	assert.Equal(t, 1, strings.Count(logs.String(), "engine never answered"))
}

func TestBestMoveTimeout(t *testing.T) {
	c, logs := fakeClient(t, "hang", 1)
	c.cfg.MoveTimeout = 200 * time.Millisecond

	_, err := c.BestMove(context.Background(), types.StartFEN)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrComputeTimeout))
	assert.False(t, c.Searching())
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, 1, logs.sentCount("stop"))

	// The reply to "stop" belongs to the abandoned search.
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "ignoring bestmove for abandoned search")
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, c.Searching())
}

func TestLateBestMoveNotMisdelivered(t *testing.T) {
	c, _ := fakeClient(t, "slowfirst", 1)
	c.cfg.MoveTimeout = 300 * time.Millisecond

	_, err := c.BestMove(context.Background(), types.StartFEN)
	require.True(t, errors.Is(err, engine.ErrComputeTimeout))
	assert.False(t, c.Searching())

	// a2a3 answers the first search and must not leak into this one.
	mv, err := c.BestMove(context.Background(), types.StartFEN)
	require.NoError(t, err)
	assert.Equal(t, engine.Move("e2e4"), mv)
}

func TestBestMoveContextCancel(t *testing.T) {
	c, _ := fakeClient(t, "hang", 1)
	require.NoError(t, c.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.BestMove(ctx, types.StartFEN)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, c.Searching())
	assert.Equal(t, Ready, c.State())
}

func TestConcurrentBestMoveRejected(t *testing.T) {
	c, _ := fakeClient(t, "hang", 1)
	require.NoError(t, c.Start(context.Background()))

	first := make(chan error, 1)
	go func() {
		_, err := c.BestMove(context.Background(), types.StartFEN)
		first <- err
	}()
	require.Eventually(t, c.Searching, 2*time.Second, 5*time.Millisecond)

	_, err := c.BestMove(context.Background(), types.StartFEN)
	assert.True(t, errors.Is(err, engine.ErrBusy))
	assert.True(t, c.Searching(), "the first request must keep its slot")

	// Stopping fails the in-flight request instead of leaving it hanging.
	require.NoError(t, c.Stop())
	select {
	case err := <-first:
		assert.True(t, errors.Is(err, engine.ErrTerminated))
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight search did not fail after Stop")
	}
	assert.False(t, c.Searching())
}

func TestStopIdempotent(t *testing.T) {
	c, logs := fakeClient(t, "default", 1)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.Stop())
	assert.Equal(t, Terminated, c.State())
	require.NoError(t, c.Stop())
	assert.Equal(t, Terminated, c.State())
	assert.Equal(t, 1, logs.sentCount("quit"))

	assert.True(t, errors.Is(c.Start(context.Background()), engine.ErrTerminated))
	_, err := c.BestMove(context.Background(), types.StartFEN)
	assert.True(t, errors.Is(err, engine.ErrTerminated))
}

func TestStopDuringStart(t *testing.T) {
	c, _ := fakeClient(t, "silent", 1)
	c.cfg.HandshakeTimeout = 5 * time.Second

	started := make(chan error, 1)
	begin := time.Now()
	go func() { started <- c.Start(context.Background()) }()
	require.NoError(t, c.Stop())

	select {
	case err := <-started:
		assert.True(t, errors.Is(err, engine.ErrTerminated))
	case <-time.After(3 * time.Second):
		t.Fatal("Start waited out the handshake after Stop")
	}
	assert.Less(t, time.Since(begin), 3*time.Second)
	assert.Equal(t, Terminated, c.State())
}

func TestStopBeforeStart(t *testing.T) {
	c, _ := fakeClient(t, "default", 1)
	require.NoError(t, c.Stop())
	assert.Equal(t, Terminated, c.State())
	require.NoError(t, c.Stop())
}

func TestEngineCrashDuringSearch(t *testing.T) {
	c, _ := fakeClient(t, "crash", 1)
	_, err := c.BestMove(context.Background(), types.StartFEN)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrTerminated))
	assert.Equal(t, Terminated, c.State())
	assert.False(t, c.Searching())
}

func TestPoolWithTwoEngines(t *testing.T) {
	play, playLogs := fakeClient(t, "default", 3)
	hint, hintLogs := fakeClient(t, "default", engine.HintLevel)
	pool := engine.NewPool(play, hint)

	err := pool.Run(context.Background(), func(ctx context.Context, p *engine.Pool) error {
		assert.Equal(t, Ready, play.State())
		assert.Equal(t, Ready, hint.State())

		mv, err := p.Play.BestMove(ctx, types.StartFEN)
		require.NoError(t, err)
		assert.Equal(t, engine.Move("e2e4"), mv)

		mv, err = p.Hint.BestMove(ctx, types.StartFEN)
		require.NoError(t, err)
		assert.Equal(t, engine.Move("e2e4"), mv)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Terminated, play.State())
	assert.Equal(t, Terminated, hint.State())
	assert.Equal(t, 1, playLogs.sentCount("setoption name Skill Level value 7"))
	assert.Equal(t, 1, hintLogs.sentCount("setoption name Skill Level value 20"))
}
