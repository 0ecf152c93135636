package uci

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chs/engine"
)

func TestProcessLines(t *testing.T) {
	t.Setenv(fakeEngineEnv, "chunked")
	logs := &syncBuffer{}
	p := NewProcess(os.Args[0], zerolog.New(logs).Level(zerolog.DebugLevel))

	var mu sync.Mutex
	var lines []string
	p.OnLine(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	})
	require.NoError(t, p.Start())
	defer p.Terminate()

	require.NoError(t, p.Send("uci"))
	require.NoError(t, p.Send("go depth 1"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 5
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{
		"id name Fakefish",
		"option name Skill Level type spin default 20 min 0 max 20",
		"uciok",
		"info depth 1 score cp 13",
		"bestmove g1f3 ponder g8f6",
	}, lines)
	mu.Unlock()

	// stderr is logged, not handed to the line handler.
	require.Eventually(t, func() bool {
		return containsAll(logs.String(), "engine stderr", "fake engine starting")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProcessTerminate(t *testing.T) {
	t.Setenv(fakeEngineEnv, "default")
	logs := &syncBuffer{}
	p := NewProcess(os.Args[0], zerolog.New(logs).Level(zerolog.DebugLevel))
	require.NoError(t, p.Start())

	require.NoError(t, p.Terminate())
	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process still running after Terminate")
	}
	assert.Equal(t, 1, logs.sentCount("quit"))

	require.NoError(t, p.Terminate())
	assert.True(t, errors.Is(p.Send("uci"), engine.ErrTerminated))
}

func TestProcessSpawnFailure(t *testing.T) {
	p := NewProcess("/nonexistent/stockfish", zerolog.Nop())
	err := p.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrSpawn))
	assert.NoError(t, p.Terminate())
}

func TestProcessTerminateBeforeStart(t *testing.T) {
	t.Setenv(fakeEngineEnv, "default")
	p := NewProcess(os.Args[0], zerolog.Nop())
	require.NoError(t, p.Terminate())

	assert.True(t, errors.Is(p.Start(), engine.ErrTerminated))
	assert.Nil(t, p.cmd, "no process may be spawned after Terminate")
	select {
	case <-p.Done():
	default:
		t.Fatal("Done not closed after Terminate")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
