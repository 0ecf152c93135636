package uci

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chs/engine"
)

// fakeEngineEnv makes the test binary act as a scripted UCI engine.
const fakeEngineEnv = "CHS_FAKE_ENGINE"

func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeEngineEnv); mode != "" {
		runFakeEngine(mode)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runFakeEngine answers UCI commands on stdin according to mode:
//
//	default      uciok, then "bestmove e2e4" for every search
//	none         bestmove (none)
//	silent       never acknowledges the handshake
//	hang         never answers a search until told to stop
//	slowfirst    answers the first search late, the rest at once
//	double       answers every search twice
//	unsolicited  emits a bestmove before uciok
//	chunked      splits the bestmove line across writes
//	crash        exits when asked to search
//	stubborn     ignores the first search and "stop", answers the rest
func runFakeEngine(mode string) {
	fmt.Fprintln(os.Stderr, "fake engine starting in mode", mode)
	in := bufio.NewScanner(os.Stdin)
	searches := 0
	for in.Scan() {
		line := in.Text()
		switch {
		case line == "uci":
			if mode == "silent" {
				continue
			}
			fmt.Println("id name Fakefish")
			fmt.Println("option name Skill Level type spin default 20 min 0 max 20")
			if mode == "unsolicited" {
				fmt.Println("bestmove h2h3")
			}
			fmt.Println("uciok")
		case line == "isready":
			fmt.Println("readyok")
		case strings.HasPrefix(line, "go"):
			searches++
			switch mode {
			case "none":
				fmt.Println("bestmove (none)")
			case "hang":
			case "slowfirst":
				if searches == 1 {
					time.Sleep(400 * time.Millisecond)
					fmt.Println("bestmove a2a3")
					continue
				}
				fmt.Println("bestmove e2e4")
			case "double":
				fmt.Println("bestmove e2e4")
				fmt.Println("bestmove d2d4")
			case "chunked":
				os.Stdout.Write([]byte("info depth 1 score cp 13\r\nbestm"))
				time.Sleep(20 * time.Millisecond)
				os.Stdout.Write([]byte("ove g1f3 ponder g8f6\r\n"))
			case "crash":
				os.Exit(3)
			case "stubborn":
				if searches > 1 {
					fmt.Println("bestmove e2e4")
				}
			default:
				fmt.Println("info depth 15 score cp 20 pv e2e4 e7e5")
				fmt.Println("bestmove e2e4 ponder e7e5")
			}
		case line == "stop":
			if mode == "hang" {
				fmt.Println("bestmove a7a6")
			}
		case line == "quit":
			return
		}
	}
}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// sentCount counts how many times cmd was written to the engine.
func (b *syncBuffer) sentCount(cmd string) int {
	n := 0
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, `"message":"send"`) && strings.Contains(line, fmt.Sprintf(`"line":%q`, cmd)) {
			n++
		}
	}
	return n
}

// fakeClient returns a client whose engine is this test binary in the given mode.
func fakeClient(t *testing.T, mode string, level int) (*Client, *syncBuffer) {
	t.Helper()
	t.Setenv(fakeEngineEnv, mode)

	logs := &syncBuffer{}
	log := zerolog.New(logs).Level(zerolog.DebugLevel)

	cfg := engine.DefaultConfig()
	cfg.Path = os.Args[0]
	cfg.Level = level
	cfg.HandshakeTimeout = 3 * time.Second
	cfg.MoveTimeout = 3 * time.Second

	c := New(cfg, log)
	t.Cleanup(func() { c.Stop() })
	return c, logs
}
