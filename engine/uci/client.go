package uci

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"chs/engine"
)

// State is the lifecycle state of a Client's engine process.
type State int

const (
	NotStarted State = iota
	Starting
	Ready
	Terminated
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	cmdUCI        = "uci"
	cmdIsReady    = "isready"
	cmdStop       = "stop"
	tokenUCIOK    = "uciok"
	tokenReadyOK  = "readyok"
	tokenBest     = "bestmove"
	optionSkill   = "setoption name Skill Level value %d"
	optionThreads = "setoption name Threads value 1"
)

// drainTimeout bounds the wait for the answer to an abandoned search
// before the next search starts anyway.
const drainTimeout = time.Second

type result struct {
	move engine.Move
	err  error
}

// request is the single outstanding search. It starts out syncing, waiting
// for readyok, and is searching once "go" has been sent.
type request struct {
	id        uint64
	done      chan result
	synced    chan struct{}
	syncing   bool
	searching bool
}

// Client runs one UCI engine at a fixed skill level.
//
// Lines from the engine are handled on the process's reader goroutine.
// The pending request slot is taken exactly once, by whichever of the
// reader, the waiting caller (on timeout) or Stop gets to it first.
//
// owed counts "go" commands whose bestmove has not been read yet. Every
// search first waits for owed to reach zero, then sends isready; a bestmove
// read before readyok never reaches the new search.
type Client struct {
	cfg engine.Config
	log zerolog.Logger

	startMu sync.Mutex

	mu       sync.Mutex
	state    State
	proc     *Process
	ready    chan struct{}
	searches uint64
	owed     uint64
	settled  chan struct{}
	pending  *request
}

var _ engine.Engine = (*Client)(nil)

// New creates a client. The engine process is not launched until Start.
func New(cfg engine.Config, log zerolog.Logger) *Client {
	cfg.Level = engine.ClampLevel(cfg.Level)
	return &Client{
		cfg: cfg,
		log: log.With().
			Str("engine", filepath.Base(cfg.Path)).
			Int("skill", cfg.Level).
			Logger(),
	}
}

// Level returns the client's skill level (1-8).
func (c *Client) Level() int {
	return c.cfg.Level
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Searching returns true while a search request is outstanding.
func (c *Client) Searching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Start launches the engine and waits for the handshake to finish.
func (c *Client) Start(ctx context.Context) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case Ready:
		c.mu.Unlock()
		return nil
	case Terminated:
		c.mu.Unlock()
		return engine.ErrTerminated
	}
	proc := NewProcess(c.cfg.Path, c.log)
	ready := make(chan struct{})
	c.state = Starting
	c.proc = proc
	c.ready = ready
	c.mu.Unlock()

	proc.OnLine(c.handleLine)
	if err := proc.Start(); err != nil {
		if c.stopped() {
			return engine.ErrTerminated
		}
		c.Stop()
		return err
	}
	if c.stopped() {
		// Stop ran while the process was being spawned.
		proc.Terminate()
		return engine.ErrTerminated
	}
	go c.watch(proc)

	if err := c.handshake(proc); err != nil {
		if c.stopped() {
			return engine.ErrTerminated
		}
		c.Stop()
		return errors.Wrap(engine.ErrSpawn, err.Error())
	}

	timer := time.NewTimer(c.cfg.HandshakeTimeout)
	defer timer.Stop()

	select {
	case <-ready:
		c.log.Info().Msg("engine ready")
		return nil
	case <-timer.C:
		c.Stop()
		return errors.Wrapf(engine.ErrInitTimeout, "no %s after %s", tokenUCIOK, c.cfg.HandshakeTimeout)
	case <-proc.Done():
		if c.stopped() {
			return engine.ErrTerminated
		}
		c.Stop()
		return errors.Wrap(engine.ErrSpawn, "engine exited during handshake")
	case <-ctx.Done():
		c.Stop()
		return ctx.Err()
	}
}

func (c *Client) stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == Terminated
}

func (c *Client) handshake(proc *Process) error {
	cmds := []string{cmdUCI, fmt.Sprintf(optionSkill, engine.SkillValue(c.cfg.Level))}
	if c.cfg.SingleThread {
		cmds = append(cmds, optionThreads)
	}
	for _, cmd := range cmds {
		if err := proc.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// watch marks the client terminated if the process dies on its own.
func (c *Client) watch(proc *Process) {
	<-proc.Done()

	c.mu.Lock()
	if c.proc != proc || c.state == Terminated {
		c.mu.Unlock()
		return
	}
	c.state = Terminated
	req := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.log.Error().Msg("engine process exited unexpectedly")
	if req != nil {
		req.done <- result{err: errors.Wrap(engine.ErrTerminated, "engine exited during search")}
	}
}

func (c *Client) handleLine(line string) {
	switch {
	case strings.HasPrefix(line, tokenBest):
		c.handleBestMove(line)
	case strings.TrimSpace(line) == tokenReadyOK:
		c.mu.Lock()
		if req := c.pending; req != nil && req.syncing {
			req.syncing = false
			close(req.synced)
		}
		c.mu.Unlock()
	case strings.Contains(line, tokenUCIOK):
		c.mu.Lock()
		if c.state == Starting {
			c.state = Ready
			close(c.ready)
		}
		c.mu.Unlock()
	}
}

func (c *Client) handleBestMove(line string) {
	move := engine.NoMove
	if fields := strings.Fields(line); len(fields) >= 2 {
		move = engine.Move(fields[1])
	}

	c.mu.Lock()
	if c.owed == 0 {
		c.mu.Unlock()
		c.log.Warn().Str("line", line).Msg("ignoring unsolicited bestmove")
		return
	}
	c.owed--
	if c.owed == 0 {
		close(c.settled)
	}
	req := c.pending
	if req == nil || !req.searching || c.owed > 0 {
		c.mu.Unlock()
		c.log.Warn().Str("line", line).Msg("ignoring bestmove for abandoned search")
		return
	}
	c.pending = nil
	c.mu.Unlock()

	req.done <- result{move: move}
}

// settle forgets answers still owed for abandoned searches. c.mu must be held.
func (c *Client) settle() {
	if c.owed > 0 {
		c.owed = 0
		close(c.settled)
	}
}

// takePending clears the pending slot if it still holds req.
func (c *Client) takePending(req *request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != req {
		return false
	}
	c.pending = nil
	return true
}

// BestMove asks the engine for its move in the given FEN position.
// It returns engine.NoMove when the side to move has no legal moves.
func (c *Client) BestMove(ctx context.Context, fen string) (engine.Move, error) {
	if err := c.Start(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.state != Ready {
		c.mu.Unlock()
		return "", engine.ErrTerminated
	}
	if c.pending != nil {
		c.mu.Unlock()
		return "", engine.ErrBusy
	}
	c.searches++
	req := &request{
		id:      c.searches,
		done:    make(chan result, 1),
		synced:  make(chan struct{}),
		syncing: true,
	}
	c.pending = req
	proc := c.proc
	owed, settled := c.owed, c.settled
	c.mu.Unlock()

	timer := time.NewTimer(c.cfg.MoveTimeout)
	defer timer.Stop()
	timeout := func() error {
		return errors.Wrapf(engine.ErrComputeTimeout, "no %s after %s", tokenBest, c.cfg.MoveTimeout)
	}

	if owed > 0 {
		grace := time.NewTimer(drainTimeout)
		select {
		case <-settled:
		case <-grace.C:
			c.log.Warn().Uint64("owed", owed).Msg("engine never answered an abandoned search")
			c.mu.Lock()
			c.settle()
			c.mu.Unlock()
		case res := <-req.done:
			grace.Stop()
			return res.move, res.err
		case <-ctx.Done():
			grace.Stop()
			return c.abandon(req, proc, ctx.Err())
		}
		grace.Stop()
	}

	if err := proc.Send(cmdIsReady); err != nil {
		return c.fail(req, err)
	}
	select {
	case <-req.synced:
	case res := <-req.done:
		return res.move, res.err
	case <-timer.C:
		return c.abandon(req, proc, timeout())
	case <-ctx.Done():
		return c.abandon(req, proc, ctx.Err())
	}

	c.mu.Lock()
	if c.pending != req {
		c.mu.Unlock()
		res := <-req.done
		return res.move, res.err
	}
	req.searching = true
	if c.owed == 0 {
		c.settled = make(chan struct{})
	}
	c.owed++
	c.mu.Unlock()

	for _, cmd := range []string{"position fen " + fen, fmt.Sprintf("go depth %d", c.cfg.Depth)} {
		if err := proc.Send(cmd); err != nil {
			return c.fail(req, err)
		}
	}

	select {
	case res := <-req.done:
		return res.move, res.err
	case <-timer.C:
		return c.abandon(req, proc, timeout())
	case <-ctx.Done():
		return c.abandon(req, proc, ctx.Err())
	}
}

// abandon gives up on req. If the answer won the race, it is returned instead.
func (c *Client) abandon(req *request, proc *Process, failure error) (engine.Move, error) {
	c.mu.Lock()
	if c.pending != req {
		c.mu.Unlock()
		res := <-req.done
		return res.move, res.err
	}
	c.pending = nil
	searching := req.searching
	c.mu.Unlock()

	c.log.Warn().Err(failure).Uint64("search", req.id).Msg("search abandoned")
	if searching {
		proc.Send(cmdStop)
	}
	return "", failure
}

// fail ends req after a write to the engine failed.
func (c *Client) fail(req *request, err error) (engine.Move, error) {
	c.takePending(req)
	c.Stop()
	return "", errors.Wrap(engine.ErrTerminated, err.Error())
}

// Stop quits the engine. Any search in flight fails with engine.ErrTerminated.
func (c *Client) Stop() error {
	c.mu.Lock()
	if c.state == Terminated {
		c.mu.Unlock()
		return nil
	}
	c.state = Terminated
	req := c.pending
	c.pending = nil
	proc := c.proc
	c.mu.Unlock()

	if req != nil {
		req.done <- result{err: engine.ErrTerminated}
	}
	if proc == nil {
		return nil
	}
	c.log.Info().Msg("stopping engine")
	return proc.Terminate()
}
