// Package uci drives a chess engine subprocess over the Universal Chess Interface.
package uci

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"chs/engine"
)

// quitGrace is how long a process gets to exit after "quit" before it is killed.
const quitGrace = 250 * time.Millisecond

// Process owns one engine subprocess and its three streams.
// It knows nothing about the protocol beyond line framing.
type Process struct {
	path   string
	log    zerolog.Logger
	onLine func(line string)

	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}

	writeMu  sync.Mutex
	closed   bool
	stopOnce sync.Once
}

// NewProcess prepares a process for the binary at path. Nothing runs until Start.
func NewProcess(path string, log zerolog.Logger) *Process {
	return &Process{
		path: path,
		log:  log,
		done: make(chan struct{}),
	}
}

// OnLine registers the handler called once per complete stdout line.
// It must be set before Start and is called from a single goroutine.
func (p *Process) OnLine(fn func(line string)) {
	p.onLine = fn
}

// Start spawns the engine with no arguments. It fails with
// engine.ErrTerminated once Terminate has been called.
func (p *Process) Start() error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.closed {
		return engine.ErrTerminated
	}
	p.cmd = exec.Command(p.path)

	var err error
	p.stdin, err = p.cmd.StdinPipe()
	if err != nil {
		return errors.Wrapf(engine.ErrSpawn, "stdin pipe: %v", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return errors.Wrapf(engine.ErrSpawn, "stdout pipe: %v", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return errors.Wrapf(engine.ErrSpawn, "stderr pipe: %v", err)
	}

	if err := p.cmd.Start(); err != nil {
		p.closed = true
		close(p.done)
		return errors.Wrapf(engine.ErrSpawn, "%s: %v", p.path, err)
	}
	p.log.Info().Str("path", p.path).Int("pid", p.cmd.Process.Pid).Msg("engine process started")

	// Wait closes the pipes, so it may only run once both readers hit EOF.
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		p.readStdout(stdout)
	}()
	go func() {
		defer readers.Done()
		p.readStderr(stderr)
	}()
	go func() {
		readers.Wait()
		err := p.cmd.Wait()
		p.log.Info().AnErr("exit", err).Msg("engine process exited")
		close(p.done)
	}()
	return nil
}

func (p *Process) readStdout(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		p.log.Debug().Str("line", line).Msg("recv")
		if p.onLine != nil {
			p.onLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Warn().Err(err).Msg("reading engine output")
	}
}

func (p *Process) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.log.Warn().Str("line", scanner.Text()).Msg("engine stderr")
	}
}

// Send writes one newline-terminated command.
func (p *Process) Send(line string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.closed || p.stdin == nil {
		return engine.ErrTerminated
	}
	p.log.Debug().Str("line", line).Msg("send")
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return errors.Wrapf(err, "send %q", line)
	}
	return nil
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Terminate sends "quit" and makes sure the process is gone.
func (p *Process) Terminate() error {
	var err error
	p.stopOnce.Do(func() {
		p.writeMu.Lock()
		if p.cmd == nil || p.cmd.Process == nil {
			// Never started: make a later Start fail.
			if !p.closed {
				p.closed = true
				close(p.done)
			}
			p.writeMu.Unlock()
			return
		}
		p.writeMu.Unlock()
		p.Send("quit")

		p.writeMu.Lock()
		if !p.closed {
			p.closed = true
			p.stdin.Close()
		}
		p.writeMu.Unlock()

		select {
		case <-p.done:
		case <-time.After(quitGrace):
			if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
				err = errors.Wrap(kerr, "kill engine")
			}
			<-p.done
		}
	})
	return err
}
