// Package engine defines the interface for chess engines.
package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Engine defines the interface for asking an engine for moves.
type Engine interface {
	// Start launches the engine and completes the handshake.
	// Calling Start on a ready engine does nothing.
	Start(ctx context.Context) error

	// BestMove searches the given FEN position and returns the engine's move.
	// It starts the engine first if needed. Only one call may be in flight.
	BestMove(ctx context.Context, fen string) (Move, error)

	// Stop shuts the engine down. Safe to call more than once.
	Stop() error
}

// Move is a move in coordinate notation, e.g. "e2e4" or "e7e8q".
type Move string

// NoMove is what the engine reports when the side to move has no legal move.
const NoMove Move = "(none)"

// IsNone returns true if the engine had no move to play.
func (m Move) IsNone() bool {
	return m == NoMove || m == ""
}

func (m Move) String() string {
	return string(m)
}

const (
	MinLevel = 1
	MaxLevel = 8
)

// skillValues maps levels 1-8 to Stockfish's "Skill Level" option (0-20).
var skillValues = [MaxLevel]int{1, 4, 7, 10, 12, 14, 17, 20}

// ClampLevel forces a level into the 1-8 range.
func ClampLevel(level int) int {
	return lo.Clamp(level, MinLevel, MaxLevel)
}

// SkillValue returns the engine strength setting for a level.
// Out-of-range levels are clamped first.
func SkillValue(level int) int {
	return skillValues[ClampLevel(level)-1]
}

// ParseLevel parses a level given on the command line.
// Numbers outside 1-8 are clamped; anything else is an error.
func ParseLevel(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidLevel, "%q", s)
	}
	return ClampLevel(n), nil
}

// Config holds the settings for one engine instance.
type Config struct {
	Path             string        // Path to the engine binary
	Level            int           // 1-8
	Depth            int           // Search depth for "go depth"
	HandshakeTimeout time.Duration // Limit for receiving uciok
	MoveTimeout      time.Duration // Limit for receiving bestmove
	SingleThread     bool          // Restrict the engine to one thread
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() Config {
	return Config{
		Path:             "stockfish",
		Level:            1,
		Depth:            15,
		HandshakeTimeout: 5 * time.Second,
		MoveTimeout:      10 * time.Second,
	}
}

// WithLevel returns a copy of the config at a different level.
func (c Config) WithLevel(level int) Config {
	c.Level = ClampLevel(level)
	return c
}
