// Package logging sets up the application's zerolog logger.
//
// The terminal belongs to the game, so logs go to a file under the XDG state
// directory instead of stderr.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

const logFile = "chs/chs.log"

// Init opens the log file and returns a logger at the given level name
// ("debug", "info", "warn", ...). An unknown level falls back to info.
// The returned closer must be called when the program exits.
func Init(level string) (zerolog.Logger, io.Closer, error) {
	path, err := xdg.StateFile(logFile)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	return New(f, level), f, nil
}

// New returns a logger writing JSON lines to w.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Path returns where Init writes the log.
func Path() string {
	path, err := xdg.StateFile(logFile)
	if err != nil {
		return ""
	}
	return path
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
