package engine

import "errors"

var (
	// ErrSpawn means the engine executable could not be started.
	ErrSpawn = errors.New("failed to start engine")

	// ErrInitTimeout means the engine never acknowledged the handshake.
	ErrInitTimeout = errors.New("engine initialization timeout")

	// ErrComputeTimeout means the engine did not answer a search in time.
	// The engine stays usable.
	ErrComputeTimeout = errors.New("engine timeout")

	// ErrBusy is returned when a search is requested while another is in flight.
	ErrBusy = errors.New("engine is already searching")

	// ErrTerminated is returned once an engine has been stopped or has died.
	ErrTerminated = errors.New("engine terminated")

	// ErrInvalidLevel is returned for a level that isn't a number.
	ErrInvalidLevel = errors.New("invalid level")
)
