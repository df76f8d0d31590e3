package runner

import "errors"

var (
	// ErrEmptyCommand is returned when the runner has no command to execute.
	ErrEmptyCommand = errors.New("empty command")

	// ErrSpawn is returned when the command process cannot be started.
	ErrSpawn = errors.New("failed to execute command")
)
