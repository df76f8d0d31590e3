package config

import "errors"

var (
	// ErrNoCommand is returned when neither the command line nor the config
	// file supplies a command.
	ErrNoCommand = errors.New("no command specified. Use CLI arguments or a config file")

	// ErrConfigRead wraps failures to read a config file.
	ErrConfigRead = errors.New("failed to read config file")

	// ErrInvalidYAML wraps failures to decode a config file.
	ErrInvalidYAML = errors.New("failed to parse config file")

	// ErrInvalidBackend is returned for an unknown watch backend name.
	ErrInvalidBackend = errors.New("unknown watch backend")

	// ErrInvalidInterval is returned when stats are enabled with a zero interval.
	ErrInvalidInterval = errors.New("stats interval must be greater than zero")
)
