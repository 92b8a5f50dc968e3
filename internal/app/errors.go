package app

import "errors"

var (
	// ErrConfigValidation indicates a rejected configuration or roster
	// update; the previous state remains in force.
	ErrConfigValidation = errors.New("configuration validation failed")

	// ErrNotRunning indicates an operation against a stopped service.
	ErrNotRunning = errors.New("assignment engine is not running")
)
