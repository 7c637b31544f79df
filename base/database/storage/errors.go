package storage

import (
	"errors"
	"fmt"
)

// Errors for storages.
var (
	ErrDisabled    = errors.New("database engine is disabled")
	ErrUnknownType = errors.New("unknown database type")
	ErrClosed      = errors.New("database engine is closed")
)

// ConfigurationError describes invalid or missing construction parameters.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid database configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid database configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConnectionError describes a failed initial connection. The engine it
// belongs to was created disabled.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database/%s: failed to connect: %s", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ExecutionError describes a failed statement or command. The engine it
// belongs to is disabled after it occurred.
type ExecutionError struct {
	Backend   string
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("database/%s: failed to execute %q: %s", e.Backend, e.Statement, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
