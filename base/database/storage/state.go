package storage

import (
	"fmt"
	"sync"

	"github.com/tevino/abool"

	"github.com/safing/recorddb/base/log"
)

// State is the enabled and debug state of one engine. Engines embed it to
// provide IsEnabled, SetDebugMode, IsDebugMode and Err.
type State struct {
	backend string

	enabled *abool.AtomicBool
	debug   *abool.AtomicBool

	errLock sync.Mutex
	err     error
}

// NewState returns the state of a new, enabled engine of the given backend.
func NewState(backend string) *State {
	return &State{
		backend: backend,
		enabled: abool.NewBool(true),
		debug:   abool.New(),
	}
}

// Backend returns the name of the backend.
func (s *State) Backend() string {
	return s.backend
}

// IsEnabled returns whether the engine still executes operations.
func (s *State) IsEnabled() bool {
	return s.enabled.IsSet()
}

// Disable permanently disables the engine. The first error is kept and
// returned by Err.
func (s *State) Disable(err error) {
	s.errLock.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errLock.Unlock()

	if s.enabled.SetToIf(true, false) {
		log.Errorf("database/%s: disabled: %s", s.backend, err)
		s.Debugf("status changed to disabled")
	}
}

// MarkClosed disables the engine after it released its connection.
func (s *State) MarkClosed() {
	s.errLock.Lock()
	if s.err == nil {
		s.err = ErrClosed
	}
	s.errLock.Unlock()

	if s.enabled.SetToIf(true, false) {
		s.Debugf("status changed to closed")
	}
}

// Err returns the error that disabled the engine.
func (s *State) Err() error {
	s.errLock.Lock()
	defer s.errLock.Unlock()

	return s.err
}

// SetDebugMode sets whether statements and status changes are emitted.
func (s *State) SetDebugMode(debug bool) {
	s.debug.SetTo(debug)
}

// IsDebugMode returns whether debug mode is on.
func (s *State) IsDebugMode() bool {
	return s.debug.IsSet()
}

// Debugf emits a message on the debug channel if debug mode is on.
func (s *State) Debugf(format string, things ...any) {
	if s.debug.IsSet() {
		log.Infof("database/%s: %s", s.backend, fmt.Sprintf(format, things...))
	}
}

// Check returns ErrDisabled if the engine is disabled.
func (s *State) Check() error {
	if !s.enabled.IsSet() {
		return ErrDisabled
	}
	return nil
}
