package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned by every operation of a client built without
	// an API key.
	ErrDisabled = errors.New("agentops client is disabled: no API key configured")

	// ErrNoActiveSession is returned when an operation needs a started
	// session and there is none.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionActive is returned when starting a session while another is
	// starting or started.
	ErrSessionActive = errors.New("a session is already active")

	// ErrQueueFull is returned when an event arrives while the queue holds
	// its hard limit of undelivered events.
	ErrQueueFull = errors.New("event queue is full")

	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("agentops client is shut down")
)

// LocalValidationError is an operation refused before anything was sent:
// a malformed event or an invalid session transition.
type LocalValidationError struct {
	Op  string
	Err error
}

func (e *LocalValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LocalValidationError) Unwrap() error {
	return e.Err
}

// FatalProcessError describes a panic that escaped the host program. It
// becomes the end_state_reason of the session ended on its way out.
type FatalProcessError struct {
	Value any
	Stack []byte
}

func (e *FatalProcessError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

func (e *FatalProcessError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
