// Package cncerrors defines the fatal error taxonomy shared by the
// interpreter, planner, executor, and controller. Every kind here except
// StateError, which only rejects a command, aborts the current job; the
// parser and modal state never raise (spec §7).
package cncerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ModalError covers unsupported plane codes during arc expansion and a
// missing feedrate on Linear/arc motion at interpretation time.
type ModalError struct {
	Line    int
	Message string
}

func (e *ModalError) Error() string {
	return fmt.Sprintf("modal error at line %d: %s", e.Line, e.Message)
}

// NewModalError wraps message with a stack trace at the raise site.
func NewModalError(line int, format string, args ...interface{}) error {
	return errors.WithStack(&ModalError{Line: line, Message: fmt.Sprintf(format, args...)})
}

// GeometryError covers zero-radius arcs, identical R-arc endpoints, and
// chords exceeding 2|R|.
type GeometryError struct {
	Line    int
	Message string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error at line %d: %s", e.Line, e.Message)
}

// NewGeometryError wraps message with a stack trace at the raise site.
func NewGeometryError(line int, format string, args ...interface{}) error {
	return errors.WithStack(&GeometryError{Line: line, Message: fmt.Sprintf(format, args...)})
}

// SoftLimitError reports a machine-space endpoint outside configured bounds.
type SoftLimitError struct {
	Axis     string
	Value    float64
	Min, Max float64
}

func (e *SoftLimitError) Error() string {
	return fmt.Sprintf("%s-axis soft limit exceeded: %.4f (limits %.4f to %.4f)",
		e.Axis, e.Value, e.Min, e.Max)
}

// NewSoftLimitError wraps a SoftLimitError with a stack trace.
func NewSoftLimitError(axis string, value, min, max float64) error {
	return errors.WithStack(&SoftLimitError{Axis: axis, Value: value, Min: min, Max: max})
}

// ExecutorError wraps a failure surfaced by the executor sink.
type ExecutorError struct {
	Cause error
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("executor error: %v", e.Cause)
}

func (e *ExecutorError) Unwrap() error { return e.Cause }

// NewExecutorError wraps cause with a stack trace.
func NewExecutorError(cause error) error {
	return errors.WithStack(&ExecutorError{Cause: cause})
}

// StateError covers invalid controller command transitions (START while
// not Idle, resume while not Hold, start after Cancel without reset).
type StateError struct {
	Command string
	State   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid command %s in state %s", e.Command, e.State)
}

// NewStateError wraps a StateError with a stack trace.
func NewStateError(command, state string) error {
	return errors.WithStack(&StateError{Command: command, State: state})
}

// ExitCode determines the process exit code for an error, mirroring the
// teacher's PrintError-by-type dispatch (internal/cli/output.go) but
// generalized over the full taxonomy.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var stateErr *StateError
	var modalErr *ModalError
	var geomErr *GeometryError
	var limitErr *SoftLimitError
	var execErr *ExecutorError

	switch {
	case errors.As(err, &stateErr):
		return 2
	case errors.As(err, &modalErr):
		return 3
	case errors.As(err, &geomErr):
		return 4
	case errors.As(err, &limitErr):
		return 5
	case errors.As(err, &execErr):
		return 6
	default:
		return 1
	}
}
