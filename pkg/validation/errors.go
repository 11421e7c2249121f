package validation

import (
	"errors"
	"fmt"
	"time"
)

// Stable finding codes used across the pipeline. Domain rules define
// their own codes alongside these.
const (
	// CodeTimeout marks a finding produced when an operation exceeded its
	// allotted time.
	CodeTimeout = "TIMEOUT"

	// CodeExecutionError marks a finding produced when a rule or validator
	// body panicked or returned a Go error.
	CodeExecutionError = "EXECUTION_ERROR"

	// CodeValidatorError marks a finding produced when a validator failed
	// to run to completion.
	CodeValidatorError = "VALIDATOR_ERROR"
)

// Common sentinel errors.
var (
	// ErrDuplicateName indicates a registration used a name already present
	// in the registry.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrCyclicDependency indicates a registration would create a
	// dependency cycle.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownName indicates a lookup or explicit selection referenced a
	// name that is not registered.
	ErrUnknownName = errors.New("unknown name")
)

// ConfigurationError indicates structural misconfiguration detected at
// registration time: a duplicate name or a dependency cycle. It is the only
// error class the pipeline surfaces to callers; domain validation failures
// are always reported as data inside a Result.
type ConfigurationError struct {
	// Component names the rule or validator whose registration failed.
	Component string

	// Reason describes the misconfiguration.
	Reason string

	// Cause is the underlying sentinel or graph error.
	Cause error
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error for %q: %s: %v", e.Component, e.Reason, e.Cause)
	}
	return fmt.Sprintf("configuration error for %q: %s", e.Component, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// TimeoutError indicates an operation exceeded its allotted time. The
// engine stops waiting on the operation but cannot abort it; side effects
// produced after the timeout are not retracted.
type TimeoutError struct {
	// Operation names the rule or validator that timed out.
	Operation string

	// Timeout is the limit that was exceeded.
	Timeout time.Duration
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.Operation, e.Timeout)
}

// ExecutionError indicates an uncaught failure inside a rule or validator
// body. The engine converts it into a failed result at the call boundary.
type ExecutionError struct {
	// Operation names the rule or validator that failed.
	Operation string

	// Cause is the returned error or recovered panic value.
	Cause error
}

// Error returns the error message.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: execution failed: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
