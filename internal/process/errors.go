package process

import (
	"errors"
	"fmt"
	"time"
)

// ErrSaturated is returned when the concurrency ceiling is reached and no
// slot became free within the configured queue timeout.
var ErrSaturated = errors.New("too many concurrent tool invocations")

type (
	// LaunchError indicates the executable could not be started at all
	// (e.g. it does not exist, or is not executable).
	LaunchError struct {
		Binary string
		Err    error
	}

	// ExecutionError indicates the process ran, but exited with a non-zero
	// status. Diagnostic holds a truncated excerpt of the processes stderr.
	ExecutionError struct {
		ExitCode   int
		Diagnostic string
		Err        error
	}

	// TimeoutError indicates the process was killed after exceeding its timeout.
	TimeoutError struct {
		After time.Duration
	}
)

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %s", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

func (e *ExecutionError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("exit status %d", e.ExitCode)
	}

	return fmt.Sprintf("exit status %d: %s", e.ExitCode, e.Diagnostic)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.After)
}
