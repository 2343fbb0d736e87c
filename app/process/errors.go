package process

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindLaunchFailed ErrorKind = "launch_failed"
	KindNonZeroExit  ErrorKind = "non_zero_exit"
	KindTimeout      ErrorKind = "timeout"
)

var (
	ErrLaunchFailed = errors.New("process launch failed")
	ErrNonZeroExit  = errors.New("process exited with non-zero status")
	ErrTimeout      = errors.New("process timed out")
)

// Error describes a failed child process run.
type Error struct {
	Kind    ErrorKind
	Command string
	Code    int
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNonZeroExit:
		if e.Stderr != "" {
			return fmt.Sprintf("%s: exit code %d: %s", e.Command, e.Code, e.Stderr)
		}
		return fmt.Sprintf("%s: exit code %d", e.Command, e.Code)
	case KindTimeout:
		return fmt.Sprintf("%s: timed out: %v", e.Command, e.Err)
	default:
		return fmt.Sprintf("%s: failed to launch: %v", e.Command, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrLaunchFailed:
		return e.Kind == KindLaunchFailed
	case ErrNonZeroExit:
		return e.Kind == KindNonZeroExit
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}
