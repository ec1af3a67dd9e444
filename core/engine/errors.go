package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedRedirect is returned when a redirect's mode can't target
	// the requested descriptor.
	ErrUnsupportedRedirect = errors.New("unsupported redirect")

	// ErrUnknownBuiltin is returned when dispatching a name that isn't in the
	// builtin registry.
	ErrUnknownBuiltin = errors.New("unknown builtin")

	// ErrCaptureUnsupported is returned when capturing the output of a node
	// kind that can't be captured (builtins and subshells).
	ErrCaptureUnsupported = errors.New("output capture not supported")

	// ErrNoIsolator is returned when running a subshell without an Isolator.
	ErrNoIsolator = errors.New("subshells are not available")
)

// ExecFailure is the only result of replacing the process image, success
// never returns.
type ExecFailure struct {
	Path string
	Err  error
}

func (e *ExecFailure) Error() string {
	return fmt.Sprintf("exec %s: %v", e.Path, e.Err)
}

func (e *ExecFailure) Unwrap() error {
	return e.Err
}

var errImageNotReplaced = errors.New("process image was not replaced")
