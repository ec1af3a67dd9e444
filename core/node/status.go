package node

import "fmt"

// Status is the exit code of a completed node.
type Status struct {
	Code int
}

var (
	// Success is the status of a node that completed without error.
	Success = Status{Code: 0}
	// Failure is the generic failing status.
	Failure = Status{Code: 1}
)

// StatusFromCode creates a status from a process exit code.
func StatusFromCode(code int) Status {
	return Status{Code: code}
}

// Succeeded is true if the exit code was zero.
func (s Status) Succeeded() bool {
	return s.Code == 0
}

// Negate returns a failing status for a successful one and vice versa.
func (s Status) Negate() Status {
	if s.Succeeded() {
		return Failure
	}
	return Success
}

func (s Status) String() string {
	return fmt.Sprintf("exit status %d", s.Code)
}
