package node

import "fmt"

// RedirectMode determines how a redirect target is opened.
type RedirectMode int

const (
	// Read opens an existing file for reading, `<`.
	Read RedirectMode = iota
	// Write creates or truncates a file, `>`.
	Write
	// Append creates or appends to a file, `>>`.
	Append
	// ReadWrite opens a file for both directions, creating it if needed, `<>`.
	ReadWrite
)

func (m RedirectMode) String() string {
	switch m {
	case Read:
		return "<"
	case Write:
		return ">"
	case Append:
		return ">>"
	case ReadWrite:
		return "<>"
	default:
		return fmt.Sprintf("RedirectMode(%d)", int(m))
	}
}

// Standard descriptor numbers.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// RedirectSpec binds a standard stream of a launched process to a file.
type RedirectSpec struct {
	Mode RedirectMode
	// FD is the explicit descriptor, nil uses the mode's default.
	FD   *int
	Path string
}

// NewRedirectSpec creates a redirect, fd may be nil to use the default
// descriptor for the mode. Only descriptors 0, 1 and 2 are supported.
func NewRedirectSpec(mode RedirectMode, fd *int, path string) (RedirectSpec, error) {
	if fd != nil && (*fd < Stdin || *fd > Stderr) {
		return RedirectSpec{}, fmt.Errorf("%w: %d", ErrUnsupportedDescriptor, *fd)
	}
	return RedirectSpec{Mode: mode, FD: fd, Path: path}, nil
}

// Descriptor returns the descriptor the redirect targets.
func (r RedirectSpec) Descriptor() int {
	if r.FD != nil {
		return *r.FD
	}
	switch r.Mode {
	case Read, ReadWrite:
		return Stdin
	default:
		return Stdout
	}
}

// FD is a helper to build optional descriptors.
func FD(n int) *int {
	return &n
}
