package engine

import (
	"fmt"
	"os"

	"github.com/josephlewis42/gsh/core/node"
	"github.com/spf13/afero"
)

const redirectPerm = 0644

// redirectFlags holds the open flags for each mode.
var redirectFlags = map[node.RedirectMode]int{
	node.Read:      os.O_RDONLY,
	node.Write:     os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	node.Append:    os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	node.ReadWrite: os.O_RDWR | os.O_CREATE,
}

// redirectAllowed reports whether the mode may target the descriptor.
func redirectAllowed(mode node.RedirectMode, fd int) bool {
	switch mode {
	case node.Read:
		return fd == node.Stdin
	case node.Write, node.Append:
		return fd == node.Stdout || fd == node.Stderr
	case node.ReadWrite:
		return fd >= node.Stdin && fd <= node.Stderr
	default:
		return false
	}
}

// applyRedirect opens the redirect target and binds it to the process slot
// it names. It must be called once, before the process starts; the opened
// file is owned by the process from then on.
func applyRedirect(fsys afero.Fs, spec node.RedirectSpec, proc *Process) error {
	fd := spec.Descriptor()
	flags, ok := redirectFlags[spec.Mode]
	if !ok || !redirectAllowed(spec.Mode, fd) {
		return fmt.Errorf("%w: %d%s", ErrUnsupportedRedirect, fd, spec.Mode)
	}

	f, err := fsys.OpenFile(spec.Path, flags, redirectPerm)
	if err != nil {
		return err
	}
	if err := proc.bind(fd, f); err != nil {
		f.Close()
		return err
	}
	return nil
}
