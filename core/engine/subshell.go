package engine

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/gsh/core/logger"
	"github.com/josephlewis42/gsh/core/node"
)

// Isolator runs a list of nodes in a child process that can't affect the
// shell's own state and reports the child's final status.
type Isolator interface {
	Isolate(nodes []node.Node, streams Streams) (node.Status, error)
}

// ExitTranslator maps the termination of an isolated process to a status.
type ExitTranslator func(state *os.ProcessState) (node.Status, error)

// ReexecIsolator isolates nodes by formatting them back to source and
// running them with a fresh interpreter process. The child is expected to run
// every statement in order and exit with the last status.
type ReexecIsolator struct {
	// Path of the interpreter, usually the running executable.
	Path string
	// Args builds the interpreter arguments for a script, excluding argv[0].
	Args func(script string) []string
	// Env of the child, nil inherits the shell's environment.
	Env []string
	// Dir of the child, empty inherits the shell's working directory.
	Dir string
	// OS supplies the environment and working directory of the child when
	// Env or Dir are unset, nil uses the running process.
	OS OS
	// Translate maps the child's termination, defaults to TranslateExit.
	Translate ExitTranslator
}

var _ Isolator = (*ReexecIsolator)(nil)

// Isolate implements Isolator.
func (r *ReexecIsolator) Isolate(nodes []node.Node, streams Streams) (node.Status, error) {
	script, err := node.FormatList(nodes)
	if err != nil {
		return node.Failure, err
	}

	cmd := exec.Command(r.Path, r.Args(script)...)
	cmd.Env = r.Env
	cmd.Dir = r.Dir
	if r.OS != nil {
		if cmd.Env == nil {
			cmd.Env = r.OS.Environ()
		}
		if cmd.Dir == "" {
			cmd.Dir, _ = r.OS.Getwd()
		}
	}
	cmd.Stdin = streams.Stdin
	cmd.Stdout = streams.Stdout
	cmd.Stderr = streams.Stderr

	if err := cmd.Start(); err != nil {
		return node.Failure, fmt.Errorf("subshell: %w", err)
	}
	err = cmd.Wait()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return node.Failure, fmt.Errorf("subshell: %w", err)
	}

	translate := r.Translate
	if translate == nil {
		translate = TranslateExit
	}
	return translate(cmd.ProcessState)
}

// TranslateExit maps a normal exit to a status with the same code. Any other
// termination is an error with a failing status.
func TranslateExit(state *os.ProcessState) (node.Status, error) {
	switch {
	case state == nil:
		return node.Failure, errors.New("subshell: not started")
	case state.Exited():
		return node.StatusFromCode(state.ExitCode()), nil
	}

	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return node.Failure, &SignalError{Name: "subshell", Signal: ws.Signal()}
	}
	return node.Failure, fmt.Errorf("subshell: abnormal termination: %v", state)
}

func (e *Engine) runSubshell(n *node.Subshell, streams Streams) (node.Status, error) {
	if e.Isolator == nil {
		return node.Failure, ErrNoIsolator
	}

	status, err := e.Isolator.Isolate(n.Nodes, streams)
	event := &logger.SubshellExit{ExitCode: status.Code}
	if err != nil {
		event.Error = err.Error()
	}
	e.record(event)
	return status, err
}
