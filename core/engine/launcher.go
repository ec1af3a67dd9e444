package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/gsh/core/node"
)

// SignalError is returned when a process is terminated by a signal rather
// than exiting.
type SignalError struct {
	Name   string
	Signal syscall.Signal
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%s: terminated by signal: %v", e.Name, e.Signal)
}

// Status is the shell status reported for a signal termination.
func (e *SignalError) Status() node.Status {
	return node.StatusFromCode(128 + int(e.Signal))
}

// Process is a single OS process waiting to be launched.
//
// Stream slots bound by a redirect can't be rebound by pipeline wiring, the
// Set methods silently keep the redirect target.
type Process struct {
	// Path is the resolved path of the program.
	Path string
	// Args holds command line arguments, including the command as Args[0].
	Args []string
	// Env is the environment of the process, nil inherits the shell's.
	Env []string
	// Dir is the working directory, empty uses the shell's.
	Dir string
	// OnExit, if set, observes the result of Wait.
	OnExit func(p *Process, status node.Status, err error)

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	bound   [3]bool
	closers []io.Closer
	cmd     *exec.Cmd
}

// NewProcess creates a process that inherits the given streams.
func NewProcess(path string, args []string, streams Streams) *Process {
	return &Process{
		Path:   path,
		Args:   args,
		stdin:  streams.Stdin,
		stdout: streams.Stdout,
		stderr: streams.Stderr,
	}
}

// SetStdin binds the input slot unless a redirect already did.
func (p *Process) SetStdin(r io.Reader) {
	if !p.bound[node.Stdin] {
		p.stdin = r
	}
}

// SetStdout binds the output slot unless a redirect already did.
func (p *Process) SetStdout(w io.Writer) {
	if !p.bound[node.Stdout] {
		p.stdout = w
	}
}

// SetStderr binds the error slot unless a redirect already did.
func (p *Process) SetStderr(w io.Writer) {
	if !p.bound[node.Stderr] {
		p.stderr = w
	}
}

// Bound reports whether a redirect owns the slot for the descriptor.
func (p *Process) Bound(fd int) bool {
	return fd >= 0 && fd < len(p.bound) && p.bound[fd]
}

// bind attaches a redirect target to a slot. The closer is released after the
// process exits or fails to start.
func (p *Process) bind(fd int, target io.Closer) error {
	switch fd {
	case node.Stdin:
		r, ok := target.(io.Reader)
		if !ok {
			return fmt.Errorf("descriptor %d: target isn't readable", fd)
		}
		p.stdin = r
	case node.Stdout, node.Stderr:
		w, ok := target.(io.Writer)
		if !ok {
			return fmt.Errorf("descriptor %d: target isn't writable", fd)
		}
		if fd == node.Stdout {
			p.stdout = w
		} else {
			p.stderr = w
		}
	default:
		return fmt.Errorf("%w: %d", node.ErrUnsupportedDescriptor, fd)
	}
	p.bound[fd] = true
	p.closers = append(p.closers, target)
	return nil
}

// Start launches the process without waiting for it.
func (p *Process) Start() error {
	if p.cmd != nil {
		return errors.New("process already started")
	}

	p.cmd = &exec.Cmd{
		Path:   p.Path,
		Args:   p.Args,
		Env:    p.Env,
		Dir:    p.Dir,
		Stdin:  p.stdin,
		Stdout: p.stdout,
		Stderr: p.stderr,
	}
	if err := p.cmd.Start(); err != nil {
		p.release()
		return fmt.Errorf("%s: %w", p.name(), err)
	}
	return nil
}

// Wait waits for a started process to exit and converts its exit code to a
// status. A signal termination produces a *SignalError.
func (p *Process) Wait() (node.Status, error) {
	if p.cmd == nil {
		return node.Failure, errors.New("process not started")
	}

	status, err := p.wait()
	if p.OnExit != nil {
		p.OnExit(p, status, err)
	}
	return status, err
}

func (p *Process) wait() (node.Status, error) {
	err := p.cmd.Wait()
	p.release()

	if err == nil {
		return node.Success, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return node.Failure, fmt.Errorf("%s: %w", p.name(), err)
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sigErr := &SignalError{Name: p.name(), Signal: ws.Signal()}
		return sigErr.Status(), sigErr
	}
	return node.StatusFromCode(exitErr.ExitCode()), nil
}

// Run starts the process and waits for it to complete.
func (p *Process) Run() (node.Status, error) {
	if err := p.Start(); err != nil {
		return node.Failure, err
	}
	return p.Wait()
}

// RunCapturingOutput runs the process with its output sent to a buffer and
// returns everything it wrote. Bytes that aren't valid UTF-8 are returned
// as-is. The exit status is ignored, only launch failures and signals are
// errors.
func (p *Process) RunCapturingOutput() (string, error) {
	buf := &bytes.Buffer{}
	p.SetStdout(buf)
	_, err := p.Run()
	return buf.String(), err
}

// Pid returns the process ID once started.
func (p *Process) Pid() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *Process) name() string {
	if len(p.Args) > 0 {
		return p.Args[0]
	}
	return p.Path
}

// release closes every redirect target the process owns.
func (p *Process) release() {
	for _, c := range p.closers {
		c.Close()
	}
	p.closers = nil
}
