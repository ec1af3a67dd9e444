// Package engine executes command trees.
//
// Every node kind supports two operations: Execute runs a node to completion
// and reports its status, Capture runs it to completion and returns the text
// it wrote to standard output. Errors are caught at the boundary of the node
// that produced them; the engine reports them as one line diagnostics on the
// error stream and carries on with a failing status.
package engine

import (
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/josephlewis42/gsh/core/logger"
	"github.com/josephlewis42/gsh/core/node"
	"github.com/spf13/afero"
)

// EventRecorder receives execution events.
type EventRecorder interface {
	Record(event logger.LogType) error
}

// Engine runs nodes against an OS.
type Engine struct {
	// Streams are the shell's own standard streams.
	Streams Streams
	OS      OS
	// Fs is used to resolve programs and open redirect targets.
	Fs       afero.Fs
	Builtins map[string]Builtin
	// Isolator runs subshells, nil disables them.
	Isolator Isolator
	Events   EventRecorder
	// Trace receives debug output.
	Trace *log.Logger
	// LastStatus is the status of the most recently completed command, the
	// value of $?. It is updated after every top-level node and every
	// and-or element.
	LastStatus node.Status
}

// New creates an engine backed by the host filesystem with the default
// builtins and no subshell support.
func New(sys OS, streams Streams) *Engine {
	return &Engine{
		Streams:  streams,
		OS:       sys,
		Fs:       afero.NewOsFs(),
		Builtins: AllBuiltins,
		Events:   logger.NopRecorder{},
		Trace:    log.New(io.Discard, "", 0),
	}
}

// IsBuiltin reports whether name is dispatched to a builtin.
func (e *Engine) IsBuiltin(name string) bool {
	_, ok := e.Builtins[name]
	return ok
}

// Run executes a top-level node with the shell's streams. Errors are reported
// and turned into a failing status.
func (e *Engine) Run(n node.Node) node.Status {
	e.LastStatus = e.execReporting(n, e.Streams)
	return e.LastStatus
}

// Execute runs a node to completion and returns its status. The returned
// error has not been reported yet; errors from nested nodes have.
func (e *Engine) Execute(n node.Node, streams Streams) (node.Status, error) {
	e.trace(n)

	switch n := n.(type) {
	case *node.Simple:
		proc, err := e.launch(n.Name, n.Args, streams)
		if err != nil {
			return node.Failure, err
		}
		return proc.Run()

	case *node.Redirected:
		proc, err := e.launchRedirected(n, streams)
		if err != nil {
			return node.Failure, err
		}
		return proc.Run()

	case *node.Builtin:
		return e.runBuiltin(n.Args, streams)

	case *node.Pipeline:
		var status node.Status
		var err error
		switch len(n.Stages) {
		case 0:
			return node.Failure, node.ErrEmptyPipeline
		case 1:
			// Stage errors are reported here, as runPipeline does.
			if status, err = e.Execute(n.Stages[0], streams); err != nil {
				e.Report(err)
				err = nil
				if status.Succeeded() {
					status = node.Failure
				}
			}
		default:
			status = e.runPipeline(n.Stages, streams, streams.Stdout)
		}
		if n.Negated {
			status = status.Negate()
		}
		return status, err

	case *node.AndOrList:
		return e.evalAndOr(n, streams), nil

	case *node.Subshell:
		return e.runSubshell(n, streams)

	case *node.Deferred:
		built, err := n.Build()
		if err != nil {
			return node.Failure, err
		}
		return e.Execute(built, streams)

	case *node.Unimplemented:
		e.record(&logger.Unimplemented{Feature: n.Feature, Source: n.Source})
		return node.Failure, n

	default:
		return node.Failure, fmt.Errorf("unknown node type %T", n)
	}
}

// Capture runs a node to completion with the shell's input and error streams
// and returns everything it wrote to its output.
func (e *Engine) Capture(n node.Node) (string, error) {
	return e.capture(n, e.Streams)
}

func (e *Engine) capture(n node.Node, streams Streams) (string, error) {
	e.trace(n)

	switch n := n.(type) {
	case *node.Simple:
		proc, err := e.launch(n.Name, n.Args, streams)
		if err != nil {
			return "", err
		}
		return proc.RunCapturingOutput()

	case *node.Redirected:
		proc, err := e.launchRedirected(n, streams)
		if err != nil {
			return "", err
		}
		return proc.RunCapturingOutput()

	case *node.Builtin:
		return "", fmt.Errorf("%s: %w", n.Name(), ErrCaptureUnsupported)

	case *node.Pipeline:
		switch len(n.Stages) {
		case 0:
			return "", node.ErrEmptyPipeline
		case 1:
			return e.capture(n.Stages[0], streams)
		}
		if last, ok := n.Stages[len(n.Stages)-1].(*node.Builtin); ok {
			return "", fmt.Errorf("%s: %w", last.Name(), ErrCaptureUnsupported)
		}
		var sb strings.Builder
		e.runPipeline(n.Stages, streams, &sb)
		return sb.String(), nil

	case *node.AndOrList:
		return e.captureAndOr(n, streams), nil

	case *node.Subshell:
		return "", fmt.Errorf("subshell: %w", ErrCaptureUnsupported)

	case *node.Deferred:
		built, err := n.Build()
		if err != nil {
			return "", err
		}
		return e.capture(built, streams)

	case *node.Unimplemented:
		e.record(&logger.Unimplemented{Feature: n.Feature, Source: n.Source})
		return "", n

	default:
		return "", fmt.Errorf("unknown node type %T", n)
	}
}

// execReporting executes a node and reports its error. A node that errors
// never reports success.
func (e *Engine) execReporting(n node.Node, streams Streams) node.Status {
	status, err := e.Execute(n, streams)
	if err != nil {
		e.Report(err)
		if status.Succeeded() {
			status = node.Failure
		}
	}
	return status
}

// captureReporting captures a node and reports its error, a failed node
// contributes no text.
func (e *Engine) captureReporting(n node.Node, streams Streams) string {
	out, err := e.capture(n, streams)
	if err != nil {
		e.Report(err)
		return ""
	}
	return out
}

// launch resolves a program and prepares a process for it.
func (e *Engine) launch(name string, args []string, streams Streams) (*Process, error) {
	path, err := e.lookPath(name)
	if err != nil {
		e.record(&logger.UnknownCommand{Command: args, ErrorMessage: err.Error()})
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	proc := NewProcess(path, args, streams)
	proc.Env = e.OS.Environ()
	proc.Dir, _ = e.OS.Getwd()
	proc.OnExit = e.recordExit
	return proc, nil
}

func (e *Engine) launchRedirected(n *node.Redirected, streams Streams) (*Process, error) {
	proc, err := e.launch(n.Launch.Name, n.Launch.Args, streams)
	if err != nil {
		return nil, err
	}

	spec := n.Redirect
	spec.Path = e.resolve(spec.Path)
	if err := applyRedirect(e.Fs, spec, proc); err != nil {
		return nil, fmt.Errorf("%s: %w", n.Redirect.Path, err)
	}
	return proc, nil
}

// recordExit logs the termination of a launched process.
func (e *Engine) recordExit(proc *Process, status node.Status, err error) {
	event := &logger.RunCommand{
		Command:             proc.Args,
		ResolvedCommandPath: proc.Path,
		ExitCode:            status.Code,
	}
	if sigErr, ok := err.(*SignalError); ok {
		event.Signal = sigErr.Signal.String()
	}
	e.record(event)
}

func (e *Engine) runBuiltin(args []string, streams Streams) (node.Status, error) {
	if len(args) == 0 {
		return node.Failure, node.ErrEmptyCommand
	}
	builtin, ok := e.Builtins[args[0]]
	if !ok {
		return node.Failure, fmt.Errorf("%w: %s", ErrUnknownBuiltin, args[0])
	}

	status, err := builtin.Main(&BuiltinContext{Engine: e, Streams: streams}, args)
	if err != nil {
		e.record(&logger.InvalidInvocation{Command: args, Error: err.Error()})
		return status, fmt.Errorf("%s: %w", args[0], err)
	}
	return status, nil
}

// ReplaceImage replaces the shell with the named program. It only returns
// if the replacement failed.
func (e *Engine) ReplaceImage(name string, argv []string) *ExecFailure {
	path, err := e.lookPath(name)
	if err != nil {
		return &ExecFailure{Path: name, Err: err}
	}

	e.Trace.Printf("exec %s %q", path, argv)
	err = e.OS.Exec(path, argv, e.OS.Environ())
	if err == nil {
		err = errImageNotReplaced
	}
	return &ExecFailure{Path: path, Err: err}
}

// lookPath resolves a program name against $PATH relative to the working
// directory of the OS.
func (e *Engine) lookPath(name string) (string, error) {
	if strings.Contains(name, "/") {
		return LookPath(e.Fs, "", e.resolve(name))
	}

	var dirs []string
	for _, dir := range filepath.SplitList(e.OS.Getenv(EnvPath)) {
		dirs = append(dirs, e.resolve(dir))
	}
	return LookPath(e.Fs, strings.Join(dirs, string(filepath.ListSeparator)), name)
}

// resolve makes a path absolute using the working directory of the OS.
func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	wd, err := e.OS.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(wd, path)
}

// Report writes a one line diagnostic to the shell's error stream.
func (e *Engine) Report(err error) {
	fmt.Fprintf(e.Streams.Stderr, "%s %v\n", diagnosticPrefix.Sprint("gsh:"), err)
}

var diagnosticPrefix = color.New(color.FgRed, color.Bold)

func (e *Engine) record(event logger.LogType) {
	if err := e.Events.Record(event); err != nil {
		e.Trace.Printf("recording event: %v", err)
	}
}

func (e *Engine) trace(n node.Node) {
	if e.Trace.Writer() == io.Discard {
		return
	}
	if src, err := node.Format(n); err == nil {
		e.Trace.Printf("%T: %s", n, src)
	} else {
		e.Trace.Printf("%T: %v", n, err)
	}
}
