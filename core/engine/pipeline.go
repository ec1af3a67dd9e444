package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/josephlewis42/gsh/core/node"
)

// stageRun tracks one stage of a running pipeline.
type stageRun struct {
	proc   *Process
	status node.Status
	err    error
}

// runPipeline runs two or more stages, connecting the output of each stage
// to the input of the next. The last stage writes to out. Stage errors are
// reported, the status of the last stage is returned.
//
// Stages are started left to right. Links between an external producer and
// its consumer are OS pipes; the shell closes its copy of each end as soon
// as the process using it has started, so a producer is always drained by a
// running consumer or gets EOF/EPIPE. Builtins run to completion when
// reached and hand their output to the next stage as a buffer.
func (e *Engine) runPipeline(stages []node.Stage, streams Streams, out io.Writer) node.Status {
	runs := make([]stageRun, len(stages))

	var input io.Reader = streams.Stdin
	var inputEnd io.Closer

	for i, stage := range stages {
		last := i == len(stages)-1
		stageStreams := Streams{Stdin: input, Stdout: out, Stderr: streams.Stderr}

		var next io.Reader
		var outputEnd, nextEnd io.Closer
		if !last {
			if _, ok := stage.(*node.Builtin); ok {
				buf := &bytes.Buffer{}
				stageStreams.Stdout = buf
				next = buf
			} else {
				r, w, err := os.Pipe()
				if err != nil {
					runs[i] = stageRun{status: node.Failure, err: fmt.Errorf("pipe: %w", err)}
					closeEnd(inputEnd)
					for j := i + 1; j < len(stages); j++ {
						runs[j] = stageRun{status: node.Failure}
					}
					break
				}
				stageStreams.Stdout = w
				next, outputEnd, nextEnd = r, w, r
			}
		}

		runs[i] = e.startStage(stage, stageStreams)

		closeEnd(outputEnd)
		closeEnd(inputEnd)
		input, inputEnd = next, nextEnd
	}

	for i := range runs {
		run := &runs[i]
		if run.proc != nil {
			run.status, run.err = run.proc.Wait()
		}
		if run.err == nil {
			continue
		}
		if i < len(runs)-1 && isBrokenPipe(run.err) {
			continue
		}
		e.Report(run.err)
	}

	return runs[len(runs)-1].status
}

// startStage starts an external stage or runs a builtin one to completion.
func (e *Engine) startStage(stage node.Stage, streams Streams) stageRun {
	var proc *Process
	var err error

	switch s := stage.(type) {
	case *node.Builtin:
		status, err := e.runBuiltin(s.Args, streams)
		return stageRun{status: status, err: err}
	case *node.Simple:
		proc, err = e.launch(s.Name, s.Args, streams)
	case *node.Redirected:
		proc, err = e.launchRedirected(s, streams)
	default:
		err = fmt.Errorf("unknown stage type %T", stage)
	}
	if err == nil {
		err = proc.Start()
	}
	if err != nil {
		return stageRun{status: node.Failure, err: err}
	}
	return stageRun{proc: proc}
}

func closeEnd(c io.Closer) {
	if c != nil {
		c.Close()
	}
}

// isBrokenPipe reports whether a stage ended because its reader went away.
func isBrokenPipe(err error) bool {
	var sigErr *SignalError
	if errors.As(err, &sigErr) {
		return sigErr.Signal == syscall.SIGPIPE
	}
	return errors.Is(err, syscall.EPIPE)
}
