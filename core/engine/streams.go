package engine

import (
	"io"
	"os"
)

// Streams holds the standard streams a node runs with.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// OSStreams returns the streams of the shell process itself.
func OSStreams() Streams {
	return Streams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// NewStreams creates a Streams where nil readers are empty and nil writers
// discard their input.
func NewStreams(stdin io.Reader, stdout, stderr io.Writer) Streams {
	return Streams{
		Stdin:  toReaderOrEmpty(stdin),
		Stdout: toWriterOrDiscard(stdout),
		Stderr: toWriterOrDiscard(stderr),
	}
}

func toWriterOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func toReaderOrEmpty(r io.Reader) io.Reader {
	if r == nil {
		return eofReader{}
	}
	return r
}

// eofReader is an input with nothing in it.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
