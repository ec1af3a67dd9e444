package core

import (
	"bufio"
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/gsh/core/config"
	"github.com/josephlewis42/gsh/core/engine"
)

// LineReader reads one line of input at a time.
type LineReader interface {
	// ReadLine shows the prompt and reads a line without its terminator. It
	// returns io.EOF when the input is exhausted.
	ReadLine(prompt string) (string, error)
	Close() error
}

// NewTerminalReader reads lines with editing and in-memory history.
func NewTerminalReader(streams engine.Streams, cfg *config.Configuration) (LineReader, error) {
	rlConfig := &readline.Config{
		Stdin:        readline.NewCancelableStdin(streams.Stdin),
		Stdout:       streams.Stdout,
		Stderr:       streams.Stderr,
		HistoryLimit: cfg.HistoryLimit,
	}

	if err := rlConfig.Init(); err != nil {
		return nil, err
	}

	instance, err := readline.NewEx(rlConfig)
	if err != nil {
		return nil, err
	}
	return &terminalReader{instance}, nil
}

type terminalReader struct {
	*readline.Instance
}

func (t *terminalReader) ReadLine(prompt string) (string, error) {
	t.SetPrompt(prompt)
	return t.Readline()
}

// NewPlainReader reads lines from a non-interactive input. No prompts are
// shown.
func NewPlainReader(r io.Reader) LineReader {
	return &plainReader{r: bufio.NewReader(r)}
}

type plainReader struct {
	r *bufio.Reader
}

func (p *plainReader) ReadLine(string) (string, error) {
	line, err := p.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

func (p *plainReader) Close() error {
	return nil
}
