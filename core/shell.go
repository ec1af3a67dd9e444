// Package core ties the parser, the engine and the configuration together
// into a shell.
package core

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/gsh/core/config"
	"github.com/josephlewis42/gsh/core/engine"
	"github.com/josephlewis42/gsh/core/frontend"
	"github.com/josephlewis42/gsh/core/node"
	"mvdan.cc/sh/v3/syntax"
)

const (
	EnvUser = "USER"

	DefaultPrompt = `\W: \$ `
)

// StatusSyntaxError is the status of input that can't be parsed.
var StatusSyntaxError = node.StatusFromCode(2)

// ErrUnexpectedEOF is reported when input ends in the middle of a command.
var ErrUnexpectedEOF = errors.New("syntax error: unexpected end of file")

// Shell reads commands, runs them and keeps the status of the last one.
type Shell struct {
	Engine *engine.Engine
	Config *config.Configuration
	// Color enables colored prompts.
	Color bool

	builder *frontend.Builder
}

// NewShell creates a shell that runs commands with e.
func NewShell(e *engine.Engine, cfg *config.Configuration) *Shell {
	s := &Shell{
		Engine: e,
		Config: cfg,
	}
	s.builder = &frontend.Builder{
		IsBuiltin: e.IsBuiltin,
		Env:       s.lookupVar,
		Aliases:   cfg.Aliases,
		Capturer:  e,
		Report:    e.Report,
	}
	return s
}

// Status returns the status of the last command.
func (s *Shell) Status() node.Status {
	return s.Engine.LastStatus
}

// RunCommand parses and runs src. Each top-level statement is built right
// before it runs, so it observes the effects of the ones before it.
func (s *Shell) RunCommand(src string) node.Status {
	file, err := frontend.Parse(src)
	return s.runFile(file, err)
}

func (s *Shell) runFile(file *syntax.File, parseErr error) node.Status {
	if parseErr != nil {
		s.Engine.Report(fmt.Errorf("syntax error: %w", parseErr))
		s.Engine.LastStatus = StatusSyntaxError
		return s.Engine.LastStatus
	}

	for _, stmt := range file.Stmts {
		s.Engine.Run(s.builder.Defer(stmt))
	}
	return s.Engine.LastStatus
}

// RunInteractive reads and runs commands until the input ends. Commands may
// span several lines, the continuation prompt is shown until the input so
// far parses. It returns the status of the last command.
func (s *Shell) RunInteractive(lines LineReader) node.Status {
	var pending strings.Builder
	for {
		prompt := s.Prompt()
		if pending.Len() > 0 {
			prompt = s.Config.ContinuationPrompt
		}

		line, err := lines.ReadLine(prompt)
		switch {
		case errors.Is(err, io.EOF):
			if strings.TrimSpace(pending.String()) != "" {
				s.Engine.Report(ErrUnexpectedEOF)
				s.Engine.LastStatus = StatusSyntaxError
			}
			return s.Engine.LastStatus

		case errors.Is(err, readline.ErrInterrupt):
			// Interrupt discards the command being typed.
			pending.Reset()
			continue

		case err != nil:
			s.Engine.Report(err)
			return node.Failure
		}

		pending.WriteString(line)
		pending.WriteString("\n")
		src := pending.String()

		file, err := frontend.Parse(src)
		if frontend.IsIncomplete(err) {
			continue
		}
		pending.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}
		s.runFile(file, err)
	}
}

// lookupVar resolves variables for word expansion, including the special
// parameters $? and $$.
func (s *Shell) lookupVar(name string) string {
	switch name {
	case "?":
		return strconv.Itoa(s.Engine.LastStatus.Code)
	case "$":
		return strconv.Itoa(s.Engine.OS.Getpid())
	default:
		return s.Engine.OS.Getenv(name)
	}
}

// Prompt renders the configured prompt. When color is enabled the prompt is
// green after a successful command and red after a failed one.
func (s *Shell) Prompt() string {
	prompt := s.Config.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	prompt = s.expandPrompt(prompt)

	if !s.Color {
		return prompt
	}
	c := color.New(color.FgGreen, color.Bold)
	if !s.Engine.LastStatus.Succeeded() {
		c = color.New(color.FgRed, color.Bold)
	}
	c.EnableColor()
	return c.Sprint(prompt)
}

func (s *Shell) expandPrompt(prompt string) string {
	sys := s.Engine.OS

	host, _ := sys.Hostname()
	host, _, _ = strings.Cut(host, ".")

	pwd, _ := sys.Getwd()
	base := filepath.Base(pwd)
	if home := sys.Getenv(engine.EnvHome); home != "" {
		switch {
		case pwd == home:
			pwd = "~"
			base = "~"
		case strings.HasPrefix(pwd, home+"/"):
			pwd = "~" + strings.TrimPrefix(pwd, home)
		}
	}

	sign := "$"
	if sys.Getuid() == 0 {
		sign = "#"
	}

	return strings.NewReplacer(
		`\\`, `\`,
		`\u`, sys.Getenv(EnvUser),
		`\h`, host,
		`\w`, pwd,
		`\W`, base,
		`\$`, sign,
		`\?`, strconv.Itoa(s.Engine.LastStatus.Code),
	).Replace(prompt)
}
