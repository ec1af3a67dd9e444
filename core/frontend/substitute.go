package frontend

import (
	"errors"
	"strings"

	"github.com/josephlewis42/gsh/core/node"
	"mvdan.cc/sh/v3/syntax"
)

// ErrNoCapturer is reported when a command substitution is built without a
// way to run it.
var ErrNoCapturer = errors.New("command substitution is unavailable")

// Capturer runs a node and returns what it wrote to standard output.
type Capturer interface {
	Capture(n node.Node) (string, error)
}

// Substitute runs the statements of a command substitution and joins their
// trimmed output. A statement that fails is reported and contributes no text;
// it never stops the enclosing command from being built.
func (b *Builder) Substitute(stmts []*syntax.Stmt) string {
	if b.Capturer == nil {
		b.report(ErrNoCapturer)
		return ""
	}

	var sb strings.Builder
	for _, stmt := range stmts {
		n, err := b.Build(stmt)
		if err != nil {
			b.report(err)
			continue
		}
		out, err := b.Capturer.Capture(n)
		if err != nil {
			b.report(err)
			continue
		}
		sb.WriteString(strings.TrimSpace(out))
	}
	return sb.String()
}
