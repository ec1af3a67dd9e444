// Package frontend converts parsed shell syntax into command trees.
//
// Statements are parsed with mvdan.cc/sh and built into nodes right before
// they run. Constructs the engine can't run become node.Unimplemented so they
// fail loudly instead of doing the wrong thing.
package frontend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/gsh/core/node"
	"mvdan.cc/sh/v3/syntax"
)

// ErrAmbiguousRedirect is returned when a redirect target expands to nothing.
var ErrAmbiguousRedirect = errors.New("ambiguous redirect")

// Builder builds nodes from parsed statements.
type Builder struct {
	// IsBuiltin reports whether a command name runs inside the shell.
	IsBuiltin func(name string) bool
	// Env looks up variables, including the special parameters "?" and "$".
	Env func(name string) string
	// Aliases maps command names to the text that replaces them.
	Aliases map[string]string
	// Capturer runs command substitutions.
	Capturer Capturer
	// Report receives errors that don't stop construction.
	Report func(error)
}

// Parse parses shell source in the bash dialect.
func Parse(src string) (*syntax.File, error) {
	return syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(src), "")
}

// IsIncomplete reports whether a parse error could be fixed by reading more
// input, e.g. an unterminated quote or a trailing "&&".
func IsIncomplete(err error) bool {
	return syntax.IsIncomplete(err)
}

// Source prints a syntax node back to single line source.
func Source(n syntax.Node) string {
	var sb strings.Builder
	if err := syntax.NewPrinter(syntax.SingleLine(true)).Print(&sb, n); err != nil {
		return fmt.Sprintf("<%T>", n)
	}
	return strings.TrimSpace(sb.String())
}

// Defer returns a node that builds the statement when it is about to run.
func (b *Builder) Defer(stmt *syntax.Stmt) *node.Deferred {
	return &node.Deferred{
		Source: Source(stmt),
		Build: func() (node.Node, error) {
			return b.Build(stmt)
		},
	}
}

// Build converts a statement into a node. Unsupported constructs produce an
// *node.Unimplemented; errors are reserved for statements that are supported
// but malformed, like a redirect to descriptor 3.
func (b *Builder) Build(stmt *syntax.Stmt) (node.Node, error) {
	switch {
	case stmt.Background:
		return unimplemented("background jobs", stmt), nil
	case stmt.Coprocess:
		return unimplemented("coprocesses", stmt), nil
	}

	n, err := b.buildCommand(stmt)
	if err != nil || !stmt.Negated {
		return n, err
	}

	switch n := n.(type) {
	case *node.Pipeline:
		n.Negated = true
		return n, nil
	case node.Stage:
		return node.NewPipeline(true, n)
	case *node.Unimplemented:
		return n, nil
	default:
		return unimplemented("negated compound commands", stmt), nil
	}
}

func (b *Builder) buildCommand(stmt *syntax.Stmt) (node.Node, error) {
	if call, ok := stmt.Cmd.(*syntax.CallExpr); ok || stmt.Cmd == nil {
		return b.buildCall(stmt, call)
	}

	if len(stmt.Redirs) > 0 {
		return unimplemented("redirecting compound commands", stmt), nil
	}

	switch cmd := stmt.Cmd.(type) {
	case *syntax.BinaryCmd:
		switch cmd.Op {
		case syntax.AndStmt, syntax.OrStmt:
			return b.buildAndOr(cmd)
		case syntax.Pipe:
			return b.buildPipeline(stmt, cmd)
		default:
			return unimplemented("piping standard error", stmt), nil
		}

	case *syntax.Subshell:
		sub := &node.Subshell{}
		for _, inner := range cmd.Stmts {
			sub.Nodes = append(sub.Nodes, b.Defer(inner))
		}
		if len(sub.Nodes) == 0 {
			return unimplemented("empty subshells", stmt), nil
		}
		return sub, nil

	case *syntax.Block:
		return b.buildSequence(cmd.Stmts)

	default:
		return unimplemented(commandFeature(cmd), stmt), nil
	}
}

// buildCall builds a simple command, possibly with one redirect.
func (b *Builder) buildCall(stmt *syntax.Stmt, call *syntax.CallExpr) (node.Node, error) {
	switch {
	case call != nil && len(call.Assigns) > 0:
		return unimplemented("variable assignments", stmt), nil
	case call == nil || len(call.Args) == 0:
		return unimplemented("redirects without a command", stmt), nil
	case len(stmt.Redirs) > 1:
		return unimplemented("multiple redirects", stmt), nil
	}

	for _, word := range call.Args {
		if u := checkWord(word); u != nil {
			return u, nil
		}
	}

	words, err := b.words(call.Args)
	if err != nil {
		return nil, err
	}
	if words, err = b.expandAlias(call.Args[0], words); err != nil {
		return nil, err
	}

	builtin := b.IsBuiltin != nil && b.IsBuiltin(words[0])
	if len(stmt.Redirs) == 0 {
		if builtin {
			return &node.Builtin{Args: words}, nil
		}
		return node.NewSimple(words...)
	}

	if builtin {
		return unimplemented("redirecting builtins", stmt), nil
	}
	return b.buildRedirected(stmt, words)
}

func (b *Builder) buildRedirected(stmt *syntax.Stmt, words []string) (node.Node, error) {
	redir := stmt.Redirs[0]

	var mode node.RedirectMode
	switch redir.Op {
	case syntax.RdrOut, syntax.ClbOut:
		mode = node.Write
	case syntax.AppOut:
		mode = node.Append
	case syntax.RdrIn:
		mode = node.Read
	case syntax.RdrInOut:
		mode = node.ReadWrite
	case syntax.DplIn, syntax.DplOut:
		return unimplemented("descriptor duplication", stmt), nil
	case syntax.Hdoc, syntax.DashHdoc:
		return unimplemented("here-documents", stmt), nil
	case syntax.WordHdoc:
		return unimplemented("here-strings", stmt), nil
	default:
		return unimplemented(fmt.Sprintf("%s redirects", redir.Op), stmt), nil
	}

	var fd *int
	if redir.N != nil {
		n, err := strconv.Atoi(redir.N.Value)
		if err != nil {
			return unimplemented("named descriptors", stmt), nil
		}
		fd = node.FD(n)
	}

	if u := checkWord(redir.Word); u != nil {
		return u, nil
	}
	path, err := b.word(redir.Word)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%s: %w", Source(redir.Word), ErrAmbiguousRedirect)
	}

	spec, err := node.NewRedirectSpec(mode, fd, path)
	if err != nil {
		return nil, err
	}
	launch, err := node.NewSimple(words...)
	if err != nil {
		return nil, err
	}
	return &node.Redirected{Launch: *launch, Redirect: spec}, nil
}

// buildAndOr flattens a left associative chain of && and || into one list.
// Only the first node is built now, the rest are built when reached.
func (b *Builder) buildAndOr(cmd *syntax.BinaryCmd) (node.Node, error) {
	var list *node.AndOrList
	if inner, ok := cmd.X.Cmd.(*syntax.BinaryCmd); ok && isAndOr(inner.Op) && !cmd.X.Negated && len(cmd.X.Redirs) == 0 {
		n, err := b.buildAndOr(inner)
		if err != nil {
			return nil, err
		}
		list = n.(*node.AndOrList)
	} else {
		first, err := b.Build(cmd.X)
		if err != nil {
			return nil, err
		}
		list = &node.AndOrList{First: first}
	}

	connective := node.And
	if cmd.Op == syntax.OrStmt {
		connective = node.Or
	}
	list.Rest = append(list.Rest, node.AndOr{Connective: connective, Node: b.Defer(cmd.Y)})
	return list, nil
}

// buildSequence builds a brace group as a list of always-run nodes.
func (b *Builder) buildSequence(stmts []*syntax.Stmt) (node.Node, error) {
	if len(stmts) == 0 {
		return nil, node.ErrEmptyCommand
	}
	first, err := b.Build(stmts[0])
	if err != nil {
		return nil, err
	}
	if len(stmts) == 1 {
		return first, nil
	}

	list := &node.AndOrList{First: first}
	for _, stmt := range stmts[1:] {
		list.Rest = append(list.Rest, node.AndOr{Connective: node.Sequence, Node: b.Defer(stmt)})
	}
	return list, nil
}

// buildPipeline flattens a left associative chain of | into stages.
func (b *Builder) buildPipeline(stmt *syntax.Stmt, cmd *syntax.BinaryCmd) (node.Node, error) {
	var stages []node.Stage
	for _, part := range pipelineParts(cmd) {
		if part == nil {
			return unimplemented("piping standard error", stmt), nil
		}
		n, err := b.Build(part)
		if err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case node.Stage:
			stages = append(stages, n)
		case *node.Unimplemented:
			return n, nil
		default:
			return unimplemented("compound commands in pipelines", part), nil
		}
	}
	return node.NewPipeline(false, stages...)
}

// pipelineParts lists the statements of a pipe chain left to right. A nil
// entry marks a |& link.
func pipelineParts(cmd *syntax.BinaryCmd) []*syntax.Stmt {
	if cmd.Op != syntax.Pipe {
		return []*syntax.Stmt{nil}
	}

	var parts []*syntax.Stmt
	if inner, ok := cmd.X.Cmd.(*syntax.BinaryCmd); ok && !cmd.X.Negated && len(cmd.X.Redirs) == 0 && !isAndOr(inner.Op) {
		parts = pipelineParts(inner)
	} else {
		parts = []*syntax.Stmt{cmd.X}
	}
	return append(parts, cmd.Y)
}

// expandAlias replaces the command name with its alias. Only unquoted names
// are expanded and the replacement isn't expanded again.
func (b *Builder) expandAlias(name *syntax.Word, words []string) ([]string, error) {
	alias, ok := b.Aliases[name.Lit()]
	if !ok {
		return words, nil
	}
	tokens, err := shlex.Split(alias, true)
	if err != nil {
		return nil, fmt.Errorf("alias %s: %w", name.Lit(), err)
	}
	if len(tokens) == 0 {
		return words, nil
	}
	return append(tokens, words[1:]...), nil
}

func (b *Builder) report(err error) {
	if b.Report != nil {
		b.Report(err)
	}
}

func isAndOr(op syntax.BinCmdOperator) bool {
	return op == syntax.AndStmt || op == syntax.OrStmt
}

func unimplemented(feature string, n syntax.Node) *node.Unimplemented {
	return &node.Unimplemented{Feature: feature, Source: Source(n)}
}

func commandFeature(cmd syntax.Command) string {
	switch cmd := cmd.(type) {
	case *syntax.IfClause:
		return "if statements"
	case *syntax.WhileClause:
		if cmd.Until {
			return "until loops"
		}
		return "while loops"
	case *syntax.ForClause:
		return "for loops"
	case *syntax.CaseClause:
		return "case statements"
	case *syntax.FuncDecl:
		return "function declarations"
	case *syntax.ArithmCmd:
		return "arithmetic commands"
	case *syntax.TestClause:
		return "test expressions"
	case *syntax.DeclClause:
		return "declarations"
	case *syntax.LetClause:
		return "let expressions"
	case *syntax.TimeClause:
		return "timing commands"
	case *syntax.CoprocClause:
		return "coprocesses"
	default:
		return fmt.Sprintf("%T commands", cmd)
	}
}
