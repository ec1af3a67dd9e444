package node

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Format renders a tree as shell source that parses back to an equivalent
// tree. Unimplemented nodes can't be rendered.
func Format(n Node) (string, error) {
	var sb strings.Builder
	if err := format(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatList renders a list of top-level nodes separated by newlines.
func FormatList(nodes []Node) (string, error) {
	var lines []string
	for _, n := range nodes {
		line, err := Format(n)
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func format(sb *strings.Builder, n Node) error {
	switch n := n.(type) {
	case *Simple:
		return formatWords(sb, n.Args)

	case *Redirected:
		if err := formatWords(sb, n.Launch.Args); err != nil {
			return err
		}
		return formatRedirect(sb, n.Redirect)

	case *Builtin:
		return formatWords(sb, n.Args)

	case *Pipeline:
		if len(n.Stages) == 0 {
			return ErrEmptyPipeline
		}
		if n.Negated {
			sb.WriteString("! ")
		}
		for i, stage := range n.Stages {
			if i > 0 {
				sb.WriteString(" | ")
			}
			if err := format(sb, stage); err != nil {
				return err
			}
		}
		return nil

	case *AndOrList:
		if err := format(sb, n.First); err != nil {
			return err
		}
		for _, next := range n.Rest {
			switch next.Connective {
			case Sequence:
				sb.WriteString("; ")
			default:
				fmt.Fprintf(sb, " %s ", next.Connective)
			}
			if err := format(sb, next.Node); err != nil {
				return err
			}
		}
		return nil

	case *Subshell:
		if len(n.Nodes) == 0 {
			return errors.New("empty subshell")
		}
		sb.WriteString("(")
		for i, child := range n.Nodes {
			if i > 0 {
				sb.WriteString("; ")
			}
			if err := format(sb, child); err != nil {
				return err
			}
		}
		sb.WriteString(")")
		return nil

	case *Deferred:
		sb.WriteString(n.Source)
		return nil

	case *Unimplemented:
		return n

	default:
		return fmt.Errorf("unknown node type %T", n)
	}
}

func formatWords(sb *strings.Builder, words []string) error {
	if len(words) == 0 {
		return ErrEmptyCommand
	}
	for i, word := range words {
		if i > 0 {
			sb.WriteString(" ")
		}
		if err := formatWord(sb, word); err != nil {
			return err
		}
	}
	return nil
}

func formatWord(sb *strings.Builder, word string) error {
	quoted, err := syntax.Quote(word, syntax.LangBash)
	if err != nil {
		return fmt.Errorf("can't quote %q: %w", word, err)
	}
	sb.WriteString(quoted)
	return nil
}

func formatRedirect(sb *strings.Builder, r RedirectSpec) error {
	sb.WriteString(" ")
	if r.FD != nil {
		fmt.Fprintf(sb, "%d", *r.FD)
	}
	sb.WriteString(r.Mode.String())
	sb.WriteString(" ")
	return formatWord(sb, r.Path)
}
