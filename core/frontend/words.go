package frontend

import (
	"io"

	"github.com/josephlewis42/gsh/core/node"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// checkWord returns a placeholder if the word uses an expansion the shell
// doesn't support.
func checkWord(word *syntax.Word) *node.Unimplemented {
	for _, part := range word.Parts {
		if feature := partFeature(part); feature != "" {
			return unimplemented(feature, word)
		}
	}
	return nil
}

func partFeature(part syntax.WordPart) string {
	switch part := part.(type) {
	case *syntax.Lit, *syntax.SglQuoted:
		return ""
	case *syntax.DblQuoted:
		for _, inner := range part.Parts {
			if feature := partFeature(inner); feature != "" {
				return feature
			}
		}
		return ""
	case *syntax.ParamExp:
		if part.Excl || part.Length || part.Width || part.Index != nil ||
			part.Slice != nil || part.Repl != nil || part.Names != 0 || part.Exp != nil {
			return "parameter expansion operators"
		}
		return ""
	case *syntax.CmdSubst:
		if part.TempFile || part.ReplyVar {
			return "function substitutions"
		}
		return ""
	case *syntax.ArithmExp:
		return "arithmetic expansion"
	case *syntax.ProcSubst:
		return "process substitution"
	case *syntax.ExtGlob:
		return "extended globs"
	default:
		return "word expansion"
	}
}

// word expands a single word. Quotes are removed and parameters, tildes and
// command substitutions are replaced. The result is never split into fields.
func (b *Builder) word(word *syntax.Word) (string, error) {
	cfg := &expand.Config{
		CmdSubst: func(w io.Writer, cs *syntax.CmdSubst) error {
			_, err := io.WriteString(w, b.Substitute(cs.Stmts))
			return err
		},
	}
	if b.Env != nil {
		cfg.Env = expand.FuncEnviron(b.Env)
	}
	return expand.Literal(cfg, word)
}

func (b *Builder) words(words []*syntax.Word) ([]string, error) {
	out := make([]string, 0, len(words))
	for _, word := range words {
		s, err := b.word(word)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
