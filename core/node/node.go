// Package node defines the command tree the engine executes.
//
// A tree is built once from the parser's output right before it runs and is
// never shared: every Node exclusively owns its children. The set of node
// kinds is closed; code that switches over a Node should handle every case
// declared in this file.
package node

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDescriptor is returned for redirects that target a
	// descriptor other than stdin, stdout or stderr.
	ErrUnsupportedDescriptor = errors.New("unsupported redirect descriptor")

	// ErrEmptyPipeline is returned when building a pipeline with no stages.
	ErrEmptyPipeline = errors.New("pipeline has no stages")

	// ErrEmptyCommand is returned when building a command with no words.
	ErrEmptyCommand = errors.New("empty command")
)

// Node is one element of the command tree.
type Node interface {
	isNode()
}

// Stage is a Node that can be launched as one step of a Pipeline.
type Stage interface {
	Node
	isStage()
}

// Simple launches a program with an argument list.
type Simple struct {
	// Name is the program to run.
	Name string
	// Args holds the full argument vector, Args[0] is conventionally Name.
	Args []string
}

// NewSimple creates a Simple command from its words, the first word is the
// program name.
func NewSimple(words ...string) (*Simple, error) {
	if len(words) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Simple{Name: words[0], Args: append([]string(nil), words...)}, nil
}

// Redirected is a Simple launch with exactly one redirect applied.
type Redirected struct {
	Launch   Simple
	Redirect RedirectSpec
}

// Builtin is an operation run inside the shell process. Args[0] holds the
// operation name.
type Builtin struct {
	Args []string
}

// Name returns the name of the builtin operation.
func (b *Builtin) Name() string {
	if len(b.Args) == 0 {
		return ""
	}
	return b.Args[0]
}

// Pipeline chains the output of each stage to the input of the next.
type Pipeline struct {
	Stages []Stage
	// Negated inverts the success of the reported status.
	Negated bool
}

// NewPipeline creates a pipeline, it must have at least one stage.
func NewPipeline(negated bool, stages ...Stage) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyPipeline
	}
	return &Pipeline{Stages: stages, Negated: negated}, nil
}

// Connective joins two nodes in an AndOrList.
type Connective int

const (
	// Sequence always runs the next node.
	Sequence Connective = iota
	// And runs the next node if the previous one succeeded.
	And
	// Or runs the next node if the previous one failed.
	Or
)

func (c Connective) String() string {
	switch c {
	case Sequence:
		return ";"
	case And:
		return "&&"
	case Or:
		return "||"
	default:
		return fmt.Sprintf("Connective(%d)", int(c))
	}
}

// AndOr is a node preceded by the connective that decides whether it runs.
type AndOr struct {
	Connective Connective
	Node       Node
}

// AndOrList evaluates First and then each of Rest according to its
// connective.
type AndOrList struct {
	First Node
	Rest  []AndOr
}

// Subshell runs its nodes in an isolated child process.
type Subshell struct {
	Nodes []Node
}

// Deferred is a node built only when it is about to run, so it observes the
// side effects of the nodes that ran before it. A deferred node that is
// skipped is never built.
type Deferred struct {
	// Source is the input text the node is built from.
	Source string
	Build  func() (Node, error)
}

// Unimplemented stands in for a construct the engine does not support. It
// always fails when run.
type Unimplemented struct {
	// Feature names the unsupported construct, e.g. "here-documents".
	Feature string
	// Source optionally holds the input text of the construct.
	Source string
}

func (u *Unimplemented) Error() string {
	if u.Source == "" {
		return fmt.Sprintf("not implemented: %s", u.Feature)
	}
	return fmt.Sprintf("not implemented: %s: %s", u.Feature, u.Source)
}

func (*Simple) isNode()        {}
func (*Redirected) isNode()    {}
func (*Builtin) isNode()       {}
func (*Pipeline) isNode()      {}
func (*AndOrList) isNode()     {}
func (*Subshell) isNode()      {}
func (*Deferred) isNode()      {}
func (*Unimplemented) isNode() {}

func (*Simple) isStage()     {}
func (*Redirected) isStage() {}
func (*Builtin) isStage()    {}

var (
	_ Stage = (*Simple)(nil)
	_ Stage = (*Redirected)(nil)
	_ Stage = (*Builtin)(nil)
	_ Node  = (*Pipeline)(nil)
	_ Node  = (*AndOrList)(nil)
	_ Node  = (*Subshell)(nil)
	_ Node  = (*Deferred)(nil)
	_ Node  = (*Unimplemented)(nil)
	_ error = (*Unimplemented)(nil)
)
