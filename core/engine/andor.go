package engine

import (
	"strings"

	"github.com/josephlewis42/gsh/core/node"
)

// evalAndOr threads a status through the list. A node that is skipped never
// runs; its slot takes a synthetic status instead: failure after a skipped
// And, success after a skipped Or.
func (e *Engine) evalAndOr(list *node.AndOrList, streams Streams) node.Status {
	status := e.execReporting(list.First, streams)
	for _, next := range list.Rest {
		e.LastStatus = status
		switch next.Connective {
		case node.And:
			if !status.Succeeded() {
				status = node.Failure
				continue
			}
		case node.Or:
			if status.Succeeded() {
				status = node.Success
				continue
			}
		}
		status = e.execReporting(next.Node, streams)
	}
	return status
}

// captureAndOr is evalAndOr for captured text, emptiness stands in for
// failure. The first node's output is kept as-is, later outputs are trimmed
// before being appended.
func (e *Engine) captureAndOr(list *node.AndOrList, streams Streams) string {
	out := e.captureReporting(list.First, streams)
	for _, next := range list.Rest {
		switch next.Connective {
		case node.And:
			if out == "" {
				continue
			}
		case node.Or:
			if out != "" {
				continue
			}
		}
		out += strings.TrimSpace(e.captureReporting(next.Node, streams))
	}
	return out
}
