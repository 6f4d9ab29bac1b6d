package graph

import (
	"errors"
	"fmt"
)

// ErrMalformedEdge is matched by every *MalformedEdgeError via errors.Is
var ErrMalformedEdge = errors.New("malformed edge")

// MalformedEdgeError identifies the record that prevented a FlowGraph from being built
type MalformedEdgeError struct {
	Index  int    // position in the input sequence
	Line   int    // source line, 0 when the input did not come from a file
	Field  string // "source", "target" or "weight"
	Value  string
	Reason string
	Err    error // underlying parse error, if any
}

func (e *MalformedEdgeError) Error() string {
	where := fmt.Sprintf("record %d", e.Index)
	if e.Line > 0 {
		where = fmt.Sprintf("line %d", e.Line)
	}
	return fmt.Sprintf("malformed edge at %s: %s %q: %s", where, e.Field, e.Value, e.Reason)
}

func (e *MalformedEdgeError) Is(target error) bool {
	return target == ErrMalformedEdge
}

func (e *MalformedEdgeError) Unwrap() error {
	return e.Err
}
