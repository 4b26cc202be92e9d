// Package parse implements the two-pass (Probe/Emit) recursive-descent
// engine (spec §4.4): the component that walks a schema tree against a
// source buffer, consulting concepts for classification decisions and
// staging successful consumptions into the emit buffer.
package parse

import "fmt"

// Action is the outcome of one parsing primitive. The zero value, Consumed,
// matches the original source's parse_result::action_e, whose first
// enumerator (also the default of a brace-initialized result) is Consumed.
type Action int

const (
	Consumed Action = iota
	ForNext
	Continue
	Done
	Ignored
	NoMatch
	Error
)

func (a Action) String() string {
	switch a {
	case Consumed:
		return "Consumed"
	case ForNext:
		return "ForNext"
	case Continue:
		return "Continue"
	case Done:
		return "Done"
	case Ignored:
		return "Ignored"
	case NoMatch:
		return "NoMatch"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Result is what every parsing primitive returns: the new cursor (a byte
// offset into the translation unit's source) and the action taken.
type Result struct {
	Source int
	Action Action
}

// isFinished reports whether result should bubble straight up through
// enclosing frames without further alternative-trying (spec §4.4.3).
func isFinished(r Result) bool {
	return r.Action == ForNext || r.Action == Done
}

// RecursionLimitError is raised (via panic, recovered at Engine.Run) when a
// primitive's call depth exceeds the schema's parser_recursion_limit (spec
// §4.4.2, §7 category 3).
type RecursionLimitError struct {
	Limit int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("parser recursion limit (%d) exceeded", e.Limit)
}

// InternalError marks a category-5 fatal programmer error (spec §7): an
// invariant the schema/engine pairing is supposed to guarantee but didn't.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string { return "internal error: " + e.Reason }
