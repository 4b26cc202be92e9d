// Package concept defines the registry of semantic classifiers (concepts)
// that a schema attaches to grammar rules. A concept decides whether and how
// many bytes of source it consumes, and its consumption becomes an entry in
// the compiler's emit stream.
package concept

// Pass distinguishes a trial (Probe) invocation from a committing (Emit)
// one. A concept's consumption must be pure for a given (pass, src, end):
// the same inputs always produce the same outputs, and Probe must have no
// externally visible side effect. Only an Emit-pass call may log.
type Pass int

const (
	Probe Pass = iota
	Emit
)

func (p Pass) String() string {
	if p == Emit {
		return "Emit"
	}
	return "Probe"
}

// EmitAs controls when a concept attached to a rule is staged relative to
// its children: Infix concepts are consumed when their rule matches, before
// recursing into the next token; Postfix concepts are consumed after that
// recursion (and after the owning parse_token_match tail) completes.
type EmitAs int

const (
	Postfix EmitAs = iota
	Infix
)

// Result is the outcome of a single consumption attempt.
type Result struct {
	Src      []byte // remaining source after consumption
	Consumed bool
}

// Concept is a named semantic classifier with consumption behavior. Concepts
// form a forest via Parent; IsAncestorOf is transitive containment in that
// forest. Equality between two Concepts must be by identity, never by Name,
// so that token-cache lookups (schema.Atom.FindToken) stay cheap and correct.
type Concept interface {
	Name() string
	Parent() (Concept, bool)
	EmitAs() EmitAs

	// ConsumeToken attempts to consume a token's worth of source starting at
	// src (relative to end, the translation unit's remaining buffer). It
	// returns the new cursor and whether anything was consumed.
	ConsumeToken(pass Pass, src, end []byte) Result

	// ConsumeAtom is like ConsumeToken but also receives the schema atom the
	// concept was matched against, for concepts that need to inspect what
	// classified them.
	ConsumeAtom(pass Pass, atom interface{}, src, end []byte) Result
}

// IsAncestorOf reports whether c transitively contains child in the concept
// forest (i.e. c is a strict ancestor of child by repeated Parent() lookup).
func IsAncestorOf(c, child Concept) bool {
	for {
		parent, ok := child.Parent()
		if !ok {
			return false
		}
		if parent == c {
			return true
		}
		child = parent
	}
}

// base is embedded by concrete concept implementations to provide Name,
// Parent, and EmitAs for free, mirroring how the original C++ neos_concept
// base class supplied these from a single constructor call.
type base struct {
	name   string
	parent Concept
	emitAs EmitAs
}

func newBase(name string, parent Concept, emitAs EmitAs) base {
	return base{name: name, parent: parent, emitAs: emitAs}
}

func (b base) Name() string { return b.name }

func (b base) Parent() (Concept, bool) {
	if b.parent == nil {
		return nil, false
	}
	return b.parent, true
}

func (b base) EmitAs() EmitAs { return b.emitAs }
