// Package schema implements the in-memory schema tree (spec §3, §4.2): an
// immutable tree of atoms — node atoms, terminal atoms, and concept atoms —
// parsed from a schema document with all cross-references resolved.
package schema

import "github.com/glyphlang/glyph/concept"

// AtomKind tags which of the three atom variants an Atom is. This replaces
// the original's class hierarchy + RTTI-style is_X()/as_X() dispatch with a
// tagged sum, per spec §9's design note.
type AtomKind int

const (
	KindNode AtomKind = iota
	KindTerminal
	KindConcept
)

// TerminalKind identifies which terminal directive a terminal Atom carries.
type TerminalKind int

const (
	TerminalDefault TerminalKind = iota
	TerminalString
	TerminalError
	TerminalIgnore
	TerminalNext
	TerminalContinue
	TerminalDone
)

func (k TerminalKind) String() string {
	switch k {
	case TerminalDefault:
		return "default"
	case TerminalString:
		return "string"
	case TerminalError:
		return "error"
	case TerminalIgnore:
		return "ignore"
	case TerminalNext:
		return "next"
	case TerminalContinue:
		return "continue"
	case TerminalDone:
		return "done"
	default:
		return "invalid"
	}
}

// TokenEntry is one (lhs, rhs) rewrite/match rule on a node atom. Order
// within a node's Tokens slice is significant: the first matching entry
// wins (spec §4.4.6's rule-order tie-break).
type TokenEntry struct {
	LHS *Atom
	RHS *Atom
}

// Atom is one node of the schema tree: a node atom, a terminal atom, or a
// concept atom. Every field not relevant to Kind is left zero.
type Atom struct {
	Kind AtomKind

	// --- Node atom fields ---
	Symbol        string // dotted identifier, unique within Parent
	Parent        *Atom  // nil for the root
	IsA           []concept.Concept
	Expects       []*Atom
	Tokens        []TokenEntry
	Children      map[string]*Atom
	ChildOrder    []string // insertion order of Children's keys
	IsTokensNode  bool
	tokenCache    map[*Atom]*Atom // memoized FindToken results; a cached nil means "no match"

	// --- Terminal atom fields ---
	TerminalKind TerminalKind
	Literal      []byte // for TerminalString

	// --- Concept atom fields ---
	Concept concept.Concept
}

// NewNode creates a node atom with the given symbol under parent (nil for
// the schema root).
func NewNode(symbol string, parent *Atom) *Atom {
	return &Atom{
		Kind:       KindNode,
		Symbol:     symbol,
		Parent:     parent,
		Children:   make(map[string]*Atom),
		tokenCache: make(map[*Atom]*Atom),
	}
}

// NewTerminal creates a terminal atom of the given kind. literal is only
// meaningful for TerminalString.
func NewTerminal(kind TerminalKind, literal []byte) *Atom {
	return &Atom{Kind: KindTerminal, TerminalKind: kind, Literal: literal}
}

// NewConceptAtom wraps c as a concept atom.
func NewConceptAtom(c concept.Concept) *Atom {
	return &Atom{Kind: KindConcept, Concept: c}
}

func (a *Atom) IsNode() bool     { return a.Kind == KindNode }
func (a *Atom) IsTerminal() bool { return a.Kind == KindTerminal }
func (a *Atom) IsConcept() bool  { return a.Kind == KindConcept }

// AddChild inserts child under a, preserving insertion order.
func (a *Atom) AddChild(symbol string, child *Atom) {
	if _, exists := a.Children[symbol]; !exists {
		a.ChildOrder = append(a.ChildOrder, symbol)
	}
	a.Children[symbol] = child
}

// IsConceptOf reports whether a (a node atom) is classified as c, i.e. c
// appears in a.IsA or is an ancestor of some concept in a.IsA.
func (a *Atom) IsConceptOf(c concept.Concept) bool {
	for _, ac := range a.IsA {
		if ac == c || concept.IsAncestorOf(c, ac) {
			return true
		}
	}
	return false
}

// IsParentOf reports whether other's schema-tree Parent chain reaches a.
// Used by parse_tokens to decide whether a matched rhs atom lies within the
// current node's own subtree (spec §4.4.6).
func (a *Atom) IsParentOf(other *Atom) bool {
	if other == nil || !other.IsNode() {
		return false
	}
	for p := other.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// FindToken is the only cached lookup used by the parser's packrat
// memoization (spec §4.4.10). It scans a.Tokens for an entry whose LHS
// equals candidate, or whose LHS is a concept atom ancestor of candidate's
// concept (when candidate is itself a concept atom), and returns that
// entry's RHS atom (not the pair) — matching the original's find_token,
// which caches and returns only the matched atom_map_list_entry_t::second().
// The cache key is candidate's pointer identity, not its value, matching
// the original's unordered_map<const i_atom*, const i_atom*>.
func (a *Atom) FindToken(candidate *Atom) (*Atom, bool) {
	if rhs, ok := a.tokenCache[candidate]; ok {
		return rhs, rhs != nil
	}
	for _, te := range a.Tokens {
		if te.LHS == candidate {
			a.tokenCache[candidate] = te.RHS
			return te.RHS, true
		}
		if te.LHS != nil && te.LHS.IsConcept() && candidate != nil && candidate.IsConcept() &&
			concept.IsAncestorOf(te.LHS.Concept, candidate.Concept) {
			a.tokenCache[candidate] = te.RHS
			return te.RHS, true
		}
	}
	a.tokenCache[candidate] = nil
	return nil, false
}
