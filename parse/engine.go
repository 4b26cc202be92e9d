package parse

import (
	"github.com/glyphlang/glyph/concept"
	"github.com/glyphlang/glyph/emit"
	"github.com/glyphlang/glyph/schema"
	"go.uber.org/zap"
)

// Engine drives a single schema against a single source buffer. An Engine is
// not safe for concurrent use (spec §5): independent compiles need
// independent engines, though the schema and registry they share may be
// read concurrently.
type Engine struct {
	Schema *schema.Schema
	Source []byte

	Trace      bool
	TraceEmits bool
	Logger     *zap.Logger

	buf   *emit.Buffer
	depth int

	deepestProbe     int
	haveDeepestProbe bool
}

// New returns an Engine that stages committed entries into sink.
func New(s *schema.Schema, source []byte, sink emit.Sink) *Engine {
	return &Engine{
		Schema: s,
		Source: source,
		Logger: zap.NewNop(),
		buf:    emit.New(sink),
	}
}

// DeepestProbe returns the furthest offset at which any parse_token (or
// parse_expect alternative) was attempted since the last call to
// ResetDeepestProbe (spec §4.4.11), and whether any probe was recorded.
func (e *Engine) DeepestProbe() (int, bool) {
	return e.deepestProbe, e.haveDeepestProbe
}

// ResetDeepestProbe clears the deepest-probe tracker, done once per
// top-level parse attempt (spec: compiler.compile resets it each loop
// iteration).
func (e *Engine) ResetDeepestProbe() {
	e.deepestProbe = 0
	e.haveDeepestProbe = false
}

func (e *Engine) trackDeepest(offset int) {
	if !e.haveDeepestProbe || offset > e.deepestProbe {
		e.deepestProbe = offset
		e.haveDeepestProbe = true
	}
}

func (e *Engine) limit() int {
	if e.Schema.Meta.ParserRecursionLimit > 0 {
		return e.Schema.Meta.ParserRecursionLimit
	}
	return schema.HardRecursionCeiling
}

// enter bumps the recursion depth, panicking with *RecursionLimitError if
// the schema's parser_recursion_limit is exceeded. Call as
// `defer e.enter()()` at the top of every primitive, mirroring the
// original's _limit_recursion_to_ scope guard on every primitive.
func (e *Engine) enter() func() {
	e.depth++
	if e.depth > e.limit() {
		panic(&RecursionLimitError{Limit: e.limit()})
	}
	return func() { e.depth-- }
}

func (e *Engine) logEnter(name string, atom *schema.Atom) {
	if !e.Trace {
		return
	}
	e.Logger.Debug(name, zap.Int("depth", e.depth), zap.String("atom", atom.Symbol))
}

// Run performs one top-level parse of root starting at src, recovering any
// RecursionLimitError/InternalError panic into an error return (spec §7
// categories 3 and 5; grounded on the teacher's tree.recover top-level
// panic/recover idiom).
func (e *Engine) Run(root *schema.Atom, src int) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch asErr := r.(type) {
			case *RecursionLimitError:
				err = asErr
				return
			case *InternalError:
				err = asErr
				return
			}
			panic(r)
		}
	}()
	e.ResetDeepestProbe()
	result = e.Parse(concept.Emit, root, src)
	return
}

// Parse is the top-level recursive primitive (spec §4.4.4).
func (e *Engine) Parse(pass concept.Pass, atom *schema.Atom, src int) (result Result) {
	defer e.enter()()
	if pass == concept.Emit {
		probe := e.Parse(concept.Probe, atom, src)
		if probe.Action == NoMatch {
			return probe
		}
	}
	e.logEnter("parse", atom)

	scope := e.buf.Open()
	defer e.closeScope(scope, pass, &result)

	expecting := len(atom.Expects) > 0
	if src != len(e.Source) {
		if expecting {
			result = Result{Source: src, Action: NoMatch}
			for _, exp := range atom.Expects {
				r := e.parseExpect(pass, atom, exp, src)
				if r.Action == Consumed || isFinished(r) {
					result = r
					return
				}
				e.trackDeepest(r.Source)
				result = r
			}
			return
		}
		result = e.parseTokens(pass, atom, src)
		return
	}
	if expecting {
		result = Result{Source: src, Action: NoMatch}
	} else {
		result = Result{Source: src, Action: Consumed}
	}
	return
}

// closeScope implements the stack discipline of spec §4.3: commit on
// (Emit pass, non-NoMatch outcome); otherwise discard.
func (e *Engine) closeScope(scope *emit.Scope, pass concept.Pass, result *Result) {
	if pass == concept.Emit && result.Action != NoMatch {
		scope.Commit()
	} else {
		scope.Discard()
	}
}

// parseExpect handles one alternative of an expect-node (spec §4.4.5).
func (e *Engine) parseExpect(pass concept.Pass, atom, expected *schema.Atom, src int) (result Result) {
	defer e.enter()()
	if pass == concept.Emit {
		probe := e.parseExpect(concept.Probe, atom, expected, src)
		if probe.Action == NoMatch {
			return probe
		}
	}
	e.logEnter("parse_expect", atom)

	scope := e.buf.Open()
	defer e.closeScope(scope, pass, &result)

	switch expected.Kind {
	case schema.KindNode:
		r := e.Parse(pass, expected, src)
		if r.Action == NoMatch {
			result = r
			return
		}
		r = e.parseTokenMatch(pass, atom, expected, r.Source, true, false)
		if r.Action == Consumed || isFinished(r) {
			result = r
			return
		}
		result = Result{Source: src, Action: NoMatch}
		return
	case schema.KindTerminal:
		result = e.parseToken(pass, atom, expected, src)
		return
	case schema.KindConcept:
		result = e.consumeConceptToken(pass, expected.Concept, src)
		return
	default:
		result = Result{Source: src, Action: NoMatch}
		return
	}
}

// isWithin reports whether candidate's schema-tree Parent chain passes
// through atom, i.e. atom is an ancestor of candidate in the tree. The
// original distinguishes is_ancestor_of (used for the just-matched lhs) from
// is_parent_of (used for rhs chaining) but the header declaring either on
// i_schema_node_atom was not retrievable from the source pack; both spots
// are treated here as the same tree-containment relation (documented in
// DESIGN.md).
func isWithin(atom, candidate *schema.Atom) bool {
	return atom.IsParentOf(candidate)
}

// parseTokens is the greedy token loop (spec §4.4.6) — the heart of the
// engine.
func (e *Engine) parseTokens(pass concept.Pass, atom *schema.Atom, src int) (result Result) {
	defer e.enter()()
	if pass == concept.Emit {
		probe := e.parseTokens(concept.Probe, atom, src)
		if probe.Action == NoMatch {
			return probe
		}
	}
	e.logEnter("parse_tokens", atom)

	scope := e.buf.Open()
	defer e.closeScope(scope, pass, &result)

	current := src
	idx := 0
	for current != len(e.Source) && idx < len(atom.Tokens) {
		lhs := atom.Tokens[idx].LHS
		rhs := atom.Tokens[idx].RHS

		r := e.parseToken(pass, atom, lhs, current)
		if isFinished(r) {
			if isWithin(atom, lhs) {
				result = r
				return
			}
			current = r.Source
			idx = 0
			continue
		}

		ateSome := r.Action == Consumed
		if ateSome {
			switch rhs.Kind {
			case schema.KindTerminal:
				r = e.parseToken(pass, atom, rhs, r.Source)
				switch r.Action {
				case Done, ForNext:
					result = r
					return
				case Ignored, Continue:
					current = r.Source
					idx = 0
				case NoMatch:
					if lhs.Kind == schema.KindTerminal && lhs.TerminalKind == schema.TerminalString {
						r.Source -= len(lhs.Literal)
					}
					result = r
					return
				case Error:
					result = Result{Source: r.Source, Action: NoMatch}
					return
				default:
					// Consumed: fall through to the end-of-tokens default check below.
				}
			default: // node atom, or a concept atom standing in rhs position
				trySource := r.Source
				if isWithin(atom, rhs) {
					r = e.parseToken(pass, atom, rhs, trySource)
				}
				if isFinished(r) {
					result = r
					return
				}
				chainedAteSome := r.Action == Consumed && r.Source != trySource
				if chainedAteSome || (r.Action == Consumed && !isWithin(atom, rhs)) {
					if rhs.IsNode() {
						r = e.parseTokenMatch(pass, rhs, lhs, r.Source, false, false)
					}
					if isFinished(r) {
						e.consumeToken(pass, rhs, r.Source)
						result = r
						return
					}
					if r.Action == Consumed {
						r = e.parseTokenMatch(pass, atom, rhs, r.Source, true, false)
						if isFinished(r) {
							result = r
							return
						}
					}
					if r.Action == Consumed {
						current = r.Source
						idx = 0
					} else if r.Action != Ignored && r.Action != Continue {
						result = r
						return
					}
				} else if r.Action == Consumed {
					idx++
				} else {
					result = r
					return
				}
			}
		} else {
			idx++
		}

		if idx == len(atom.Tokens) {
			if lhs.Kind == schema.KindTerminal && lhs.TerminalKind == schema.TerminalDefault {
				dr := e.parseToken(pass, atom, rhs, current)
				switch dr.Action {
				case Done, ForNext:
					result = dr
					return
				case Consumed:
					current = dr.Source
				case Ignored:
					if !ateSome && current == dr.Source {
						current++
					}
				case NoMatch, Error:
					result = dr
					return
				}
			}
		}
	}

	if current != src {
		result = Result{Source: current, Action: Consumed}
	} else {
		result = Result{Source: current, Action: NoMatch}
	}
	return
}

// parseTokenMatch feeds a successful match back through the owning rule,
// optionally consuming the concept-level side effect and chaining into the
// next token keyed by match (spec §4.4.7).
func (e *Engine) parseTokenMatch(pass concept.Pass, atom, match *schema.Atom, src int, consumeMatch, self bool) (result Result) {
	defer e.enter()()
	if pass == concept.Emit {
		probe := e.parseTokenMatch(concept.Probe, atom, match, src, consumeMatch, self)
		if probe.Action == NoMatch {
			return probe
		}
	}
	e.logEnter("parse_token_match", atom)

	var scope *emit.Scope
	if !self {
		scope = e.buf.Open()
		defer e.closeScope(scope, pass, &result)
	}

	result = Result{Source: src, Action: Consumed}
	if consumeMatch {
		if match.IsConcept() && match.Concept.EmitAs() == concept.Infix {
			result = e.consumeConceptAtom(pass, match, match.Concept, result.Source)
		} else if !match.IsConcept() {
			result = e.consumeToken(pass, match, result.Source)
		}
		if scope != nil && pass == concept.Emit {
			scope.Flush()
		}
	}

	if result.Action == Consumed {
		next, ok := atom.FindToken(match)
		if ok && next != atom && next != match {
			if !next.IsConcept() {
				result = e.parseToken(pass, atom, next, result.Source)
			}
			if result.Action == Consumed {
				result = e.parseTokenMatch(pass, atom, next, result.Source, true, true)
			}
		}
	}

	if consumeMatch {
		if match.IsConcept() && match.Concept.EmitAs() == concept.Postfix {
			if r := e.consumeConceptAtom(pass, match, match.Concept, result.Source); r.Action == Consumed && result.Action == Consumed {
				result = r
			}
		}
	}
	return
}

// parseToken dispatches a single token (lhs or rhs) by atom kind (spec
// §4.4.8).
func (e *Engine) parseToken(pass concept.Pass, atom, tok *schema.Atom, src int) (result Result) {
	defer e.enter()()
	if pass == concept.Emit {
		probe := e.parseToken(concept.Probe, atom, tok, src)
		if probe.Action == NoMatch {
			return probe
		}
	}
	e.trackDeepest(src)
	e.logEnter("parse_token", atom)

	scope := e.buf.Open()
	defer e.closeScope(scope, pass, &result)

	switch tok.Kind {
	case schema.KindNode:
		result = e.Parse(pass, tok, src)
		return
	case schema.KindTerminal:
		switch tok.TerminalKind {
		case schema.TerminalDefault:
			result = Result{Source: src, Action: NoMatch}
		case schema.TerminalError:
			result = Result{Source: src, Action: Error}
		case schema.TerminalIgnore:
			result = Result{Source: src, Action: Ignored}
		case schema.TerminalContinue:
			r := e.consumeToken(pass, atom, src)
			if r.Action == Consumed {
				r.Action = Continue
			}
			result = r
		case schema.TerminalDone:
			r := e.consumeToken(pass, atom, src)
			if r.Action == Consumed {
				r.Action = Done
			}
			result = r
		case schema.TerminalNext:
			result = Result{Source: src, Action: ForNext}
		case schema.TerminalString:
			lit := tok.Literal
			if src+len(lit) <= len(e.Source) && string(e.Source[src:src+len(lit)]) == string(lit) {
				result = Result{Source: src + len(lit), Action: Consumed}
			} else {
				result = Result{Source: src, Action: NoMatch}
			}
		default:
			result = Result{Source: src, Action: NoMatch}
		}
		return
	case schema.KindConcept:
		result = e.consumeToken(pass, tok, src)
		return
	}
	result = Result{Source: src, Action: NoMatch}
	return
}

// consumeToken dispatches a concept-bearing atom's consumption: a concept
// atom consumes directly, a node atom consumes through each of its is_a
// concepts in order, short-circuiting once a concept declines or ignores
// (spec §4.4.9).
func (e *Engine) consumeToken(pass concept.Pass, tok *schema.Atom, src int) Result {
	defer e.enter()()
	result := Result{Source: src, Action: Consumed}
	if tok.IsConcept() {
		return e.consumeConceptToken(pass, tok.Concept, src)
	}
	if tok.IsNode() {
		for _, c := range tok.IsA {
			if result.Action != NoMatch && result.Action != Ignored {
				result = e.consumeConceptAtom(pass, tok, c, result.Source)
			}
		}
	}
	return result
}

func (e *Engine) consumeConceptToken(pass concept.Pass, c concept.Concept, src int) Result {
	defer e.enter()()
	r := c.ConsumeToken(pass, e.Source[src:], e.Source[len(e.Source):])
	newSrc := src
	if r.Consumed {
		newSrc = len(e.Source) - len(r.Src)
		if pass == concept.Emit {
			if e.TraceEmits {
				e.Logger.Debug("push_emit(token)", zap.String("concept", c.Name()), zap.Int("start", src), zap.Int("end", newSrc))
			}
			e.buf.Push(emit.Entry{Concept: c, SourceStart: src, SourceEnd: newSrc})
		}
	}
	if r.Consumed {
		return Result{Source: newSrc, Action: Consumed}
	}
	return Result{Source: newSrc, Action: NoMatch}
}

func (e *Engine) consumeConceptAtom(pass concept.Pass, atom *schema.Atom, c concept.Concept, src int) Result {
	defer e.enter()()
	r := c.ConsumeAtom(pass, atom, e.Source[src:], e.Source[len(e.Source):])
	newSrc := src
	if r.Consumed {
		newSrc = len(e.Source) - len(r.Src)
		if pass == concept.Emit {
			if e.TraceEmits {
				e.Logger.Debug("push_emit(atom)", zap.String("concept", c.Name()), zap.Int("start", src), zap.Int("end", newSrc))
			}
			e.buf.Push(emit.Entry{Concept: c, SourceStart: src, SourceEnd: newSrc})
		}
	}
	if r.Consumed {
		return Result{Source: newSrc, Action: Consumed}
	}
	return Result{Source: newSrc, Action: NoMatch}
}
