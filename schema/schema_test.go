package schema

import (
	"errors"
	"testing"

	"github.com/glyphlang/glyph/concept"
)

func testRegistry() *concept.Registry {
	r := concept.NewRegistry()
	r.Register(concept.CoreLibrary())
	return r
}

func TestLoadEmptySchema(t *testing.T) {
	s, err := Load(Obj(), testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Meta.ParserRecursionLimit != HardRecursionCeiling {
		t.Fatalf("no meta block: want hard ceiling %d, got %d", HardRecursionCeiling, s.Meta.ParserRecursionLimit)
	}
	if len(s.Root.ChildOrder) != 0 {
		t.Fatalf("expected no root children, got %v", s.Root.ChildOrder)
	}
}

func TestLoadMetaDefaultsRecursionLimit(t *testing.T) {
	doc := Obj(KV{"meta", Obj(KV{"name", Str("test")})})
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Meta.ParserRecursionLimit != DefaultRecursionLimit {
		t.Fatalf("want default %d, got %d", DefaultRecursionLimit, s.Meta.ParserRecursionLimit)
	}
	if s.Meta.Name != "test" {
		t.Fatalf("meta.name not set: %+v", s.Meta)
	}
}

func TestLoadMetaExplicitRecursionLimit(t *testing.T) {
	doc := Obj(KV{"meta", Obj(KV{"parser_recursion_limit", IntVal(16)})})
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Meta.ParserRecursionLimit != 16 {
		t.Fatalf("want 16, got %d", s.Meta.ParserRecursionLimit)
	}
}

func TestLoadSingleRuleSchema(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"math.universal.number.digit", Kw("math.universal.number.digit")},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program, ok := s.Root.Children["program"]
	if !ok {
		t.Fatalf("expected 'program' child")
	}
	if len(program.Tokens) != 1 {
		t.Fatalf("expected 1 token rule, got %d", len(program.Tokens))
	}
	te := program.Tokens[0]
	if te.LHS == nil || !te.LHS.IsConcept() {
		t.Fatalf("lhs should resolve to a concept atom reference, got %+v", te.LHS)
	}
	if te.RHS == nil || !te.RHS.IsConcept() {
		t.Fatalf("rhs should resolve to a concept atom, got %+v", te.RHS)
	}
	if te.LHS != te.RHS {
		t.Fatalf("same concept name should canonicalize to the same atom")
	}
}

func TestLoadLiteralStringRule(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"plus", Str("+")},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	te := s.Root.Children["program"].Tokens[0]
	if te.RHS == nil || !te.RHS.IsTerminal() || te.RHS.TerminalKind != TerminalString {
		t.Fatalf("expected a string terminal rhs, got %+v", te.RHS)
	}
	if string(te.RHS.Literal) != "+" {
		t.Fatalf("literal mismatch: %q", te.RHS.Literal)
	}
}

func TestLoadTerminalKeywordRule(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"stop", Kw("done")},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	te := s.Root.Children["program"].Tokens[0]
	if te.RHS == nil || !te.RHS.IsTerminal() || te.RHS.TerminalKind != TerminalDone {
		t.Fatalf("expected a 'done' terminal rhs, got %+v", te.RHS)
	}
}

// TestLoadRuleOrderTieBreak checks that token entries preserve document
// order, since FindToken's linear scan is what implements the first-match
// tie-break (spec §4.4.6).
func TestLoadRuleOrderTieBreak(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"a", Str("x")},
				KV{"b", Str("x")},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program := s.Root.Children["program"]
	if len(program.Tokens) != 2 {
		t.Fatalf("expected 2 token entries, got %d", len(program.Tokens))
	}
	if program.Tokens[0].LHS.Symbol != "a" || program.Tokens[1].LHS.Symbol != "b" {
		t.Fatalf("token entries out of document order: %+v", program.Tokens)
	}
}

func TestFindTokenMemoizesByPointerIdentity(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"math.universal.number.digit", Kw("math.universal.number.digit")},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program := s.Root.Children["program"]
	candidate := program.Tokens[0].LHS

	rhs, ok := program.FindToken(candidate)
	if !ok || rhs != program.Tokens[0].RHS {
		t.Fatalf("expected FindToken to match candidate directly")
	}

	other := NewConceptAtom(candidate.Concept)
	if _, ok := program.FindToken(other); ok {
		t.Fatalf("a distinct *Atom wrapping the same (not ancestor) concept must not match: equality is by pointer, not concept value")
	}
}

func TestLoadNestedTokenObjectCreatesTokensNode(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"tokens", Obj(
				KV{"group", Obj(
					KV{"inner", Str("x")},
				)},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program := s.Root.Children["program"]
	rhs := program.Tokens[0].RHS
	if rhs == nil || !rhs.IsNode() || !rhs.IsTokensNode {
		t.Fatalf("expected nested tokens object to produce an IsTokensNode child, got %+v", rhs)
	}
	if len(rhs.Tokens) != 1 || rhs.Tokens[0].LHS.Symbol != "inner" {
		t.Fatalf("nested tokens node missing its own rules: %+v", rhs.Tokens)
	}
}

func TestLoadExpectResolvesAgainstSiblingNode(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"expect", Kw("statement")},
			KV{"statement", Obj(
				KV{"tokens", Obj(
					KV{"x", Str("x")},
				)},
			)},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program := s.Root.Children["program"]
	if len(program.Expects) != 1 || program.Expects[0] == nil {
		t.Fatalf("expect not resolved: %+v", program.Expects)
	}
	if program.Expects[0] != s.Root.Children["program"].Children["statement"] {
		t.Fatalf("expect should resolve to the sibling 'statement' node atom")
	}
}

func TestLoadUnresolvedReferenceFails(t *testing.T) {
	doc := Obj(
		KV{"program", Obj(
			KV{"expect", Kw("nonexistent")},
		)},
	)
	_, err := Load(doc, testRegistry())
	if err == nil {
		t.Fatalf("expected an unresolved-reference error")
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected a *LoadError, got %T", err)
	}
	if len(le.Unresolved) != 1 || le.Unresolved[0].LeafName != "nonexistent" {
		t.Fatalf("unresolved list missing offender: %+v", le.Unresolved)
	}
}

func TestLoadMissingLibraryFails(t *testing.T) {
	doc := Obj(
		KV{"libraries", Arr(Kw("does.not.exist"))},
	)
	_, err := Load(doc, testRegistry())
	if err == nil {
		t.Fatalf("expected a missing-library error")
	}
}

// TestLoadRootLevelTokensRecognized checks that "tokens"/"expect"/"is" are
// recognized directly at the document's top level, not only nested under a
// named child — the root atom is itself a schema_atom the engine parses
// directly (spec §4.6), so a grammar with no named top-level node must still
// be loadable.
func TestLoadRootLevelTokensRecognized(t *testing.T) {
	doc := Obj(
		KV{"tokens", Obj(
			KV{"math.universal.number.digit", Kw("math.universal.number.digit")},
		)},
	)
	s, err := Load(doc, testRegistry())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Root.Tokens) != 1 {
		t.Fatalf("expected 1 root-level token rule, got %d", len(s.Root.Tokens))
	}
	te := s.Root.Tokens[0]
	if te.LHS == nil || !te.LHS.IsConcept() || te.LHS != te.RHS {
		t.Fatalf("root-level token rule did not resolve as expected: %+v", te)
	}
}

// TestLoadRootLevelExpectAndIsRecognized exercises "expect" and "is" at the
// document root the same way.
func TestLoadRootLevelExpectAndIsRecognized(t *testing.T) {
	doc := Obj(
		KV{"expect", Kw("statement")},
		KV{"is", Kw("math.universal.number")},
		KV{"statement", Obj(
			KV{"tokens", Obj(
				KV{"x", Str("x")},
			)},
		)},
	)
	reg := testRegistry()
	s, err := Load(doc, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Root.Expects) != 1 || s.Root.Expects[0] != s.Root.Children["statement"] {
		t.Fatalf("root-level expect did not resolve to the sibling 'statement' node: %+v", s.Root.Expects)
	}
	c, ok := reg.Find("math.universal.number")
	if !ok || !s.Root.IsConceptOf(c) {
		t.Fatalf("root-level 'is' classification not recorded")
	}
}

func TestLoadIsConceptClassification(t *testing.T) {
	reg := testRegistry()
	doc := Obj(
		KV{"program", Obj(
			KV{"is", Kw("math.universal.number")},
		)},
	)
	s, err := Load(doc, reg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	program := s.Root.Children["program"]
	c, ok := reg.Find("math.universal.number")
	if !ok {
		t.Fatalf("core library missing expected concept")
	}
	if !program.IsConceptOf(c) {
		t.Fatalf("'is' classification not recorded")
	}
}
