package concept

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// RuneClass is a single-character-class concept, generalizing the original's
// two template instantiations (language_character_utf8<single_char<Char>>
// and <multiple_chars<N>>, concepts/src/core/language.cpp) into one Go type
// parameterized by a predicate, per spec §9's design note: "parameterize by
// a small character-matcher value (literal char, set, predicate)".
type RuneClass struct {
	base
	match    func(r rune) bool
	normalize bool
}

// NewRuneLiteral matches exactly one rune.
func NewRuneLiteral(name string, parent Concept, r rune) *RuneClass {
	return &RuneClass{base: newBase(name, parent, Postfix), match: func(x rune) bool { return x == r }}
}

// NewRuneSet matches any rune in set.
func NewRuneSet(name string, parent Concept, set []rune) *RuneClass {
	members := make(map[rune]bool, len(set))
	for _, r := range set {
		members[r] = true
	}
	return &RuneClass{base: newBase(name, parent, Postfix), match: func(x rune) bool { return members[x] }}
}

// NewRunePredicate matches any rune for which pred returns true (e.g.
// unicode.IsDigit).
func NewRunePredicate(name string, parent Concept, pred func(rune) bool) *RuneClass {
	return &RuneClass{base: newBase(name, parent, Postfix), match: pred}
}

// WithNormalization opts this concept's matching into NFC normalization of
// the candidate rune before testing the predicate. Only that single decoded
// rune is normalized; combining marks that follow it are not included, and
// the bytes consumed are those of the original rune. This is never
// applied to the core String terminal path (spec §4.4.8 requires
// byte-for-byte, un-normalized literal matching) — it exists only for
// concepts that explicitly want it.
func (c *RuneClass) WithNormalization() *RuneClass {
	c.normalize = true
	return c
}

func (c *RuneClass) ConsumeToken(pass Pass, src, end []byte) Result {
	if len(src) == 0 {
		return Result{Consumed: false}
	}
	r, size := utf8.DecodeRune(src)
	if c.normalize {
		normalized := norm.NFC.Bytes(src[:size])
		r, _ = utf8.DecodeRune(normalized)
	}
	if r == utf8.RuneError && size <= 1 {
		return Result{Consumed: false}
	}
	if !c.match(r) {
		return Result{Consumed: false}
	}
	return Result{Src: src[size:], Consumed: true}
}

func (c *RuneClass) ConsumeAtom(pass Pass, atom interface{}, src, end []byte) Result {
	return c.ConsumeToken(pass, src, end)
}

// Whitespace is a no-op fast-path concept: the compiler facade caches a
// reference to "language.whitespace" per translation unit (spec §4.6) but,
// as specified, whitespace skipping is currently a no-op hook rather than
// an active behavior wired into the engine.
type Whitespace struct {
	base
}

// NewWhitespace constructs the language.whitespace concept.
func NewWhitespace(parent Concept) *Whitespace {
	return &Whitespace{base: newBase("language.whitespace", parent, Postfix)}
}

func (*Whitespace) ConsumeToken(Pass, []byte, []byte) Result {
	return Result{Consumed: false}
}

func (*Whitespace) ConsumeAtom(Pass, interface{}, []byte, []byte) Result {
	return Result{Consumed: false}
}
