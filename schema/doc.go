package schema

// ValueKind tags which shape a Value holds: the stable, external shape a
// schema document is decoded into (spec §6) before schema.Load walks it.
// Deserializing an actual YAML/JSON file into this shape is the job of an
// external collaborator (package schemadoc) — only this in-memory shape is
// specified here (spec §1).
type ValueKind int

const (
	KindObject ValueKind = iota
	KindArray
	KindString  // a quoted string: produces a literal-match token on the rhs
	KindKeyword // a bareword: a terminal directive, or an atom/concept reference
	KindInt
)

// KV is one ordered key/value pair of an object Value. Order is preserved
// because it defines schema tie-breaks (spec §4.4.6).
type KV struct {
	Key string
	Val Value
}

// Value is one node of the decoded schema document.
type Value struct {
	Kind   ValueKind
	Object []KV
	Array  []Value
	Str    string
	Keyword string
	Int    int
}

// Obj builds an object Value from the given key/value pairs, in order.
func Obj(kvs ...KV) Value { return Value{Kind: KindObject, Object: kvs} }

// Kw builds a bareword Value.
func Kw(s string) Value { return Value{Kind: KindKeyword, Keyword: s} }

// Str builds a quoted-string Value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Arr builds an array Value.
func Arr(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// IntVal builds an integer Value.
func IntVal(n int) Value { return Value{Kind: KindInt, Int: n} }
