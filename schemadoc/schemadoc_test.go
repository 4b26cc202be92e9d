package schemadoc

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glyphlang/glyph/schema"
)

func TestDecodeEmptyDocument(t *testing.T) {
	got, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(schema.Obj(), got); diff != "" {
		t.Fatalf("empty document mismatch:\n%s", diff)
	}
}

func TestDecodeDistinguishesQuotedStringsFromKeywords(t *testing.T) {
	doc := []byte(`
program:
  tokens:
    kw: "if"
    concept: math.universal.number.digit
`)
	got, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := schema.Obj(
		schema.KV{Key: "program", Val: schema.Obj(
			schema.KV{Key: "tokens", Val: schema.Obj(
				schema.KV{Key: "kw", Val: schema.Str("if")},
				schema.KV{Key: "concept", Val: schema.Kw("math.universal.number.digit")},
			)},
		)},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded document mismatch:\n%s", diff)
	}
}

func TestDecodeSequence(t *testing.T) {
	doc := []byte(`
expect:
  - altA
  - altB
`)
	got, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := schema.Obj(
		schema.KV{Key: "expect", Val: schema.Arr(schema.Kw("altA"), schema.Kw("altB"))},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded sequence mismatch:\n%s", diff)
	}
}

func TestDecodeInteger(t *testing.T) {
	doc := []byte(`
meta:
  parser_recursion_limit: 64
`)
	got, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := schema.Obj(
		schema.KV{Key: "meta", Val: schema.Obj(
			schema.KV{Key: "parser_recursion_limit", Val: schema.IntVal(64)},
		)},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded integer mismatch:\n%s", diff)
	}
}

// JSON is YAML's subset, so a JSON document must decode identically; JSON
// strings are always quoted so every scalar below lands as schema.KindString.
func TestDecodeAcceptsJSON(t *testing.T) {
	doc := []byte(`{"program": {"tokens": {"kw": "if"}}}`)
	got, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := schema.Obj(
		schema.KV{Key: "program", Val: schema.Obj(
			schema.KV{Key: "tokens", Val: schema.Obj(
				schema.KV{Key: "kw", Val: schema.Str("if")},
			)},
		)},
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded JSON mismatch:\n%s", diff)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	if _, err := DecodeFile("/nonexistent/path/to/schema.yaml"); err == nil {
		t.Fatalf("expected an error reading a missing file")
	}
}
