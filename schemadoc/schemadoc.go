// Package schemadoc decodes a schema document's stable external shape
// (spec §6) from YAML or JSON text into the schema.Value tree that
// schema.Load consumes. JSON is accepted for free: it is a subset of YAML.
//
// Unlike a plain "decode into interface{}" pass, this package parses at the
// AST level (github.com/goccy/go-yaml's ast package) because schema.Value
// must distinguish a quoted string ("if", producing a literal-match token)
// from a bare keyword (math.universal.number.digit, a terminal directive or
// concept reference) — a distinction a generic map[string]any decode loses
// the moment both collapse to Go string.
package schemadoc

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"github.com/glyphlang/glyph/schema"
)

// Decode parses data as a YAML (or JSON) document and converts its single
// top-level document into a schema.Value. An empty input decodes to an
// empty object, matching spec §8 scenario 1's "empty schema."
func Decode(data []byte) (schema.Value, error) {
	file, err := parser.ParseBytes(data, parser.ParseComments)
	if err != nil {
		return schema.Value{}, fmt.Errorf("schemadoc: parse: %w", err)
	}
	if len(file.Docs) == 0 || file.Docs[0].Body == nil {
		return schema.Obj(), nil
	}
	return nodeToValue(file.Docs[0].Body)
}

// DecodeFile reads path and decodes it via Decode.
func DecodeFile(path string) (schema.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Value{}, fmt.Errorf("schemadoc: %w", err)
	}
	return Decode(data)
}

func nodeToValue(n ast.Node) (schema.Value, error) {
	switch node := n.(type) {
	case *ast.MappingNode:
		return mappingToValue(node.Values)

	case *ast.MappingValueNode:
		return mappingToValue([]*ast.MappingValueNode{node})

	case *ast.SequenceNode:
		vals := make([]schema.Value, len(node.Values))
		for i, v := range node.Values {
			val, err := nodeToValue(v)
			if err != nil {
				return schema.Value{}, err
			}
			vals[i] = val
		}
		return schema.Arr(vals...), nil

	case *ast.StringNode:
		if isQuoted(node.Token) {
			return schema.Str(node.Value), nil
		}
		return schema.Kw(node.Value), nil

	case *ast.IntegerNode:
		i, err := strconv.Atoi(node.Token.Value)
		if err != nil {
			return schema.Value{}, fmt.Errorf("schemadoc: %s: not an integer", node.Token.Value)
		}
		return schema.IntVal(i), nil

	case *ast.NullNode:
		return schema.Obj(), nil

	default:
		return schema.Value{}, fmt.Errorf("schemadoc: unsupported YAML node %T", n)
	}
}

func mappingToValue(entries []*ast.MappingValueNode) (schema.Value, error) {
	kvs := make([]schema.KV, len(entries))
	for i, entry := range entries {
		key, err := keyString(entry.Key)
		if err != nil {
			return schema.Value{}, err
		}
		val, err := nodeToValue(entry.Value)
		if err != nil {
			return schema.Value{}, err
		}
		kvs[i] = schema.KV{Key: key, Val: val}
	}
	return schema.Obj(kvs...), nil
}

func keyString(n ast.MapKeyNode) (string, error) {
	switch key := n.(type) {
	case *ast.StringNode:
		return key.Value, nil
	default:
		return "", fmt.Errorf("schemadoc: unsupported mapping key %T", n)
	}
}

// isQuoted reports whether tok was written with explicit quotes in the
// source document, the signal this package uses to pick schema.KindString
// over schema.KindKeyword.
func isQuoted(tok *token.Token) bool {
	if tok == nil {
		return false
	}
	switch tok.Type {
	case token.SingleQuoteType, token.DoubleQuoteType:
		return true
	default:
		return false
	}
}
