// Package pluginloader dynamically loads a concept.Library from Go source
// text at runtime via an embedded interpreter (github.com/traefik/yaegi)
// instead of a process restart — the Go analogue of the original's
// dynamically loaded concept-library shared object (spec §6: "Out of
// scope... the dynamic plugin loader for concept libraries").
//
// A plugin is an ordinary Go source file that imports
// "github.com/glyphlang/glyph/concept" and defines an entry point:
//
//	func Library() *concept.Library { ... }
package pluginloader

import (
	"fmt"
	"os"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/glyphlang/glyph/concept"
)

const conceptPkgPath = "github.com/glyphlang/glyph/concept"

// EntryPoint is the function name Load looks up after interpreting a
// plugin's source.
const EntryPoint = "Library"

// conceptSymbols exposes package concept's plugin-facing constructors to
// the embedded interpreter, in the same shape `yaegi extract` generates for
// a real stdlib package. Kept deliberately narrow: a plugin can build a
// Library out of the concept kinds this module ships, not reach into the
// engine's schema/emit/parse internals.
var conceptSymbols = interp.Exports{
	conceptPkgPath + "/concept": map[string]reflect.Value{
		"Library":          reflect.ValueOf((*concept.Library)(nil)),
		"NewLibrary":       reflect.ValueOf(concept.NewLibrary),
		"NewRuneLiteral":   reflect.ValueOf(concept.NewRuneLiteral),
		"NewRuneSet":       reflect.ValueOf(concept.NewRuneSet),
		"NewRunePredicate": reflect.ValueOf(concept.NewRunePredicate),
		"NewWhitespace":    reflect.ValueOf(concept.NewWhitespace),
		"NewUnimplemented": reflect.ValueOf(concept.NewUnimplemented),
		"Probe":            reflect.ValueOf(concept.Probe),
		"Emit":             reflect.ValueOf(concept.Emit),
		"Postfix":          reflect.ValueOf(concept.Postfix),
		"Infix":            reflect.ValueOf(concept.Infix),
	},
}

// Load interprets src (named only for error messages) and calls its
// Library() entry point.
func Load(name string, src []byte) (*concept.Library, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("pluginloader: %s: loading stdlib symbols: %w", name, err)
	}
	if err := i.Use(conceptSymbols); err != nil {
		return nil, fmt.Errorf("pluginloader: %s: loading concept symbols: %w", name, err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("pluginloader: %s: %w", name, err)
	}

	v, err := i.Eval(EntryPoint + "()")
	if err != nil {
		return nil, fmt.Errorf("pluginloader: %s: no %s() entry point: %w", name, EntryPoint, err)
	}

	lib, ok := v.Interface().(*concept.Library)
	if !ok {
		return nil, fmt.Errorf("pluginloader: %s: %s() must return *concept.Library, got %T", name, EntryPoint, v.Interface())
	}
	return lib, nil
}

// LoadFile reads path and interprets it via Load.
func LoadFile(path string) (*concept.Library, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pluginloader: %w", err)
	}
	return Load(path, src)
}

// Register loads the plugin named name from src and registers it into reg.
// If reg already holds a library at the same URI under a different ID, the
// reload is rejected: concept equality is by identity (spec §4.1), and a
// schema compiled against the old library's concepts must not have that
// identity shift out from under it.
func Register(reg *concept.Registry, name string, src []byte) (*concept.Library, error) {
	lib, err := Load(name, src)
	if err != nil {
		return nil, err
	}
	for _, existing := range reg.Libraries() {
		if existing.URI == lib.URI && existing.ID != lib.ID {
			return nil, fmt.Errorf("pluginloader: %s: library %q reloaded with a different identity (was %s, now %s)",
				name, lib.URI, existing.ID, lib.ID)
		}
	}
	reg.Register(lib)
	return lib, nil
}

// RegisterFile reads path and registers it into reg via Register.
func RegisterFile(reg *concept.Registry, path string) (*concept.Library, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pluginloader: %w", err)
	}
	return Register(reg, path, src)
}
