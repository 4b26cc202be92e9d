// Package compiler implements the compiler facade (spec §4.6, C6): the
// public entry point that drives the parser engine (package parse) across a
// program's translation units and turns a top-level parse failure into a
// positioned diagnostic (package srcpos).
package compiler

import (
	"time"

	"github.com/glyphlang/glyph/concept"
	"github.com/glyphlang/glyph/emit"
	"github.com/glyphlang/glyph/parse"
	"github.com/glyphlang/glyph/schema"
	"github.com/glyphlang/glyph/srcpos"
	"go.uber.org/zap"
)

// TranslationUnit bundles a schema, a source buffer, and the unit's display
// name (used only for diagnostics). Per-unit AST/symbol state is the
// collaborator's concern (spec §3) — this module stops at the emit stream.
type TranslationUnit struct {
	Name   string
	Schema *schema.Schema
	Source []byte

	// whitespace caches the unit's "language.whitespace" concept reference,
	// the common fast-path hook spec §4.6 describes. Whitespace skipping
	// itself is a no-op in this module (concept.Whitespace never consumes);
	// the field exists so a future collaborator has somewhere to look it up
	// without re-querying the registry per token.
	whitespace concept.Concept
}

// Whitespace returns the translation unit's cached "language.whitespace"
// concept. The cache is filled by Compile; before Compile has run on this
// unit, or when the schema's registry has no such concept, it reports false.
func (u *TranslationUnit) Whitespace() (concept.Concept, bool) {
	return u.whitespace, u.whitespace != nil
}

// Program is an ordered list of translation units (spec §3). The
// program-wide symbol table and bytecode text buffer the original
// describes are opaque to this package; the bytecode package owns turning
// an emit stream into a bytecode.Program.
type Program struct {
	TranslationUnits []*TranslationUnit
}

// Compiler drives a Program's translation units through the parser engine.
// A Compiler is not safe to share across concurrent Compile calls (spec §5);
// independent compiles need independent Compilers, though a Program's
// Schema/Registry may be safely shared.
type Compiler struct {
	// Trace logs each parser primitive's entry with depth indentation.
	// TraceEmits logs each push into the emit buffer. Both are pure
	// observers (spec §4.6): toggling them must never change a parse's
	// outcome, only what is logged along the way.
	Trace      bool
	TraceEmits bool
	Logger     *zap.Logger

	startTime time.Time
	endTime   time.Time
}

// New returns a Compiler with tracing disabled and a no-op logger.
func New() *Compiler {
	return &Compiler{Logger: zap.NewNop()}
}

// StartTime and EndTime report the monotonic bounds of the most recent
// Compile call (spec §4.6). Both are zero before the first call.
func (c *Compiler) StartTime() time.Time { return c.startTime }
func (c *Compiler) EndTime() time.Time   { return c.endTime }

// Compile parses every translation unit in program to completion, delivering
// committed emit entries to sink in source order. It returns the first
// positioned syntax error encountered (srcpos.PositionedError), or a
// *parse.RecursionLimitError / *parse.InternalError for a category-3/5
// failure (spec §7); nil on full success.
func (c *Compiler) Compile(program *Program, sink emit.Sink) error {
	c.startTime = time.Now()
	defer func() { c.endTime = time.Now() }()

	for _, unit := range program.TranslationUnits {
		if err := c.compileUnit(unit, sink); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileUnit(unit *TranslationUnit, sink emit.Sink) error {
	unit.whitespace, _ = unit.Schema.FindConcept("language.whitespace")

	eng := parse.New(unit.Schema, unit.Source, sink)
	eng.Trace = c.Trace
	eng.TraceEmits = c.TraceEmits
	eng.Logger = c.Logger

	cursor := 0
	for cursor != len(unit.Source) {
		result, err := eng.Run(unit.Schema.Root, cursor)
		if err != nil {
			return err
		}
		if result.Action == parse.NoMatch || result.Source == cursor {
			probe, have := eng.DeepestProbe()
			if !have {
				probe = cursor
			}
			pos := srcpos.Locate(unit.Source, probe)
			return srcpos.New(unit.Name, pos, "syntax error")
		}
		cursor = result.Source
	}
	return nil
}
