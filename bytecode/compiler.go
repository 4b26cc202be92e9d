// Package bytecode assembles a committed emit stream (package emit) into a
// flat instruction sequence, the downstream consumer the original compiler
// hands its parse results to (spec's Non-goals exclude an explicit syntax
// tree; bytecode is the form a caller actually walks). Interning concept
// names and spans into side tables keeps the instruction stream itself a
// flat []Opcode, matching the teacher's RawText/table-index convention.
package bytecode

import (
	"fmt"

	"github.com/glyphlang/glyph/emit"
)

// Span is a half-open byte range within a translation unit's source.
type Span struct {
	Start, End int
}

// Program is the assembled form of one translation unit's committed emits.
type Program struct {
	Instr    []Opcode
	Concepts []string
	Spans    []Span
}

// Assemble compiles entries, in order, into a Program: one Emit instruction
// per entry, terminated by End.
func Assemble(entries []emit.Entry) (prog *Program, err error) {
	defer errRecover(&err)

	p := &Program{}
	s := compilation{prog: p, conceptIdx: make(map[string]Opcode)}
	for _, e := range entries {
		s.visit(e)
	}
	s.add(End)
	return s.prog, nil
}

type compilation struct {
	prog       *Program
	conceptIdx map[string]Opcode
	entry      emit.Entry // current entry, for errors
}

func (s *compilation) visit(e emit.Entry) {
	s.at(e)
	if e.Concept == nil {
		s.errorf("emit entry with nil concept at [%d,%d)", e.SourceStart, e.SourceEnd)
	}
	concept := s.intern(e.Concept.Name())
	span := Opcode(len(s.prog.Spans))
	s.prog.Spans = append(s.prog.Spans, Span{Start: e.SourceStart, End: e.SourceEnd})
	s.add(Emit, concept, span)
}

func (s *compilation) intern(name string) Opcode {
	if idx, ok := s.conceptIdx[name]; ok {
		return idx
	}
	idx := Opcode(len(s.prog.Concepts))
	s.prog.Concepts = append(s.prog.Concepts, name)
	s.conceptIdx[name] = idx
	return idx
}

func (s *compilation) add(ops ...Opcode) {
	s.prog.Instr = append(s.prog.Instr, ops...)
}

// at marks the state to be on entry e, for error reporting.
func (s *compilation) at(e emit.Entry) {
	s.entry = e
}

// errorf formats the error and terminates processing.
func (s *compilation) errorf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// errRecover is the handler that turns panics into returns from the top
// level of Assemble.
func errRecover(errp *error) {
	e := recover()
	if e != nil {
		*errp = fmt.Errorf("%v", e)
	}
}
