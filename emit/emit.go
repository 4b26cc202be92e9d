// Package emit implements the transactional emit buffer (spec §4.3): a
// single append-only sequence with a stack discipline. Every recursive
// parser frame opens a Scope on entry; on exit the scope either commits its
// entries to a Sink (Emit pass, success) or discards them (Probe pass, or
// failure), atomically.
package emit

import "github.com/glyphlang/glyph/concept"

// Entry is one committed-or-pending emission: a concept reference together
// with the source span it consumed.
type Entry struct {
	Concept     concept.Concept
	SourceStart int
	SourceEnd   int
}

// Sink receives committed entries in order. Push is only ever called with
// entries from a committing Scope, in insertion order.
type Sink interface {
	Push(e Entry)
}

// Buffer is the engine's single append-only sequence S (spec §4.3). A
// Buffer is owned by one compile call and is not safe for concurrent use.
type Buffer struct {
	entries []Entry
	sink    Sink
}

// New returns an empty buffer delivering committed entries to sink.
func New(sink Sink) *Buffer {
	return &Buffer{sink: sink}
}

// Len reports the buffer's current high-water mark |S|.
func (b *Buffer) Len() int { return len(b.entries) }

// Push appends an entry to the buffer. Callers only push while inside an
// open Scope (spec §4.4.7's Infix/Postfix ordering is the caller's concern;
// Push is a plain append in call order).
func (b *Buffer) Push(e Entry) {
	b.entries = append(b.entries, e)
}

// Open begins an emitter scope, recording the high-water mark at entry.
// Callers must Commit or Discard exactly once per Open.
func (b *Buffer) Open() *Scope {
	return &Scope{buf: b, from: len(b.entries)}
}

// Scope is one recursive parser frame's emitter scope.
type Scope struct {
	buf    *Buffer
	from   int
	closed bool
}

// Flush delivers S[from..] to the sink, in order, then truncates the buffer
// back to from, without closing the scope: a later Push into this same
// scope starts appending from from again, and a later Commit/Discard/Flush
// finds nothing new to act on if nothing further was pushed. This mirrors
// the original's emitter::emit(), callable mid-frame (e.g. to deliver an
// Infix concept's entry before recursing into the next token) as well as
// once more, implicitly, at scope close.
func (s *Scope) Flush() {
	s.mustOpen()
	for i := s.from; i < len(s.buf.entries); i++ {
		s.buf.sink.Push(s.buf.entries[i])
	}
	s.buf.entries = s.buf.entries[:s.from]
}

// Commit flushes any remaining staged entries and closes the scope. Calling
// Commit after the scope is already closed panics: it indicates a caller
// bug in frame bookkeeping.
func (s *Scope) Commit() {
	s.mustOpen()
	s.Flush()
	s.closed = true
}

// Discard truncates the buffer back to from without delivering anything:
// the probe-pass or failure-unwind path (spec §4.3).
func (s *Scope) Discard() {
	s.mustOpen()
	s.buf.entries = s.buf.entries[:s.from]
	s.closed = true
}

func (s *Scope) mustOpen() {
	if s.closed {
		panic("emit: scope closed twice")
	}
}

// SliceSink is an in-memory Sink, useful for tests substituting the real
// bytecode consumer (spec §6).
type SliceSink struct {
	Entries []Entry
}

func (s *SliceSink) Push(e Entry) {
	s.Entries = append(s.Entries, e)
}
