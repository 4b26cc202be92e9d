package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/glyphlang/glyph/emit"
)

func TestRunDeliversRecordsInOrder(t *testing.T) {
	digit, _ := testConcepts(t)
	prog, err := Assemble([]emit.Entry{
		{Concept: digit, SourceStart: 0, SourceEnd: 1},
		{Concept: digit, SourceStart: 2, SourceEnd: 5},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	var got []Record
	if err := prog.Run(VisitorFunc(func(r Record) { got = append(got, r) })); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []Record{
		{Concept: "math.universal.number.digit", Start: 0, End: 1},
		{Concept: "math.universal.number.digit", Start: 2, End: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded records do not match expected:\n%s", diff)
	}
}

func TestRunEmptyProgramStopsAtEnd(t *testing.T) {
	prog, err := Assemble(nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var got []Record
	if err := prog.Run(VisitorFunc(func(r Record) { got = append(got, r) })); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %+v", got)
	}
}

func TestRunRejectsTruncatedInstructionStream(t *testing.T) {
	prog := &Program{Instr: []Opcode{Emit, 0}}
	if err := prog.Run(VisitorFunc(func(Record) {})); err == nil {
		t.Fatalf("expected an error decoding a truncated instruction stream")
	}
}
