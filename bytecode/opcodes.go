package bytecode

//go:generate go run golang.org/x/tools/cmd/stringer@v0.1.8 -type=Opcode

type Opcode int32

const (
	Nop Opcode = iota

	// Emit is followed by two operands: an index into Program.Concepts and
	// an index into Program.Spans.
	Emit
	End

	EndOpcode
)
