// Package bytecode defines the instruction stream executed by the stack evaluator.
//
// A stream is a sequence of 32-bit words. Each instruction is an opcode word
// followed by its operands. Stack operands are slot offsets into a
// config.StackSize-slot stack; multi-slot values occupy consecutive slots
// starting at the offset. The stream is produced by an external graph
// compiler; this package only fixes the positional contract.
package bytecode

import "fmt"

// Opcode represents a single instruction
type Opcode uint32

const (
	// End terminates the instruction stream
	OP_END Opcode = iota

	// Constants
	OP_VALUE_FLOAT  // dst bits: stack[dst] = float
	OP_VALUE_FLOAT3 // dst x y z
	OP_VALUE_INT    // dst bits

	// Copy n slots from src to dst
	OP_COPY // src dst n

	// Site data
	OP_EFFECTOR_POSITION // dst (float3)
	OP_EFFECTOR_VELOCITY // dst (float3)
	OP_TEXTURE_COORD     // dst (float3)
	OP_ITERATION         // dst (int)

	// Call a function: fn, then one offset per input, then one per output.
	// Operand counts are fixed by the callee's signature.
	OP_CALL

	opCount
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_END:               "END",
	OP_VALUE_FLOAT:       "VALUE_FLOAT",
	OP_VALUE_FLOAT3:      "VALUE_FLOAT3",
	OP_VALUE_INT:         "VALUE_INT",
	OP_COPY:              "COPY",
	OP_EFFECTOR_POSITION: "EFFECTOR_POSITION",
	OP_EFFECTOR_VELOCITY: "EFFECTOR_VELOCITY",
	OP_TEXTURE_COORD:     "TEXTURE_COORD",
	OP_ITERATION:         "ITERATION",
	OP_CALL:              "CALL",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", uint32(op))
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool { return op < opCount }

// ParseOpcode resolves an opcode by name (case-sensitive, as in OpcodeNames).
func ParseOpcode(name string) (Opcode, bool) {
	for op, n := range OpcodeNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// operandCount is the fixed number of operand words per opcode.
// OP_CALL is variable and handled separately.
var operandCount = [opCount]int{
	OP_END:               0,
	OP_VALUE_FLOAT:       2,
	OP_VALUE_FLOAT3:      4,
	OP_VALUE_INT:         2,
	OP_COPY:              3,
	OP_EFFECTOR_POSITION: 1,
	OP_EFFECTOR_VELOCITY: 1,
	OP_TEXTURE_COORD:     1,
	OP_ITERATION:         1,
	OP_CALL:              1,
}

// OperandCount returns the number of fixed operand words following op.
// For OP_CALL it is the callee index only; the parameter offsets follow.
func OperandCount(op Opcode) int { return operandCount[op] }

// Callee is what the stream needs to know about a called function.
type Callee interface {
	Name() string
	InputSlots() []int
	OutputSlots() []int
}
