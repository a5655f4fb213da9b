package bytecode

import (
	"fmt"
	"math"
	"strings"
)

// Disassemble returns a human-readable listing of the stream from entry
// until OP_END, or until it stops decoding.
func Disassemble(code Stream, entry int, callees []Callee, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	pc := entry
	for {
		in, err := Decode(code, pc, callees)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04d <%s>\n", pc, err))
			break
		}
		disassembleInstruction(&sb, in, callees)
		if in.Op == OP_END {
			break
		}
		pc = in.Next
	}

	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, in Instr, callees []Callee) {
	sb.WriteString(fmt.Sprintf("%04d %-18s", in.PC, in.Op))

	ops := in.Operands
	switch in.Op {
	case OP_END:
	case OP_VALUE_FLOAT:
		sb.WriteString(fmt.Sprintf("@%d = %g", ops[0], math.Float32frombits(ops[1])))
	case OP_VALUE_FLOAT3:
		sb.WriteString(fmt.Sprintf("@%d = (%g, %g, %g)", ops[0],
			math.Float32frombits(ops[1]), math.Float32frombits(ops[2]), math.Float32frombits(ops[3])))
	case OP_VALUE_INT:
		sb.WriteString(fmt.Sprintf("@%d = %d", ops[0], int32(ops[1])))
	case OP_COPY:
		sb.WriteString(fmt.Sprintf("@%d <- @%d x%d", ops[1], ops[0], ops[2]))
	case OP_EFFECTOR_POSITION, OP_EFFECTOR_VELOCITY, OP_TEXTURE_COORD, OP_ITERATION:
		sb.WriteString(fmt.Sprintf("@%d", ops[0]))
	case OP_CALL:
		sb.WriteString(fmt.Sprintf("%q (%s) -> (%s)", callees[in.Callee].Name(), offsets(in.In), offsets(in.Out)))
	}
	sb.WriteString("\n")
}

func offsets(offs []int) string {
	parts := make([]string, len(offs))
	for i, o := range offs {
		parts[i] = fmt.Sprintf("@%d", o)
	}
	return strings.Join(parts, ", ")
}
