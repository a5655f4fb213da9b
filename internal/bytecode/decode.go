package bytecode

import (
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/diagnostics"
)

// Instr is one decoded instruction.
type Instr struct {
	PC       int
	Op       Opcode
	Operands []uint32

	// Callee, In and Out are set for OP_CALL only
	Callee int
	In     []int
	Out    []int

	// Next is the position of the following instruction
	Next int
}

// Access is a region of the stack an instruction reads or writes.
type Access struct {
	Offset int
	Slots  int
	Write  bool
}

// Decode reads the instruction at pc. callees resolves OP_CALL operand counts.
func Decode(code Stream, pc int, callees []Callee) (Instr, error) {
	if pc < 0 || pc >= len(code) {
		return Instr{}, diagnostics.New(diagnostics.ErrOutOfRange, "bytecode.decode",
			"pc %d outside stream of %d words", pc, len(code))
	}
	op := Opcode(code[pc])
	if !op.Valid() {
		return Instr{}, diagnostics.New(diagnostics.ErrOutOfRange, "bytecode.decode",
			"invalid opcode %d at %d", uint32(op), pc)
	}

	n := operandCount[op]
	if pc+1+n > len(code) {
		return Instr{}, truncated(op, pc, len(code))
	}
	in := Instr{PC: pc, Op: op, Operands: code[pc+1 : pc+1+n], Next: pc + 1 + n}
	if op != OP_CALL {
		return in, nil
	}

	in.Callee = int(code[pc+1])
	if in.Callee >= len(callees) {
		return Instr{}, diagnostics.New(diagnostics.ErrOutOfRange, "bytecode.decode",
			"CALL at %d addresses function %d, %d available", pc, in.Callee, len(callees))
	}
	fn := callees[in.Callee]
	nin, nout := len(fn.InputSlots()), len(fn.OutputSlots())
	end := pc + 2 + nin + nout
	if end > len(code) {
		return Instr{}, truncated(op, pc, len(code))
	}
	in.Operands = code[pc+1 : end]
	in.In = words(code[pc+2 : pc+2+nin])
	in.Out = words(code[pc+2+nin : end])
	in.Next = end
	return in, nil
}

func truncated(op Opcode, pc, size int) error {
	return diagnostics.New(diagnostics.ErrOutOfRange, "bytecode.decode",
		"%s at %d runs past end of stream (%d words)", op, pc, size)
}

func words(ws []uint32) []int {
	out := make([]int, len(ws))
	for i, w := range ws {
		out[i] = int(w)
	}
	return out
}

// Accesses lists the stack regions the instruction touches.
func (in Instr) Accesses(callees []Callee) []Access {
	switch in.Op {
	case OP_VALUE_FLOAT, OP_VALUE_INT, OP_ITERATION:
		return []Access{{Offset: int(in.Operands[0]), Slots: 1, Write: true}}
	case OP_VALUE_FLOAT3, OP_EFFECTOR_POSITION, OP_EFFECTOR_VELOCITY, OP_TEXTURE_COORD:
		return []Access{{Offset: int(in.Operands[0]), Slots: 3, Write: true}}
	case OP_COPY:
		n := int(in.Operands[2])
		return []Access{
			{Offset: int(in.Operands[0]), Slots: n},
			{Offset: int(in.Operands[1]), Slots: n, Write: true},
		}
	case OP_CALL:
		fn := callees[in.Callee]
		var out []Access
		for i, w := range fn.InputSlots() {
			out = append(out, Access{Offset: in.In[i], Slots: w})
		}
		for i, w := range fn.OutputSlots() {
			out = append(out, Access{Offset: in.Out[i], Slots: w, Write: true})
		}
		return out
	}
	return nil
}

// InBounds reports whether the region lies within the stack.
func (a Access) InBounds() bool {
	return a.Offset >= 0 && a.Slots >= 0 && uint64(a.Offset)+uint64(a.Slots) <= config.StackSize
}
