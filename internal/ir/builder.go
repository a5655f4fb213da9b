package ir

import "github.com/funvibe/nodevm/internal/diagnostics"

// Builder appends instructions to a Func.
// Operand type errors are invariant violations of the body author and panic
// with diagnostics.ErrTypeMismatch.
type Builder struct {
	fn *Func
}

// NewBuilder starts a new function.
func NewBuilder(name string) *Builder {
	return &Builder{fn: &Func{Name: name}}
}

// Func returns the function being built.
func (b *Builder) Func() *Func { return b.fn }

func (b *Builder) emit(in Instr) Value {
	b.fn.Instrs = append(b.fn.Instrs, in)
	return Value{id: len(b.fn.Instrs) - 1, typ: in.Type}
}

// Param materialises the next function parameter.
func (b *Builder) Param(t Type) Value {
	v := b.emit(Instr{Op: OpParam, Type: t, Index: len(b.fn.Params)})
	b.fn.Params = append(b.fn.Params, v)
	return v
}

// ConstFloat produces a float constant.
func (b *Builder) ConstFloat(c float32) Value {
	return b.emit(Instr{Op: OpConst, Type: TypeFloat, Const: c})
}

func (b *Builder) check(op Op, want Type, args ...Value) {
	for i, a := range args {
		if a.typ != want {
			diagnostics.Raise(diagnostics.ErrTypeMismatch, "ir."+op.String(),
				"operand %d is %s, want %s", i, a.typ, want)
		}
		if a.id < 0 || a.id >= len(b.fn.Instrs) {
			diagnostics.Raise(diagnostics.ErrOutOfRange, "ir."+op.String(),
				"operand %d refers to %s, not defined in %q", i, a, b.fn.Name)
		}
	}
}

func (b *Builder) binary(op Op, x, y Value) Value {
	b.check(op, TypeFloat, x, y)
	return b.emit(Instr{Op: op, Type: TypeFloat, Args: []Value{x, y}})
}

// FAdd produces x + y.
func (b *Builder) FAdd(x, y Value) Value { return b.binary(OpFAdd, x, y) }

// FSub produces x - y.
func (b *Builder) FSub(x, y Value) Value { return b.binary(OpFSub, x, y) }

// FMul produces x * y.
func (b *Builder) FMul(x, y Value) Value { return b.binary(OpFMul, x, y) }

// FDiv produces x / y.
func (b *Builder) FDiv(x, y Value) Value { return b.binary(OpFDiv, x, y) }

// FMin produces x < y ? x : y.
func (b *Builder) FMin(x, y Value) Value { return b.binary(OpFMin, x, y) }

// FMax produces x < y ? y : x.
func (b *Builder) FMax(x, y Value) Value { return b.binary(OpFMax, x, y) }

// FNeg produces -x.
func (b *Builder) FNeg(x Value) Value {
	b.check(OpFNeg, TypeFloat, x)
	return b.emit(Instr{Op: OpFNeg, Type: TypeFloat, Args: []Value{x}})
}

// FCmpEQ produces x == y.
func (b *Builder) FCmpEQ(x, y Value) Value {
	b.check(OpFCmpEQ, TypeFloat, x, y)
	return b.emit(Instr{Op: OpFCmpEQ, Type: TypeBool, Args: []Value{x, y}})
}

// FCmpLT produces x < y.
func (b *Builder) FCmpLT(x, y Value) Value {
	b.check(OpFCmpLT, TypeFloat, x, y)
	return b.emit(Instr{Op: OpFCmpLT, Type: TypeBool, Args: []Value{x, y}})
}

// Select produces cond ? x : y.
func (b *Builder) Select(cond, x, y Value) Value {
	b.check(OpSelect, TypeBool, cond)
	b.check(OpSelect, TypeFloat, x, y)
	return b.emit(Instr{Op: OpSelect, Type: TypeFloat, Args: []Value{cond, x, y}})
}

// Return sets the function results and returns the finished function.
func (b *Builder) Return(results ...Value) *Func {
	for _, r := range results {
		if !r.IsValid() || r.id >= len(b.fn.Instrs) {
			diagnostics.Raise(diagnostics.ErrOutOfRange, "ir.ret", "result %s not defined in %q", r, b.fn.Name)
		}
	}
	b.fn.Results = append(b.fn.Results[:0], results...)
	return b.fn
}
