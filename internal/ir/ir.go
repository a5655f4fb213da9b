// Package ir is the straight-line intermediate representation produced by
// codegen call bodies.
//
// A body receives one materialised Value per input parameter and returns one
// Value per output. There are no branches or loops; conditional results are
// expressed with Select.
package ir

import (
	"fmt"
	"math"
	"strings"
)

// Type is the type of an IR value
type Type uint8

const (
	TypeFloat Type = iota + 1
	TypeBool
)

func (t Type) String() string {
	switch t {
	case TypeFloat:
		return "float"
	case TypeBool:
		return "i1"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Op is an IR operation
type Op uint8

const (
	OpParam Op = iota
	OpConst
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg
	OpFMin
	OpFMax
	OpFCmpEQ
	OpFCmpLT
	OpSelect
)

// OpNames maps ops to their listing names
var OpNames = map[Op]string{
	OpParam:  "param",
	OpConst:  "const",
	OpFAdd:   "fadd",
	OpFSub:   "fsub",
	OpFMul:   "fmul",
	OpFDiv:   "fdiv",
	OpFNeg:   "fneg",
	OpFMin:   "fmin",
	OpFMax:   "fmax",
	OpFCmpEQ: "fcmp oeq",
	OpFCmpLT: "fcmp olt",
	OpSelect: "select",
}

func (op Op) String() string {
	if name, ok := OpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Value is a reference to the result of one instruction in a Func.
type Value struct {
	id  int
	typ Type
}

// ID returns the instruction index that produces v.
func (v Value) ID() int { return v.id }

// Type returns the type of v.
func (v Value) Type() Type { return v.typ }

// IsValid reports whether v refers to an instruction.
func (v Value) IsValid() bool { return v.typ != 0 }

func (v Value) String() string { return fmt.Sprintf("%%%d", v.id) }

// Instr is a single instruction. Its result is the Value with the same index.
type Instr struct {
	Op    Op
	Type  Type
	Args  []Value
	Const float32 // OpConst only
	Index int     // OpParam only: parameter position
}

// Func is a built IR function.
type Func struct {
	Name    string
	Params  []Value
	Instrs  []Instr
	Results []Value
}

// Value returns the Value produced by instruction i.
func (f *Func) Value(i int) Value {
	return Value{id: i, typ: f.Instrs[i].Type}
}

// String renders f as an LLVM-like listing.
func (f *Func) String() string {
	var sb strings.Builder

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %s", p.typ, p)
	}
	fmt.Fprintf(&sb, "define @%q(%s) {\n", f.Name, strings.Join(params, ", "))

	for i, in := range f.Instrs {
		switch in.Op {
		case OpParam:
			continue
		case OpConst:
			fmt.Fprintf(&sb, "  %%%d = const %s %s\n", i, in.Type, formatFloat(in.Const))
		default:
			args := make([]string, len(in.Args))
			for j, a := range in.Args {
				args[j] = a.String()
			}
			fmt.Fprintf(&sb, "  %%%d = %s %s %s\n", i, in.Op, in.Type, strings.Join(args, ", "))
		}
	}

	results := make([]string, len(f.Results))
	for i, r := range f.Results {
		results[i] = fmt.Sprintf("%s %s", r.typ, r)
	}
	fmt.Fprintf(&sb, "  ret %s\n}\n", strings.Join(results, ", "))
	return sb.String()
}

func formatFloat(v float32) string {
	if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
		return fmt.Sprintf("0x%08x", math.Float32bits(v))
	}
	return fmt.Sprintf("%g", v)
}
