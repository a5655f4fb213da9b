// Package builtins is the library of built-in functions.
//
// Every function is constructed once, on first use, and shared by reference
// afterwards. Float math functions carry both an interpreted and a codegen
// body that compute the same result.
package builtins

import (
	"sync"

	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/ir"
	"github.com/funvibe/nodevm/internal/types"
)

func float(name string) function.Parameter {
	return function.Parameter{Name: name, Type: types.FloatType()}
}

func binary(name string, call func(a, b float32) float32, build func(b *ir.Builder, x, y ir.Value) ir.Value) *function.Function {
	sig := function.MustSignature(
		[]function.Parameter{float("A"), float("B")},
		[]function.Parameter{float("Result")},
	)
	return function.New(name, sig).
		AddBody(function.CallFunc(func(in, out *function.Tuple, _ *function.ExecutionContext) {
			out.SetFloat(0, call(in.GetFloat(0), in.GetFloat(1)))
		})).
		AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
			return []ir.Value{build(b, in[0], in[1])}
		}))
}

var AddFloats = sync.OnceValue(func() *function.Function {
	return binary("Add Floats",
		func(a, b float32) float32 { return a + b },
		(*ir.Builder).FAdd)
})

var SubtractFloats = sync.OnceValue(func() *function.Function {
	return binary("Subtract Floats",
		func(a, b float32) float32 { return a - b },
		(*ir.Builder).FSub)
})

var MultiplyFloats = sync.OnceValue(func() *function.Function {
	return binary("Multiply Floats",
		func(a, b float32) float32 { return a * b },
		(*ir.Builder).FMul)
})

// DivideFloats yields 0 when B is 0.
var DivideFloats = sync.OnceValue(func() *function.Function {
	return binary("Divide Floats",
		func(a, b float32) float32 {
			if b == 0 {
				return 0
			}
			return a / b
		},
		func(b *ir.Builder, x, y ir.Value) ir.Value {
			zero := b.ConstFloat(0)
			return b.Select(b.FCmpEQ(y, zero), zero, b.FDiv(x, y))
		})
})

var Minimum = sync.OnceValue(func() *function.Function {
	return binary("Minimum",
		func(a, b float32) float32 {
			if a < b {
				return a
			}
			return b
		},
		(*ir.Builder).FMin)
})

var Maximum = sync.OnceValue(func() *function.Function {
	return binary("Maximum",
		func(a, b float32) float32 {
			if a < b {
				return b
			}
			return a
		},
		(*ir.Builder).FMax)
})

// MapRange maps Value from [From Min, From Max] onto [To Min, To Max].
// The position within the source range is clamped to [0, 1]; an empty
// source range yields To Min.
var MapRange = sync.OnceValue(func() *function.Function {
	sig := function.MustSignature(
		[]function.Parameter{float("Value"), float("From Min"), float("From Max"), float("To Min"), float("To Max")},
		[]function.Parameter{float("Value")},
	)
	return function.New("Map Range", sig).
		AddBody(function.CallFunc(func(in, out *function.Tuple, _ *function.ExecutionContext) {
			out.SetFloat(0, mapRange(in.GetFloat(0), in.GetFloat(1), in.GetFloat(2), in.GetFloat(3), in.GetFloat(4)))
		})).
		AddBody(function.BuildIRFunc(buildMapRange))
})

func mapRange(value, fromMin, fromMax, toMin, toMax float32) float32 {
	fromRange := fromMax - fromMin
	toRange := toMax - toMin
	if fromRange == 0 {
		return toMin
	}
	t := (value - fromMin) / fromRange
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	// explicit conversion keeps the multiply and add from fusing
	return float32(t*toRange) + toMin
}

func buildMapRange(b *ir.Builder, in []ir.Value) []ir.Value {
	value, fromMin, fromMax, toMin, toMax := in[0], in[1], in[2], in[3], in[4]
	zero, one := b.ConstFloat(0), b.ConstFloat(1)

	fromRange := b.FSub(fromMax, fromMin)
	toRange := b.FSub(toMax, toMin)

	t := b.FDiv(b.FSub(value, fromMin), fromRange)
	t = b.Select(b.FCmpLT(t, zero), zero, t)
	t = b.Select(b.FCmpLT(one, t), one, t)
	mapped := b.FAdd(b.FMul(t, toRange), toMin)

	return []ir.Value{b.Select(b.FCmpEQ(fromRange, zero), toMin, mapped)}
}
