package function

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/funvibe/nodevm/internal/bytecode"
	"github.com/funvibe/nodevm/internal/globals"
	"github.com/funvibe/nodevm/internal/ir"
	"github.com/funvibe/nodevm/internal/site"
)

// Strategy names a way of executing a Function
type Strategy uint8

const (
	// Interpreted bodies compute outputs directly from tuple values
	Interpreted Strategy = iota + 1
	// Codegen bodies emit IR, compiled ahead of evaluation
	Codegen
	// Bytecode bodies are compiled node graphs run by the stack evaluator
	Bytecode
)

func (s Strategy) String() string {
	switch s {
	case Interpreted:
		return "interpreted"
	case Codegen:
		return "codegen"
	case Bytecode:
		return "bytecode"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy converts a strategy name back to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{Interpreted, Codegen, Bytecode} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Body is an implementation attached to a Function.
type Body interface {
	Strategy() Strategy
}

// TupleCallBody computes a Function directly.
//
// Call reads every input slot, writes every output slot exactly once, and
// must behave as a pure function of its inputs and ctx. It must not retain
// in, out or ctx after returning.
type TupleCallBody interface {
	Body
	Call(in, out *Tuple, ctx *ExecutionContext)
}

// BuildIRBody emits IR for a Function.
//
// BuildIR receives one value per input, in order, and returns exactly one
// value per output, in order. It produces straight-line code only and has no
// access to globals or site data.
type BuildIRBody interface {
	Body
	BuildIR(b *ir.Builder, inputs []ir.Value) []ir.Value
}

// CallFunc adapts a plain function to TupleCallBody.
type CallFunc func(in, out *Tuple, ctx *ExecutionContext)

func (CallFunc) Strategy() Strategy { return Interpreted }

func (f CallFunc) Call(in, out *Tuple, ctx *ExecutionContext) { f(in, out, ctx) }

// BuildIRFunc adapts a plain function to BuildIRBody.
type BuildIRFunc func(b *ir.Builder, inputs []ir.Value) []ir.Value

func (BuildIRFunc) Strategy() Strategy { return Codegen }

func (f BuildIRFunc) BuildIR(b *ir.Builder, inputs []ir.Value) []ir.Value { return f(b, inputs) }

// ExpressionBody is the compiled instruction stream of a node graph.
// Callees are addressed by index from Call instructions.
type ExpressionBody struct {
	Code    bytecode.Stream
	Callees []*Function
}

func (*ExpressionBody) Strategy() Strategy { return Bytecode }

// CalleeList returns the callees as bytecode.Callee values.
func (e *ExpressionBody) CalleeList() []bytecode.Callee {
	out := make([]bytecode.Callee, len(e.Callees))
	for i, fn := range e.Callees {
		out[i] = fn
	}
	return out
}

// ExecutionContext is what a TupleCallBody may consult besides its inputs.
type ExecutionContext struct {
	Globals *globals.Globals
	Data    *site.Data
	Logger  hclog.Logger
}

var zeroSite site.Data

// Site returns the site data, or a zero value when none was supplied.
func (c *ExecutionContext) Site() *site.Data {
	if c == nil || c.Data == nil {
		return &zeroSite
	}
	return c.Data
}

// Objects returns the globals snapshot, never nil.
func (c *ExecutionContext) Objects() *globals.Globals {
	if c == nil || c.Globals == nil {
		return globals.Empty()
	}
	return c.Globals
}
