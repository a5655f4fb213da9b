package codegen

import (
	"fmt"
	"sync"

	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/ir"
)

type step func(r []float32)

// Native is a compiled codegen body. It is immutable and safe for concurrent use.
type Native struct {
	name    string
	ir      *ir.Func
	steps   []step
	params  []int
	results []int

	// template holds constants; every run starts from a copy of it
	template []float32
	regs     sync.Pool
}

// Compile lowers and compiles fn's codegen body.
func Compile(fn *function.Function) (*Native, error) {
	f, err := Lower(fn)
	if err != nil {
		return nil, err
	}
	return CompileIR(f)
}

// CompileIR compiles an already lowered function.
func CompileIR(f *ir.Func) (*Native, error) {
	n := &Native{
		name:     f.Name,
		ir:       f,
		template: make([]float32, len(f.Instrs)),
	}
	for _, p := range f.Params {
		n.params = append(n.params, p.ID())
	}
	for _, r := range f.Results {
		n.results = append(n.results, r.ID())
	}

	for i, in := range f.Instrs {
		switch in.Op {
		case ir.OpParam:
		case ir.OpConst:
			n.template[i] = in.Const
		default:
			s, err := compileInstr(i, in)
			if err != nil {
				return nil, fmt.Errorf("compiling %q: %w", f.Name, err)
			}
			n.steps = append(n.steps, s)
		}
	}

	size := len(n.template)
	n.regs.New = func() any {
		r := make([]float32, size)
		return &r
	}
	return n, nil
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func compileInstr(d int, in ir.Instr) (step, error) {
	arg := func(i int) int { return in.Args[i].ID() }

	switch in.Op {
	case ir.OpFAdd:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = r[a] + r[b] }, nil
	case ir.OpFSub:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = r[a] - r[b] }, nil
	case ir.OpFMul:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = r[a] * r[b] }, nil
	case ir.OpFDiv:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = r[a] / r[b] }, nil
	case ir.OpFNeg:
		a := arg(0)
		return func(r []float32) { r[d] = -r[a] }, nil
	case ir.OpFMin:
		a, b := arg(0), arg(1)
		return func(r []float32) {
			if r[a] < r[b] {
				r[d] = r[a]
			} else {
				r[d] = r[b]
			}
		}, nil
	case ir.OpFMax:
		a, b := arg(0), arg(1)
		return func(r []float32) {
			if r[a] < r[b] {
				r[d] = r[b]
			} else {
				r[d] = r[a]
			}
		}, nil
	case ir.OpFCmpEQ:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = b2f(r[a] == r[b]) }, nil
	case ir.OpFCmpLT:
		a, b := arg(0), arg(1)
		return func(r []float32) { r[d] = b2f(r[a] < r[b]) }, nil
	case ir.OpSelect:
		c, x, y := arg(0), arg(1), arg(2)
		return func(r []float32) {
			if r[c] != 0 {
				r[d] = r[x]
			} else {
				r[d] = r[y]
			}
		}, nil
	}
	return nil, diagnostics.New(diagnostics.ErrOutOfRange, "codegen.compile", "unsupported op %s", in.Op)
}

// Name returns the compiled function's name.
func (n *Native) Name() string { return n.name }

// IR returns the function the native was compiled from.
func (n *Native) IR() *ir.Func { return n.ir }

// NumInputs returns the number of float inputs.
func (n *Native) NumInputs() int { return len(n.params) }

// NumOutputs returns the number of float outputs.
func (n *Native) NumOutputs() int { return len(n.results) }

func (n *Native) exec(load func(r []float32), store func(r []float32)) {
	rp := n.regs.Get().(*[]float32)
	defer n.regs.Put(rp)
	r := *rp
	copy(r, n.template)
	load(r)
	for _, s := range n.steps {
		s(r)
	}
	store(r)
}

// Run evaluates the native over raw float arguments.
func (n *Native) Run(in, out []float32) error {
	if len(in) != len(n.params) || len(out) != len(n.results) {
		return diagnostics.New(diagnostics.ErrOutOfRange, "codegen.run",
			"%q takes %d inputs and %d outputs, got %d and %d", n.name, len(n.params), len(n.results), len(in), len(out))
	}
	n.exec(func(r []float32) {
		for i, p := range n.params {
			r[p] = in[i]
		}
	}, func(r []float32) {
		for i, res := range n.results {
			out[i] = r[res]
		}
	})
	return nil
}

// RunTuple evaluates the native reading in and writing out.
// Both tuples must hold float slots only; anything else panics with ErrTypeMismatch.
func (n *Native) RunTuple(in, out *function.Tuple) {
	if in.Len() != len(n.params) || out.Len() != len(n.results) {
		diagnostics.Raise(diagnostics.ErrOutOfRange, "codegen.run",
			"%q takes %d inputs and %d outputs, got %d and %d", n.name, len(n.params), len(n.results), in.Len(), out.Len())
	}
	n.exec(func(r []float32) {
		for i, p := range n.params {
			r[p] = in.GetFloat(i)
		}
	}, func(r []float32) {
		for i, res := range n.results {
			out.SetFloat(i, r[res])
		}
	})
}

// NativeBody adapts a Native to the interpreted call contract.
type NativeBody struct {
	Native *Native
}

func (NativeBody) Strategy() function.Strategy { return function.Interpreted }

func (b NativeBody) Call(in, out *function.Tuple, _ *function.ExecutionContext) {
	b.Native.RunTuple(in, out)
}

// Backfill returns fns with every function that has a codegen body but no
// interpreted body replaced by a clone whose interpreted body runs its
// compiled native. The functions passed in are never modified.
func Backfill(fns ...*function.Function) ([]*function.Function, error) {
	out := make([]*function.Function, len(fns))
	for i, fn := range fns {
		out[i] = fn
		if fn.HasBody(function.Interpreted) || !fn.HasBody(function.Codegen) {
			continue
		}
		n, err := Compile(fn)
		if err != nil {
			return nil, err
		}
		out[i] = fn.Clone().AddBody(NativeBody{Native: n})
	}
	return out, nil
}
