package eval

import (
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/funvibe/nodevm/internal/bytecode"
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/globals"
	"github.com/funvibe/nodevm/internal/site"
)

type machine struct {
	code    bytecode.Stream
	callees []*function.Function
	list    []bytecode.Callee
	stack   *Stack
	exec    *function.ExecutionContext
	d       dispatcher
	ctx     *Context
	trace   bool
	logger  hclog.Logger
}

// EvalExpression runs fn's instruction stream from entry until END.
// stack holds the graph's inputs on entry and its outputs on return.
func (c *Context) EvalExpression(g *globals.Globals, data *site.Data, fn *function.Function, entry int, stack *Stack) (err error) {
	defer diagnostics.Recover(&err)

	expr, err := fn.ExpressionBody()
	if err != nil {
		return err
	}

	m := &machine{
		code:    expr.Code,
		callees: expr.Callees,
		list:    expr.CalleeList(),
		stack:   stack,
		exec:    &function.ExecutionContext{Globals: g, Data: data, Logger: c.logger},
		d:       c.dispatcher(),
		ctx:     c,
		trace:   c.logger.IsTrace(),
		logger:  c.logger.With("function", fn.Name()),
	}
	return m.run(entry)
}

func (m *machine) run(pc int) error {
	for {
		in, err := bytecode.Decode(m.code, pc, m.list)
		if err != nil {
			return err
		}
		if m.trace {
			m.logger.Trace("exec", "pc", pc, "op", in.Op, "operands", in.Operands)
		}
		if in.Op == bytecode.OP_END {
			return nil
		}
		if err := m.step(in); err != nil {
			return err
		}
		pc = in.Next
	}
}

// window returns n stack slots starting at off.
func (m *machine) window(op bytecode.Opcode, off, n int) []float32 {
	if checked && (off < 0 || n < 0 || uint64(off)+uint64(n) > config.StackSize) {
		diagnostics.Raise(diagnostics.ErrStackOverflow, "eval."+op.String(),
			"slots [%d,%d) outside stack of %d", off, uint64(off)+uint64(n), config.StackSize)
	}
	return m.stack[off : off+n]
}

func (m *machine) step(in bytecode.Instr) error {
	ops := in.Operands
	switch in.Op {
	case bytecode.OP_VALUE_FLOAT:
		m.window(in.Op, int(ops[0]), 1)[0] = math.Float32frombits(ops[1])

	case bytecode.OP_VALUE_INT:
		// ints are stored bit-exact
		m.window(in.Op, int(ops[0]), 1)[0] = math.Float32frombits(ops[1])

	case bytecode.OP_VALUE_FLOAT3:
		w := m.window(in.Op, int(ops[0]), 3)
		w[0] = math.Float32frombits(ops[1])
		w[1] = math.Float32frombits(ops[2])
		w[2] = math.Float32frombits(ops[3])

	case bytecode.OP_COPY:
		n := int(ops[2])
		src := m.window(in.Op, int(ops[0]), n)
		dst := m.window(in.Op, int(ops[1]), n)
		copy(dst, src)

	case bytecode.OP_EFFECTOR_POSITION:
		p := m.exec.Site().Effector.Position
		writeFloat3(m.window(in.Op, int(ops[0]), 3), p.X, p.Y, p.Z)

	case bytecode.OP_EFFECTOR_VELOCITY:
		v := m.exec.Site().Effector.Velocity
		writeFloat3(m.window(in.Op, int(ops[0]), 3), v.X, v.Y, v.Z)

	case bytecode.OP_TEXTURE_COORD:
		co := m.exec.Site().Texture.Co
		writeFloat3(m.window(in.Op, int(ops[0]), 3), co.X, co.Y, co.Z)

	case bytecode.OP_ITERATION:
		m.window(in.Op, int(ops[0]), 1)[0] = math.Float32frombits(uint32(m.exec.Site().Iteration))

	case bytecode.OP_CALL:
		return m.callFunction(in)

	default:
		return diagnostics.New(diagnostics.ErrOutOfRange, "eval.step", "unhandled opcode %s at %d", in.Op, in.PC)
	}
	return nil
}

func writeFloat3(w []float32, x, y, z float32) {
	w[0], w[1], w[2] = x, y, z
}

func (m *machine) callFunction(in bytecode.Instr) error {
	fn := m.callees[in.Callee]
	sig := fn.Signature()

	// every window is resolved before the body runs, so a bad offset
	// never leaves a partial write behind
	args := make([][]float32, sig.NumInputs())
	for i := range args {
		args[i] = m.window(in.Op, in.In[i], sig.Input(i).Type.Slots())
	}
	results := make([][]float32, sig.NumOutputs())
	for i := range results {
		results[i] = m.window(in.Op, in.Out[i], sig.Output(i).Type.Slots())
	}

	inT, err := function.View(sig.Inputs(), args, true)
	if err != nil {
		return err
	}
	outT, err := function.View(sig.Outputs(), results, false)
	if err != nil {
		return err
	}
	return m.ctx.call(m.d, fn, inT, outT, m.exec)
}
