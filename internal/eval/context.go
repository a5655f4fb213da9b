// Package eval runs Functions against caller-supplied storage.
//
// A Context evaluates either a single Function over argument and result
// buffers, or a compiled node graph (a Function with an expression body) over
// a Stack. The Context holds configuration only; all per-evaluation state
// lives in the caller's Stack and buffers, so one Context may be shared by any
// number of goroutines as long as each uses its own Stack.
package eval

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/funvibe/nodevm/internal/codegen"
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/globals"
	"github.com/funvibe/nodevm/internal/site"
)

// Stack is the value stack of one expression evaluation.
type Stack [config.StackSize]float32

// Context evaluates functions.
type Context struct {
	logger   hclog.Logger
	strategy function.Strategy
	native   *codegen.Module
}

// NewContext returns a Context using interpreted bodies and a null logger.
func NewContext() *Context {
	return &Context{
		logger:   hclog.NewNullLogger(),
		strategy: function.Interpreted,
	}
}

// SetLogger sets the logger. Trace level logs every executed instruction.
func (c *Context) SetLogger(l hclog.Logger) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	c.logger = l
}

// SetStrategy selects which bodies callees run with.
func (c *Context) SetStrategy(s function.Strategy) error {
	switch s {
	case function.Interpreted, function.Codegen:
		c.strategy = s
		return nil
	}
	return fmt.Errorf("strategy %s cannot run callees", s)
}

// Strategy returns the active strategy.
func (c *Context) Strategy() function.Strategy { return c.strategy }

// SetNative sets the module the codegen strategy resolves natives from.
func (c *Context) SetNative(m *codegen.Module) { c.native = m }

func (c *Context) dispatcher() dispatcher {
	if c.strategy == function.Codegen {
		return nativeDispatcher{module: c.native}
	}
	return interpretedDispatcher{}
}

// EvalFunction runs fn once. arguments and results hold one buffer per input
// and output parameter, in signature order, each exactly as wide as the
// parameter's type.
func (c *Context) EvalFunction(g *globals.Globals, data *site.Data, fn *function.Function, arguments, results [][]float32) (err error) {
	defer diagnostics.Recover(&err)

	sig := fn.Signature()
	in, err := function.View(sig.Inputs(), arguments, true)
	if err != nil {
		return fmt.Errorf("arguments of %q: %w", fn.Name(), err)
	}
	out, err := function.View(sig.Outputs(), results, false)
	if err != nil {
		return fmt.Errorf("results of %q: %w", fn.Name(), err)
	}

	exec := &function.ExecutionContext{Globals: g, Data: data, Logger: c.logger}
	return c.call(c.dispatcher(), fn, in, out, exec)
}

func (c *Context) call(d dispatcher, fn *function.Function, in, out *function.Tuple, exec *function.ExecutionContext) error {
	if err := d.call(fn, in, out, exec); err != nil {
		return err
	}
	if checked {
		if unset := out.Unset(); len(unset) > 0 {
			names := make([]string, len(unset))
			for i, u := range unset {
				names[i] = out.Param(u).Name
			}
			return diagnostics.New(diagnostics.ErrUnsetOutput, "eval.call",
				"%q (%s) left outputs %q unwritten", fn.Name(), d.name(), names)
		}
	}
	return nil
}
