package eval

import (
	"github.com/funvibe/nodevm/internal/codegen"
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
)

// dispatcher invokes one callee body over bound tuples.
type dispatcher interface {
	call(fn *function.Function, in, out *function.Tuple, exec *function.ExecutionContext) error
	name() string
}

type interpretedDispatcher struct{}

func (interpretedDispatcher) name() string { return "interpreted" }

func (interpretedDispatcher) call(fn *function.Function, in, out *function.Tuple, exec *function.ExecutionContext) error {
	body, err := fn.TupleCallBody()
	if err != nil {
		return err
	}
	body.Call(in, out, exec)
	return nil
}

// nativeDispatcher runs prepared natives. Functions that have no codegen
// body at all, such as context readers, run their interpreted body.
type nativeDispatcher struct {
	module *codegen.Module
}

func (nativeDispatcher) name() string { return "codegen" }

func (d nativeDispatcher) call(fn *function.Function, in, out *function.Tuple, exec *function.ExecutionContext) error {
	if !fn.HasBody(function.Codegen) {
		return interpretedDispatcher{}.call(fn, in, out, exec)
	}
	if d.module == nil {
		return diagnostics.New(diagnostics.ErrUnresolvedBody, "eval.native", "no native module for %q", fn.Name())
	}
	n, err := d.module.Native(fn)
	if err != nil {
		return err
	}
	n.RunTuple(in, out)
	return nil
}
