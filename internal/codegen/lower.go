// Package codegen compiles the codegen bodies of Functions ahead of evaluation.
//
// Lowering runs a Function's BuildIR body over one IR parameter per input and
// checks the result against the signature. Compiling turns the straight-line
// IR into a Native: a flat register program of closures that evaluates with
// no decoding cost. All compilation happens at graph-build time; evaluation
// only runs already compiled Natives.
package codegen

import (
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/ir"
	"github.com/funvibe/nodevm/internal/types"
)

// Lower builds the IR of fn's codegen body.
func Lower(fn *function.Function) (out *ir.Func, err error) {
	body, err := fn.BuildIRBody()
	if err != nil {
		return nil, err
	}
	sig := fn.Signature()

	for i := 0; i < sig.NumInputs(); i++ {
		if err := checkFloat(fn, "input", sig.Input(i)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < sig.NumOutputs(); i++ {
		if err := checkFloat(fn, "output", sig.Output(i)); err != nil {
			return nil, err
		}
	}

	defer diagnostics.Recover(&err)

	b := ir.NewBuilder(fn.Name())
	inputs := make([]ir.Value, sig.NumInputs())
	for i := range inputs {
		inputs[i] = b.Param(ir.TypeFloat)
	}

	results := body.BuildIR(b, inputs)
	switch {
	case len(results) < sig.NumOutputs():
		return nil, diagnostics.New(diagnostics.ErrUnsetOutput, "codegen.lower",
			"%q produced %d values for %d outputs", fn.Name(), len(results), sig.NumOutputs())
	case len(results) > sig.NumOutputs():
		return nil, diagnostics.New(diagnostics.ErrOutOfRange, "codegen.lower",
			"%q produced %d values for %d outputs", fn.Name(), len(results), sig.NumOutputs())
	}
	for i, r := range results {
		if r.Type() != ir.TypeFloat {
			return nil, diagnostics.New(diagnostics.ErrTypeMismatch, "codegen.lower",
				"%q output %d (%q) is %s, want float", fn.Name(), i, sig.Output(i).Name, r.Type())
		}
	}
	return b.Return(results...), nil
}

func checkFloat(fn *function.Function, direction string, p function.Parameter) error {
	if p.Type != types.FloatType() {
		return diagnostics.New(diagnostics.ErrTypeMismatch, "codegen.lower",
			"%q %s %q is %s; codegen bodies take float parameters only", fn.Name(), direction, p.Name, p.Type.Name())
	}
	return nil
}
