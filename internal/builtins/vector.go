package builtins

import (
	"sync"

	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/types"
)

func float3(name string) function.Parameter {
	return function.Parameter{Name: name, Type: types.Float3Type()}
}

var AddVectors = sync.OnceValue(func() *function.Function {
	sig := function.MustSignature(
		[]function.Parameter{float3("A"), float3("B")},
		[]function.Parameter{float3("Result")},
	)
	return function.New("Add Vectors", sig).
		AddBody(function.CallFunc(func(in, out *function.Tuple, _ *function.ExecutionContext) {
			out.SetFloat3(0, in.GetFloat3(0).Add(in.GetFloat3(1)))
		}))
})

var ScaleVector = sync.OnceValue(func() *function.Function {
	sig := function.MustSignature(
		[]function.Parameter{float3("Vector"), float("Scale")},
		[]function.Parameter{float3("Result")},
	)
	return function.New("Scale Vector", sig).
		AddBody(function.CallFunc(func(in, out *function.Tuple, _ *function.ExecutionContext) {
			out.SetFloat3(0, in.GetFloat3(0).Scale(in.GetFloat(1)))
		}))
})
