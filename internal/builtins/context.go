package builtins

import (
	"sync"

	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/types"
)

func reader(name string, out function.Parameter, call function.CallFunc) *function.Function {
	sig := function.MustSignature(nil, []function.Parameter{out})
	return function.New(name, sig).AddBody(call)
}

// Iteration outputs the evaluation site's iteration index.
var Iteration = sync.OnceValue(func() *function.Function {
	return reader("Iteration", function.Output("Iteration", types.IntType()),
		func(_, out *function.Tuple, ctx *function.ExecutionContext) {
			out.SetInt(0, ctx.Site().Iteration)
		})
})

// EffectorPosition outputs the position of the site's effector.
var EffectorPosition = sync.OnceValue(func() *function.Function {
	return reader("Effector Position", function.Output("Position", types.Float3Type()),
		func(_, out *function.Tuple, ctx *function.ExecutionContext) {
			out.SetFloat3(0, ctx.Site().Effector.Position)
		})
})

// ObjectCount outputs how many objects the globals snapshot references.
var ObjectCount = sync.OnceValue(func() *function.Function {
	return reader("Object Count", function.Output("Count", types.IntType()),
		func(_, out *function.Tuple, ctx *function.ExecutionContext) {
			out.SetInt(0, int32(ctx.Objects().Len()))
		})
})
