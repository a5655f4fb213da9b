// Package function defines the typed call contract shared by every node:
// signatures, tuples, and the Function that carries one body per strategy.
package function

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/funvibe/nodevm/internal/diagnostics"
)

// Function is a named unit with an immutable Signature and a set of bodies
// keyed by strategy. Functions are shared by reference between graph nodes;
// once published they are only read, and reads are safe for concurrent use.
type Function struct {
	id   uuid.UUID
	name string
	sig  *Signature

	mu     sync.RWMutex
	bodies map[Strategy]Body
}

// New creates a Function with no bodies.
func New(name string, sig *Signature) *Function {
	return &Function{
		id:     uuid.New(),
		name:   name,
		sig:    sig,
		bodies: make(map[Strategy]Body),
	}
}

// ID returns the identity of the function.
func (f *Function) ID() uuid.UUID { return f.id }

// Name returns the display name of the function.
func (f *Function) Name() string { return f.name }

// Signature returns the function's signature.
func (f *Function) Signature() *Signature { return f.sig }

// InputSlots returns the slot width of each input.
func (f *Function) InputSlots() []int { return f.sig.InputSlots() }

// OutputSlots returns the slot width of each output.
func (f *Function) OutputSlots() []int { return f.sig.OutputSlots() }

func (f *Function) String() string { return f.name + f.sig.String() }

// AddBody attaches body under its strategy. Registering a second body for
// the same strategy replaces the first: the last registration wins.
// A nil body panics with ErrUnresolvedBody.
func (f *Function) AddBody(body Body) *Function {
	if body == nil {
		diagnostics.Raise(diagnostics.ErrUnresolvedBody, "function.body", "nil body for %q", f.name)
	}
	s := body.Strategy()
	f.mu.Lock()
	_, replaced := f.bodies[s]
	f.bodies[s] = body
	f.mu.Unlock()

	if replaced {
		hclog.L().Named("function").Debug("replaced body", "function", f.name, "strategy", s)
	}
	return f
}

// Clone returns a Function with the same identity, name and signature and
// its own copy of the body set. Bodies added to the clone leave f untouched.
func (f *Function) Clone() *Function {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c := &Function{id: f.id, name: f.name, sig: f.sig, bodies: make(map[Strategy]Body, len(f.bodies)+1)}
	for s, b := range f.bodies {
		c.bodies[s] = b
	}
	return c
}

// Body returns the body registered for s, or nil.
func (f *Function) Body(s Strategy) Body {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bodies[s]
}

// HasBody reports whether a body is registered for s.
func (f *Function) HasBody(s Strategy) bool { return f.Body(s) != nil }

// Strategies returns the strategies with a registered body, in order.
func (f *Function) Strategies() []Strategy {
	f.mu.RLock()
	out := make([]Strategy, 0, len(f.bodies))
	for s := range f.bodies {
		out = append(out, s)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TupleCallBody resolves the interpreted body.
func (f *Function) TupleCallBody() (TupleCallBody, error) {
	b, ok := f.Body(Interpreted).(TupleCallBody)
	if !ok {
		return nil, f.unresolved(Interpreted)
	}
	return b, nil
}

// BuildIRBody resolves the codegen body.
func (f *Function) BuildIRBody() (BuildIRBody, error) {
	b, ok := f.Body(Codegen).(BuildIRBody)
	if !ok {
		return nil, f.unresolved(Codegen)
	}
	return b, nil
}

// ExpressionBody resolves the compiled graph body.
func (f *Function) ExpressionBody() (*ExpressionBody, error) {
	b, ok := f.Body(Bytecode).(*ExpressionBody)
	if !ok || b == nil {
		return nil, f.unresolved(Bytecode)
	}
	return b, nil
}

func (f *Function) unresolved(s Strategy) error {
	return diagnostics.New(diagnostics.ErrUnresolvedBody, "function.body",
		"%q has no %s body", f.name, s)
}
