package function

import (
	"fmt"
	"strings"

	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/types"
)

// Parameter is a named, typed input or output of a Function.
type Parameter struct {
	Name string
	Type *types.TypeDescriptor
}

// Input creates an input parameter.
func Input(name string, t *types.TypeDescriptor) Parameter { return Parameter{Name: name, Type: t} }

// Output creates an output parameter.
func Output(name string, t *types.TypeDescriptor) Parameter { return Parameter{Name: name, Type: t} }

func (p Parameter) String() string { return p.Name + ": " + p.Type.Name() }

// Signature is the ordered external contract of a Function.
// It is immutable once constructed.
type Signature struct {
	inputs  []Parameter
	outputs []Parameter
}

// NewSignature validates and builds a signature.
// Parameter names must be unique within each direction.
func NewSignature(inputs, outputs []Parameter) (*Signature, error) {
	if err := checkParams("input", inputs); err != nil {
		return nil, err
	}
	if err := checkParams("output", outputs); err != nil {
		return nil, err
	}
	return &Signature{
		inputs:  append([]Parameter(nil), inputs...),
		outputs: append([]Parameter(nil), outputs...),
	}, nil
}

// MustSignature is like NewSignature but panics on error.
// It is meant for built-in functions whose signatures are fixed at compile time.
func MustSignature(inputs, outputs []Parameter) *Signature {
	sig, err := NewSignature(inputs, outputs)
	if err != nil {
		panic(err)
	}
	return sig
}

func checkParams(direction string, params []Parameter) error {
	seen := make(map[string]int, len(params))
	for i, p := range params {
		if p.Type == nil {
			return diagnostics.New(diagnostics.ErrTypeMismatch, "signature",
				"%s %d (%q) has no type", direction, i, p.Name)
		}
		if j, dup := seen[p.Name]; dup {
			return diagnostics.New(diagnostics.ErrDuplicateParameter, "signature",
				"%s %q at positions %d and %d", direction, p.Name, j, i)
		}
		seen[p.Name] = i
	}
	return nil
}

// Inputs returns a copy of the input parameters.
func (s *Signature) Inputs() []Parameter { return append([]Parameter(nil), s.inputs...) }

// Outputs returns a copy of the output parameters.
func (s *Signature) Outputs() []Parameter { return append([]Parameter(nil), s.outputs...) }

// NumInputs returns the number of input parameters.
func (s *Signature) NumInputs() int { return len(s.inputs) }

// NumOutputs returns the number of output parameters.
func (s *Signature) NumOutputs() int { return len(s.outputs) }

// Input returns input parameter i.
func (s *Signature) Input(i int) Parameter { return s.inputs[i] }

// Output returns output parameter i.
func (s *Signature) Output(i int) Parameter { return s.outputs[i] }

// InputSlots returns the slot width of each input, in order.
func (s *Signature) InputSlots() []int { return slotWidths(s.inputs) }

// OutputSlots returns the slot width of each output, in order.
func (s *Signature) OutputSlots() []int { return slotWidths(s.outputs) }

func slotWidths(params []Parameter) []int {
	out := make([]int, len(params))
	for i, p := range params {
		out[i] = p.Type.Slots()
	}
	return out
}

func (s *Signature) String() string {
	return fmt.Sprintf("(%s) -> (%s)", joinParams(s.inputs), joinParams(s.outputs))
}

func joinParams(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
