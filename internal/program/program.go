// Package program loads externally compiled node graphs.
//
// A program file is YAML describing a graph that a front end has already
// compiled: the stack slots that hold its inputs and outputs, and the
// instruction list to run. Callees are referenced by name and resolved
// through a builtins.Catalog.
package program

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/nodevm/internal/builtins"
	"github.com/funvibe/nodevm/internal/bytecode"
	"github.com/funvibe/nodevm/internal/codegen"
	"github.com/funvibe/nodevm/internal/config"
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/eval"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/globals"
	"github.com/funvibe/nodevm/internal/site"
	"github.com/funvibe/nodevm/internal/types"
)

// File is the YAML form of a program.
type File struct {
	Name    string     `yaml:"name"`
	Inputs  []SlotDecl `yaml:"inputs,omitempty"`
	Outputs []SlotDecl `yaml:"outputs,omitempty"`

	// Entry is the index of the first instruction to run.
	Entry int         `yaml:"entry,omitempty"`
	Code  []InstrDecl `yaml:"code"`
}

// SlotDecl places a graph input or output on the stack.
type SlotDecl struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Offset  int       `yaml:"offset"`
	Default []float64 `yaml:"default,omitempty"`
}

// InstrDecl is one instruction. Which fields apply depends on Op.
type InstrDecl struct {
	Op    string    `yaml:"op"`
	Dst   int       `yaml:"dst,omitempty"`
	Src   int       `yaml:"src,omitempty"`
	N     int       `yaml:"n,omitempty"`
	Value []float64 `yaml:"value,omitempty"`
	Fn    string    `yaml:"fn,omitempty"`
	In    []int     `yaml:"in,omitempty"`
	Out   []int     `yaml:"out,omitempty"`
}

// Slot is a resolved graph input or output.
type Slot struct {
	Name    string
	Type    *types.TypeDescriptor
	Offset  int
	Default []float32
}

// Program is a loaded graph ready to evaluate.
type Program struct {
	Function *function.Function
	Inputs   []Slot
	Outputs  []Slot

	// Entry is the word offset evaluation starts at.
	Entry int
}

// Load reads and parses a program file.
func Load(path string, cat *builtins.Catalog) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program %s: %w", path, err)
	}
	return Parse(data, path, cat)
}

// Parse parses program content. path is used for messages and as the
// default program name.
func Parse(data []byte, path string, cat *builtins.Catalog) (*Program, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	p, err := f.Build(cat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Build assembles f and resolves its callees.
func (f *File) Build(cat *builtins.Catalog) (*Program, error) {
	if cat == nil {
		cat = builtins.Default()
	}
	p := &Program{}

	var err error
	if p.Inputs, err = resolveSlots("input", f.Inputs); err != nil {
		return nil, err
	}
	if p.Outputs, err = resolveSlots("output", f.Outputs); err != nil {
		return nil, err
	}

	if len(f.Code) == 0 {
		return nil, fmt.Errorf("program %q has no code", f.Name)
	}
	if f.Entry < 0 || f.Entry >= len(f.Code) {
		return nil, fmt.Errorf("entry %d outside %d instructions", f.Entry, len(f.Code))
	}

	a := bytecode.NewAssembler()
	var callees []*function.Function
	index := make(map[string]int)
	for i, in := range f.Code {
		pos, err := assemble(a, in, func(name string) (int, *function.Function, error) {
			if idx, ok := index[name]; ok {
				return idx, callees[idx], nil
			}
			fn, err := cat.Lookup(name)
			if err != nil {
				return 0, nil, err
			}
			index[name] = len(callees)
			callees = append(callees, fn)
			return index[name], fn, nil
		})
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		if i == f.Entry {
			p.Entry = pos
		}
	}

	sig, err := function.NewSignature(params(p.Inputs), params(p.Outputs))
	if err != nil {
		return nil, err
	}
	// callees with only a codegen body still need to run interpreted
	callees, err = codegen.Backfill(callees...)
	if err != nil {
		return nil, err
	}
	body := &function.ExpressionBody{Code: a.Stream(), Callees: callees}
	if err := bytecode.Validate(body.Code, p.Entry, body.CalleeList()); err != nil {
		return nil, err
	}
	p.Function = function.New(f.Name, sig).AddBody(body)
	return p, nil
}

func resolveSlots(direction string, decls []SlotDecl) ([]Slot, error) {
	out := make([]Slot, len(decls))
	for i, d := range decls {
		t, ok := types.Lookup(d.Type)
		if !ok {
			return nil, fmt.Errorf("%s %q: unknown type %q", direction, d.Name, d.Type)
		}
		if d.Offset < 0 || d.Offset+t.Slots() > config.StackSize {
			return nil, fmt.Errorf("%s %q: offset %d outside stack", direction, d.Name, d.Offset)
		}
		s := Slot{Name: d.Name, Type: t, Offset: d.Offset}
		if d.Default != nil {
			if len(d.Default) != t.Slots() {
				return nil, fmt.Errorf("%s %q: %s default needs %d values, got %d", direction, d.Name, t.Name(), t.Slots(), len(d.Default))
			}
			s.Default = encodeValues(t, d.Default)
		}
		out[i] = s
	}
	return out, nil
}

// encodeValues converts YAML numbers to slot storage. int and object
// values are stored bit-exact.
func encodeValues(t *types.TypeDescriptor, vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		switch t.Kind() {
		case types.KindInt, types.KindObject:
			out[i] = types.IntBits(int32(v))
		default:
			out[i] = float32(v)
		}
	}
	return out
}

func params(slots []Slot) []function.Parameter {
	out := make([]function.Parameter, len(slots))
	for i, s := range slots {
		out[i] = function.Parameter{Name: s.Name, Type: s.Type}
	}
	return out
}

func assemble(a *bytecode.Assembler, in InstrDecl, callee func(string) (int, *function.Function, error)) (int, error) {
	op, ok := bytecode.ParseOpcode(strings.ToUpper(in.Op))
	if !ok {
		return 0, fmt.Errorf("unknown op %q", in.Op)
	}
	value := func(n int) ([]float64, error) {
		if len(in.Value) != n {
			return nil, fmt.Errorf("%s needs %d values, got %d", op, n, len(in.Value))
		}
		return in.Value, nil
	}

	switch op {
	case bytecode.OP_END:
		return a.End(), nil
	case bytecode.OP_VALUE_FLOAT:
		v, err := value(1)
		if err != nil {
			return 0, err
		}
		return a.ValueFloat(in.Dst, float32(v[0])), nil
	case bytecode.OP_VALUE_FLOAT3:
		v, err := value(3)
		if err != nil {
			return 0, err
		}
		return a.ValueFloat3(in.Dst, float32(v[0]), float32(v[1]), float32(v[2])), nil
	case bytecode.OP_VALUE_INT:
		v, err := value(1)
		if err != nil {
			return 0, err
		}
		return a.ValueInt(in.Dst, int32(v[0])), nil
	case bytecode.OP_COPY:
		return a.Copy(in.Src, in.Dst, in.N), nil
	case bytecode.OP_EFFECTOR_POSITION:
		return a.EffectorPosition(in.Dst), nil
	case bytecode.OP_EFFECTOR_VELOCITY:
		return a.EffectorVelocity(in.Dst), nil
	case bytecode.OP_TEXTURE_COORD:
		return a.TextureCoord(in.Dst), nil
	case bytecode.OP_ITERATION:
		return a.Iteration(in.Dst), nil
	case bytecode.OP_CALL:
		idx, fn, err := callee(in.Fn)
		if err != nil {
			return 0, err
		}
		sig := fn.Signature()
		if len(in.In) != sig.NumInputs() || len(in.Out) != sig.NumOutputs() {
			return 0, diagnostics.New(diagnostics.ErrOutOfRange, "program.assemble",
				"call %q takes %d inputs and %d outputs, got %d and %d", fn.Name(), sig.NumInputs(), sig.NumOutputs(), len(in.In), len(in.Out))
		}
		return a.Call(idx, in.In, in.Out), nil
	}
	return 0, fmt.Errorf("op %s cannot be assembled", op)
}

// Seed writes every input default into stack.
func (p *Program) Seed(stack *eval.Stack) {
	for _, s := range p.Inputs {
		if s.Default != nil {
			copy(stack[s.Offset:s.Offset+len(s.Default)], s.Default)
		}
	}
}

// Result is one decoded graph output.
type Result struct {
	Name  string
	Type  *types.TypeDescriptor
	Value any
}

// Read decodes every output from stack.
func (p *Program) Read(stack *eval.Stack) []Result {
	out := make([]Result, len(p.Outputs))
	for i, s := range p.Outputs {
		out[i] = Result{Name: s.Name, Type: s.Type, Value: decode(s.Type, stack[s.Offset:s.Offset+s.Type.Slots()])}
	}
	return out
}

func decode(t *types.TypeDescriptor, w []float32) any {
	switch t.Kind() {
	case types.KindInt:
		return types.Decode[int32](w)
	case types.KindObject:
		return types.Decode[types.ObjectRef](w)
	case types.KindFloat3:
		return types.Decode[types.Float3](w)
	case types.KindFloat4:
		return types.Decode[types.Float4](w)
	case types.KindMatrix44:
		return types.Decode[types.Matrix44](w)
	}
	return types.Decode[float32](w)
}

// Eval seeds stack with the input defaults and runs the program.
func (p *Program) Eval(c *eval.Context, g *globals.Globals, data *site.Data, stack *eval.Stack) error {
	p.Seed(stack)
	return c.EvalExpression(g, data, p.Function, p.Entry, stack)
}

// Callees returns the functions the program calls.
func (p *Program) Callees() []*function.Function {
	body, err := p.Function.ExpressionBody()
	if err != nil {
		return nil
	}
	return append([]*function.Function(nil), body.Callees...)
}
