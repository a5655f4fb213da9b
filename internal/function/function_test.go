package function

import (
	"errors"
	"testing"

	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/ir"
	"github.com/funvibe/nodevm/internal/types"
)

func TestNewSignature(t *testing.T) {
	f := types.FloatType()
	tests := []struct {
		name    string
		inputs  []Parameter
		outputs []Parameter
		want    error
	}{
		{"valid", []Parameter{Input("A", f), Input("B", f)}, []Parameter{Output("Result", f)}, nil},
		{"same name across directions", []Parameter{Input("Value", f)}, []Parameter{Output("Value", f)}, nil},
		{"duplicate input", []Parameter{Input("A", f), Input("A", f)}, nil, diagnostics.ErrDuplicateParameter},
		{"duplicate output", nil, []Parameter{Output("R", f), Output("R", types.IntType())}, diagnostics.ErrDuplicateParameter},
		{"missing type", []Parameter{{Name: "A"}}, nil, diagnostics.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSignature(tt.inputs, tt.outputs)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSignatureString(t *testing.T) {
	sig := MustSignature(
		[]Parameter{Input("Vector", types.Float3Type()), Input("Scale", types.FloatType())},
		[]Parameter{Output("Result", types.Float3Type())},
	)
	want := "(Vector: float3, Scale: float) -> (Result: float3)"
	if got := sig.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := sig.InputSlots(); len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Errorf("input slots = %v", got)
	}
}

func TestBind(t *testing.T) {
	sig := MustSignature(
		[]Parameter{Input("A", types.FloatType()), Input("Where", types.Float3Type())},
		[]Parameter{Output("Count", types.IntType())},
	)
	tup := Bind(sig)

	if tup.Len() != 3 {
		t.Fatalf("expected 3 slots, got %d", tup.Len())
	}
	wantTypes := []*types.TypeDescriptor{types.FloatType(), types.Float3Type(), types.IntType()}
	for i, want := range wantTypes {
		if got := tup.Type(i); got != want {
			t.Errorf("slot %d: expected %s, got %s", i, want, got)
		}
		if got := len(tup.Window(i)); got != want.Slots() {
			t.Errorf("slot %d: expected %d floats, got %d", i, want.Slots(), got)
		}
	}

	if in := tup.Inputs(); in.Len() != 2 {
		t.Errorf("expected 2 inputs, got %d", in.Len())
	}
	out := tup.Outputs()
	if out.Len() != 1 || out.Type(0) != types.IntType() {
		t.Fatalf("unexpected outputs view of %d slots", out.Len())
	}
	out.SetInt(0, -7)
	if got := tup.GetInt(2); got != -7 {
		t.Errorf("outputs view does not share storage: got %d", got)
	}
}

func TestTupleAccess(t *testing.T) {
	sig := MustSignature(
		[]Parameter{Input("A", types.FloatType())},
		[]Parameter{Output("P", types.Float3Type()), Output("O", types.ObjectType())},
	)
	out := NewOutputTuple(sig)

	if got := out.Unset(); len(got) != 2 {
		t.Fatalf("expected both outputs unset, got %v", got)
	}
	out.SetFloat3(0, types.Float3{X: 1, Y: 2, Z: 3})
	if got := out.Unset(); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected only slot 1 unset, got %v", got)
	}
	out.SetObject(1, 4)
	if got := out.GetObject(1); got != 4 {
		t.Errorf("expected object 4, got %d", got)
	}

	if _, err := Lookup[float32](out, 0); !errors.Is(err, diagnostics.ErrTypeMismatch) {
		t.Errorf("float read of float3 slot: expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Lookup[float32](out, 5); !errors.Is(err, diagnostics.ErrOutOfRange) {
		t.Errorf("slot 5: expected ErrOutOfRange, got %v", err)
	}
	if v, err := Lookup[types.Float3](out, 0); err != nil || v.Y != 2 {
		t.Errorf("Lookup float3 = %v, %v", v, err)
	}

	func() {
		defer func() {
			e, ok := recover().(*diagnostics.Error)
			if !ok || !errors.Is(e, diagnostics.ErrTypeMismatch) {
				t.Errorf("expected *diagnostics.Error with ErrTypeMismatch, got=%T", e)
			}
		}()
		out.SetInt(0, 1)
	}()
}

func TestView(t *testing.T) {
	params := []Parameter{Input("A", types.FloatType()), Input("P", types.Float3Type())}
	buf := make([]float32, 4)

	v, err := View(params, [][]float32{buf[0:1], buf[1:4]}, false)
	if err != nil {
		t.Fatal(err)
	}
	v.SetFloat3(1, types.Float3{X: 7, Y: 8, Z: 9})
	if buf[1] != 7 || buf[3] != 9 {
		t.Errorf("view did not write through: %v", buf)
	}

	if _, err := View(params, [][]float32{buf[0:1]}, true); !errors.Is(err, diagnostics.ErrOutOfRange) {
		t.Errorf("short window list: expected ErrOutOfRange, got %v", err)
	}
	if _, err := View(params, [][]float32{buf[0:1], buf[1:3]}, true); !errors.Is(err, diagnostics.ErrOutOfRange) {
		t.Errorf("narrow window: expected ErrOutOfRange, got %v", err)
	}

	in, err := View(params, [][]float32{buf[0:1], buf[1:4]}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(in.Unset()) != 0 {
		t.Errorf("input view should start fully set")
	}
}

func TestBodies(t *testing.T) {
	sig := MustSignature([]Parameter{Input("A", types.FloatType())}, []Parameter{Output("R", types.FloatType())})
	fn := New("Twice", sig)

	if _, err := fn.TupleCallBody(); !errors.Is(err, diagnostics.ErrUnresolvedBody) {
		t.Fatalf("expected ErrUnresolvedBody, got %v", err)
	}
	if _, err := fn.BuildIRBody(); !errors.Is(err, diagnostics.ErrUnresolvedBody) {
		t.Fatalf("expected ErrUnresolvedBody, got %v", err)
	}
	if _, err := fn.ExpressionBody(); !errors.Is(err, diagnostics.ErrUnresolvedBody) {
		t.Fatalf("expected ErrUnresolvedBody, got %v", err)
	}

	first := CallFunc(func(in, out *Tuple, _ *ExecutionContext) { out.SetFloat(0, in.GetFloat(0)) })
	second := CallFunc(func(in, out *Tuple, _ *ExecutionContext) { out.SetFloat(0, 2*in.GetFloat(0)) })
	fn.AddBody(first).AddBody(second).AddBody(BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
		return []ir.Value{b.FAdd(in[0], in[0])}
	}))

	strategies := fn.Strategies()
	if len(strategies) != 2 || strategies[0] != Interpreted || strategies[1] != Codegen {
		t.Errorf("unexpected strategies %v", strategies)
	}

	body, err := fn.TupleCallBody()
	if err != nil {
		t.Fatal(err)
	}
	in := NewInputTuple(sig)
	in.SetFloat(0, 3)
	out := NewOutputTuple(sig)
	body.Call(in, out, nil)
	if got := out.GetFloat(0); got != 6 {
		t.Errorf("expected the last registered body to win (6), got %v", got)
	}
}

func TestAddNilBody(t *testing.T) {
	fn := New("Empty", MustSignature(nil, nil))
	err := func() (err error) {
		defer diagnostics.Recover(&err)
		fn.AddBody(nil)
		return nil
	}()
	if !errors.Is(err, diagnostics.ErrUnresolvedBody) {
		t.Fatalf("expected ErrUnresolvedBody, got %v", err)
	}
	if len(fn.Strategies()) != 0 {
		t.Errorf("nil body was registered: %v", fn.Strategies())
	}
}

func TestClone(t *testing.T) {
	sig := MustSignature([]Parameter{Input("A", types.FloatType())}, []Parameter{Output("R", types.FloatType())})
	fn := New("Double", sig).AddBody(BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
		return []ir.Value{b.FAdd(in[0], in[0])}
	}))

	c := fn.Clone().AddBody(CallFunc(func(in, out *Tuple, _ *ExecutionContext) { out.SetFloat(0, 2*in.GetFloat(0)) }))
	if c.ID() != fn.ID() || c.Name() != fn.Name() || c.Signature() != fn.Signature() {
		t.Errorf("clone lost identity: %s %s", c.ID(), c)
	}
	if fn.HasBody(Interpreted) {
		t.Error("body added to the clone reached the original")
	}
	if !c.HasBody(Codegen) || !c.HasBody(Interpreted) {
		t.Errorf("unexpected clone strategies %v", c.Strategies())
	}
}

func TestParseStrategy(t *testing.T) {
	for _, s := range []Strategy{Interpreted, Codegen, Bytecode} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStrategy("jit"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestFunctionIdentity(t *testing.T) {
	sig := MustSignature(nil, nil)
	a, b := New("Same", sig), New("Same", sig)
	if a.ID() == b.ID() {
		t.Error("functions with the same name share an ID")
	}
	if a.String() != "Same() -> ()" {
		t.Errorf("unexpected String %q", a.String())
	}
}
