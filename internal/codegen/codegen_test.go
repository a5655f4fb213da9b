package codegen

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/function"
	"github.com/funvibe/nodevm/internal/ir"
	"github.com/funvibe/nodevm/internal/types"
)

func floats(names ...string) []function.Parameter {
	ps := make([]function.Parameter, len(names))
	for i, n := range names {
		ps[i] = function.Parameter{Name: n, Type: types.FloatType()}
	}
	return ps
}

func addFloats() *function.Function {
	sig := function.MustSignature(floats("a", "b"), floats("result"))
	return function.New("Add Floats", sig).AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
		return []ir.Value{b.FAdd(in[0], in[1])}
	}))
}

func clamp() *function.Function {
	sig := function.MustSignature(floats("value", "min", "max"), floats("result", "clamped"))
	return function.New("Clamp", sig).AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
		v := b.FMin(b.FMax(in[0], in[1]), in[2])
		same := b.FCmpEQ(v, in[0])
		return []ir.Value{v, b.Select(same, b.ConstFloat(0), b.ConstFloat(1))}
	}))
}

func TestLower(t *testing.T) {
	f, err := Lower(addFloats())
	if err != nil {
		t.Fatal(err)
	}
	want := "define @\"Add Floats\"(float %0, float %1) {\n  %2 = fadd float %0, %1\n  ret float %2\n}\n"
	if got := f.String(); got != want {
		t.Errorf("IR mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   *function.Function
		want error
	}{
		{
			name: "no codegen body",
			fn:   function.New("Bare", function.MustSignature(floats("a"), floats("r"))),
			want: diagnostics.ErrUnresolvedBody,
		},
		{
			name: "non-float input",
			fn: function.New("Int In", function.MustSignature(
				[]function.Parameter{function.Input("i", types.IntType())}, floats("r"),
			)).AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value { return in })),
			want: diagnostics.ErrTypeMismatch,
		},
		{
			name: "too few results",
			fn: function.New("Short", function.MustSignature(floats("a"), floats("r", "s"))).
				AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value { return in })),
			want: diagnostics.ErrUnsetOutput,
		},
		{
			name: "too many results",
			fn: function.New("Long", function.MustSignature(floats("a"), floats("r"))).
				AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value { return []ir.Value{in[0], in[0]} })),
			want: diagnostics.ErrOutOfRange,
		},
		{
			name: "bool result",
			fn: function.New("Flag", function.MustSignature(floats("a"), floats("r"))).
				AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
					return []ir.Value{b.FCmpLT(in[0], in[0])}
				})),
			want: diagnostics.ErrTypeMismatch,
		},
		{
			name: "builder type error",
			fn: function.New("Bad Add", function.MustSignature(floats("a"), floats("r"))).
				AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value {
					return []ir.Value{b.FAdd(b.FCmpEQ(in[0], in[0]), in[0])}
				})),
			want: diagnostics.ErrTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lower(tt.fn)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNativeRun(t *testing.T) {
	n, err := Compile(clamp())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   []float32
		want []float32
	}{
		{[]float32{0.5, 0, 1}, []float32{0.5, 0}},
		{[]float32{-2, 0, 1}, []float32{0, 1}},
		{[]float32{7, 0, 1}, []float32{1, 1}},
	}
	for _, tt := range tests {
		out := make([]float32, 2)
		if err := n.Run(tt.in, out); err != nil {
			t.Fatal(err)
		}
		if out[0] != tt.want[0] || out[1] != tt.want[1] {
			t.Errorf("Clamp%v = %v, want %v", tt.in, out, tt.want)
		}
	}

	if err := n.Run([]float32{1}, make([]float32, 2)); !errors.Is(err, diagnostics.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for short input, got %v", err)
	}
}

func TestNativeRunTupleMismatchRecovers(t *testing.T) {
	n, err := Compile(addFloats())
	if err != nil {
		t.Fatal(err)
	}
	ints := function.MustSignature(
		[]function.Parameter{function.Input("a", types.IntType()), function.Input("b", types.IntType())},
		floats("result"),
	)

	err = func() (err error) {
		defer diagnostics.Recover(&err)
		n.RunTuple(function.NewInputTuple(ints), function.NewOutputTuple(ints))
		return nil
	}()
	if !errors.Is(err, diagnostics.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}

	out := make([]float32, 1)
	for i := 0; i < 4; i++ {
		if err := n.Run([]float32{1, 2}, out); err != nil {
			t.Fatal(err)
		}
		if out[0] != 3 {
			t.Fatalf("expected 3 after a failed run, got %v", out[0])
		}
	}
}

func TestNativeConcurrent(t *testing.T) {
	n, err := Compile(addFloats())
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			out := make([]float32, 1)
			for i := 0; i < 1000; i++ {
				a, b := float32(g), float32(i)
				_ = n.Run([]float32{a, b}, out)
				if out[0] != a+b {
					errs <- "wrong sum"
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatal(e)
	}
}

func TestNativeBody(t *testing.T) {
	orig := addFloats()
	fns, err := Backfill(orig)
	if err != nil {
		t.Fatal(err)
	}
	if orig.HasBody(function.Interpreted) {
		t.Fatal("Backfill modified its argument")
	}
	fn := fns[0]
	if fn == orig || fn.ID() != orig.ID() {
		t.Fatalf("expected a clone sharing the ID of %s", orig)
	}
	body, err := fn.TupleCallBody()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := body.(NativeBody); !ok {
		t.Fatalf("expected NativeBody, got=%T", body)
	}

	in := function.NewInputTuple(fn.Signature())
	in.SetFloat(0, 1.5)
	in.SetFloat(1, 2)
	out := function.NewOutputTuple(fn.Signature())
	body.Call(in, out, nil)
	if got := out.GetFloat(0); got != 3.5 {
		t.Errorf("expected 3.5, got %v", got)
	}
	if unset := out.Unset(); len(unset) != 0 {
		t.Errorf("outputs left unset: %v", unset)
	}
}

func TestModule(t *testing.T) {
	add := addFloats()
	bare := function.New("Bare", function.MustSignature(floats("a"), floats("r")))
	broken := function.New("Broken", function.MustSignature(floats("a"), floats("r", "s"))).
		AddBody(function.BuildIRFunc(func(b *ir.Builder, in []ir.Value) []ir.Value { return in }))

	m := NewModule()
	err := m.Prepare(add, bare, broken)
	if !errors.Is(err, diagnostics.ErrUnsetOutput) {
		t.Fatalf("expected the broken function to be reported, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 native, got %d", m.Len())
	}
	if _, err := m.Native(add); err != nil {
		t.Errorf("Native(add): %v", err)
	}
	if _, err := m.Native(bare); !errors.Is(err, diagnostics.ErrUnresolvedBody) {
		t.Errorf("expected ErrUnresolvedBody, got %v", err)
	}

	// preparing again is a no-op
	if err := m.Prepare(add); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 native after re-prepare, got %d", m.Len())
	}
}

func TestEmitGo(t *testing.T) {
	add, err := Lower(addFloats())
	if err != nil {
		t.Fatal(err)
	}
	c, err := Lower(clamp())
	if err != nil {
		t.Fatal(err)
	}

	src, err := EmitGo("kernels", add, c)
	if err != nil {
		t.Fatal(err)
	}
	out := string(src)
	for _, want := range []string{
		"// Code generated by nodevm emit. DO NOT EDIT.",
		"package kernels",
		"func AddFloats(v0, v1 float32) float32 {",
		"\tv2 := v0 + v1\n\treturn v2\n",
		"func Clamp(v0, v1, v2 float32) (float32, float32) {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "import") {
		t.Errorf("unexpected import in:\n%s", out)
	}
}

func TestEmitGoSpecialConstant(t *testing.T) {
	b := ir.NewBuilder("Inf")
	f := b.Return(b.ConstFloat(float32(math.Inf(1))))

	src, err := EmitGo("kernels", f)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), `import "math"`) {
		t.Errorf("expected math import to be added:\n%s", src)
	}
}

func TestGoIdent(t *testing.T) {
	tests := map[string]string{
		"Add Floats":        "AddFloats",
		"Map Range":         "MapRange",
		"effector position": "EffectorPosition",
		"3d noise":          "F3dNoise",
		"--":                "F",
	}
	for in, want := range tests {
		if got := GoIdent(in); got != want {
			t.Errorf("GoIdent(%q) = %q, want %q", in, got, want)
		}
	}
}
