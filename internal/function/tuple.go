package function

import (
	"github.com/funvibe/nodevm/internal/diagnostics"
	"github.com/funvibe/nodevm/internal/types"
)

// Tuple is a typed value container laid out by a parameter list.
//
// Each slot is a window of stack-slot-sized float32 cells, exactly as wide as
// its declared type. The windows may be carved from a private buffer (Bind),
// or wrap caller-owned memory such as regions of an evaluation stack (View).
// Accessing a slot with the wrong Go type panics with ErrTypeMismatch.
type Tuple struct {
	params  []Parameter
	windows [][]float32
	set     []bool

	// split is the index of the first output slot
	split int
}

// Bind allocates a tuple over all of sig's inputs followed by its outputs.
func Bind(sig *Signature) *Tuple {
	params := make([]Parameter, 0, len(sig.inputs)+len(sig.outputs))
	params = append(params, sig.inputs...)
	params = append(params, sig.outputs...)
	t := alloc(params)
	t.split = len(sig.inputs)
	return t
}

// NewInputTuple allocates a tuple over sig's inputs.
func NewInputTuple(sig *Signature) *Tuple {
	t := alloc(sig.inputs)
	t.split = t.Len()
	return t
}

// NewOutputTuple allocates a tuple over sig's outputs.
func NewOutputTuple(sig *Signature) *Tuple { return alloc(sig.outputs) }

func alloc(params []Parameter) *Tuple {
	total := 0
	for _, p := range params {
		total += p.Type.Slots()
	}
	buf := make([]float32, total)
	windows := make([][]float32, len(params))
	off := 0
	for i, p := range params {
		n := p.Type.Slots()
		windows[i] = buf[off : off+n : off+n]
		off += n
	}
	return &Tuple{params: params, windows: windows, set: make([]bool, len(params))}
}

// View wraps caller-owned windows, one per parameter. Each window must be
// exactly as wide as its parameter's type. Input views start fully set;
// pass markSet=false for output views so unwritten slots can be detected.
func View(params []Parameter, windows [][]float32, markSet bool) (*Tuple, error) {
	if len(windows) != len(params) {
		return nil, diagnostics.New(diagnostics.ErrOutOfRange, "tuple.view",
			"%d buffers for %d parameters", len(windows), len(params))
	}
	t := &Tuple{params: params, windows: make([][]float32, len(params)), set: make([]bool, len(params))}
	if markSet {
		t.split = len(params)
	}
	for i, p := range params {
		w := windows[i]
		if len(w) != p.Type.Slots() {
			return nil, diagnostics.New(diagnostics.ErrOutOfRange, "tuple.view",
				"buffer %d (%q) has %d slots, %s needs %d", i, p.Name, len(w), p.Type.Name(), p.Type.Slots())
		}
		t.windows[i] = w[:len(w):len(w)]
		t.set[i] = markSet
	}
	return t, nil
}

// Len returns the number of slots.
func (t *Tuple) Len() int { return len(t.params) }

// Type returns the declared type of slot i.
func (t *Tuple) Type(i int) *types.TypeDescriptor { return t.params[i].Type }

// Param returns the parameter that declares slot i.
func (t *Tuple) Param(i int) Parameter { return t.params[i] }

// Window returns the raw storage of slot i.
func (t *Tuple) Window(i int) []float32 { return t.windows[i] }

// IsSet reports whether slot i has been written (or was supplied as input).
func (t *Tuple) IsSet(i int) bool { return t.set[i] }

// Unset returns the indices of slots that were never written.
func (t *Tuple) Unset() []int {
	var out []int
	for i, s := range t.set {
		if !s {
			out = append(out, i)
		}
	}
	return out
}

// Inputs returns a view of the input slots, sharing storage.
func (t *Tuple) Inputs() *Tuple {
	v := t.slice(0, t.split)
	v.split = v.Len()
	return v
}

// Outputs returns a view of the output slots, sharing storage.
func (t *Tuple) Outputs() *Tuple {
	return t.slice(t.split, t.Len())
}

func (t *Tuple) slice(from, to int) *Tuple {
	return &Tuple{params: t.params[from:to], windows: t.windows[from:to], set: t.set[from:to]}
}

func (t *Tuple) slot(op string, i int, want *types.TypeDescriptor) []float32 {
	if i < 0 || i >= len(t.params) {
		diagnostics.Raise(diagnostics.ErrOutOfRange, op, "slot %d of %d", i, len(t.params))
	}
	if got := t.params[i].Type; got != want {
		diagnostics.Raise(diagnostics.ErrTypeMismatch, op, "slot %d (%q) is %s, accessed as %s",
			i, t.params[i].Name, got.Name(), want.Name())
	}
	return t.windows[i]
}

// Get reads slot i as a T. It panics with ErrTypeMismatch when T is not the
// slot's declared type, and with ErrOutOfRange when i is not a slot.
func Get[T types.Value](t *Tuple, i int) T {
	return types.Decode[T](t.slot("tuple.get", i, types.DescriptorOf[T]()))
}

// Set writes v into slot i. It fails like Get.
func Set[T types.Value](t *Tuple, i int, v T) {
	types.Encode(t.slot("tuple.set", i, types.DescriptorOf[T]()), v)
	t.set[i] = true
}

// Lookup is the non-panicking form of Get.
func Lookup[T types.Value](t *Tuple, i int) (v T, err error) {
	defer diagnostics.Recover(&err)
	return Get[T](t, i), nil
}

// GetFloat reads a float slot.
func (t *Tuple) GetFloat(i int) float32 { return Get[float32](t, i) }

// SetFloat writes a float slot.
func (t *Tuple) SetFloat(i int, v float32) { Set(t, i, v) }

// GetInt reads an int slot.
func (t *Tuple) GetInt(i int) int32 { return Get[int32](t, i) }

// SetInt writes an int slot.
func (t *Tuple) SetInt(i int, v int32) { Set(t, i, v) }

// GetFloat3 reads a float3 slot.
func (t *Tuple) GetFloat3(i int) types.Float3 { return Get[types.Float3](t, i) }

// SetFloat3 writes a float3 slot.
func (t *Tuple) SetFloat3(i int, v types.Float3) { Set(t, i, v) }

// GetObject reads an object reference slot.
func (t *Tuple) GetObject(i int) types.ObjectRef { return Get[types.ObjectRef](t, i) }

// SetObject writes an object reference slot.
func (t *Tuple) SetObject(i int, v types.ObjectRef) { Set(t, i, v) }
