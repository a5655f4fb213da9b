package bytecode

import (
	"testing"
)

// FuzzValidate checks that arbitrary words never make the validator or
// disassembler panic.
func FuzzValidate(f *testing.F) {
	a := NewAssembler()
	a.ValueFloat(0, 1)
	a.Call(0, []int{0, 0}, []int{1})
	a.End()
	f.Add(a.Stream().Encode(), 0)
	f.Add([]byte{}, 0)

	f.Fuzz(func(t *testing.T, data []byte, entry int) {
		data = data[:len(data)/4*4]
		code, err := DecodeStream(data)
		if err != nil {
			t.Fatal(err)
		}
		_ = Validate(code, entry, []Callee{add})
		_ = Disassemble(code, entry, []Callee{add}, "fuzz")
	})
}
