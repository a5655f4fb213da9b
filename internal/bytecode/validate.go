package bytecode

import (
	"github.com/hashicorp/go-multierror"

	"github.com/funvibe/nodevm/internal/diagnostics"
)

// Validate walks the stream from entry to its terminating OP_END and reports
// every addressing violation. Decoding stops at the first malformed
// instruction, since later positions cannot be located; bad stack offsets do
// not stop the walk.
func Validate(code Stream, entry int, callees []Callee) error {
	var result *multierror.Error

	pc := entry
	for {
		in, err := Decode(code, pc, callees)
		if err != nil {
			result = multierror.Append(result, err)
			break
		}
		for _, a := range in.Accesses(callees) {
			if !a.InBounds() {
				dir := "reads"
				if a.Write {
					dir = "writes"
				}
				result = multierror.Append(result, diagnostics.New(diagnostics.ErrStackOverflow, "bytecode.validate",
					"%s at %d %s slots [%d, %d)", in.Op, in.PC, dir, a.Offset, a.Offset+a.Slots))
			}
		}
		if in.Op == OP_END {
			break
		}
		pc = in.Next
	}

	return result.ErrorOrNil()
}
