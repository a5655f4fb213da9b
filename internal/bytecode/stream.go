package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Stream is an encoded instruction sequence.
type Stream []uint32

// Len returns the number of words in the stream.
func (s Stream) Len() int { return len(s) }

// Encode serializes the stream as little-endian words.
func (s Stream) Encode() []byte {
	out := make([]byte, 4*len(s))
	for i, w := range s {
		binary.LittleEndian.PutUint32(out[4*i:], w)
	}
	return out
}

// DecodeStream parses bytes produced by Stream.Encode.
func DecodeStream(data []byte) (Stream, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("decoding stream: %d bytes is not a whole number of words", len(data))
	}
	s := make(Stream, len(data)/4)
	for i := range s {
		s[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return s, nil
}

// Assembler builds a Stream one instruction at a time.
type Assembler struct {
	code Stream
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{code: make(Stream, 0, 64)}
}

// Offset returns the position of the next instruction, usable as an entry point.
func (a *Assembler) Offset() int { return len(a.code) }

// Stream returns the assembled stream.
func (a *Assembler) Stream() Stream { return a.code }

func (a *Assembler) emit(op Opcode, operands ...uint32) int {
	at := len(a.code)
	a.code = append(a.code, uint32(op))
	a.code = append(a.code, operands...)
	return at
}

// End emits OP_END.
func (a *Assembler) End() int { return a.emit(OP_END) }

// ValueFloat stores a constant float at dst.
func (a *Assembler) ValueFloat(dst int, v float32) int {
	return a.emit(OP_VALUE_FLOAT, uint32(dst), math.Float32bits(v))
}

// ValueFloat3 stores a constant vector at dst.
func (a *Assembler) ValueFloat3(dst int, x, y, z float32) int {
	return a.emit(OP_VALUE_FLOAT3, uint32(dst), math.Float32bits(x), math.Float32bits(y), math.Float32bits(z))
}

// ValueInt stores a constant int at dst.
func (a *Assembler) ValueInt(dst int, v int32) int {
	return a.emit(OP_VALUE_INT, uint32(dst), uint32(v))
}

// Copy copies n slots from src to dst.
func (a *Assembler) Copy(src, dst, n int) int {
	return a.emit(OP_COPY, uint32(src), uint32(dst), uint32(n))
}

// EffectorPosition stores the site's effector position at dst.
func (a *Assembler) EffectorPosition(dst int) int { return a.emit(OP_EFFECTOR_POSITION, uint32(dst)) }

// EffectorVelocity stores the site's effector velocity at dst.
func (a *Assembler) EffectorVelocity(dst int) int { return a.emit(OP_EFFECTOR_VELOCITY, uint32(dst)) }

// TextureCoord stores the site's texture coordinate at dst.
func (a *Assembler) TextureCoord(dst int) int { return a.emit(OP_TEXTURE_COORD, uint32(dst)) }

// Iteration stores the site's iteration counter at dst.
func (a *Assembler) Iteration(dst int) int { return a.emit(OP_ITERATION, uint32(dst)) }

// Call emits a call of callee fn reading inputs at in and writing outputs at out.
func (a *Assembler) Call(fn int, in, out []int) int {
	operands := make([]uint32, 0, 1+len(in)+len(out))
	operands = append(operands, uint32(fn))
	for _, off := range in {
		operands = append(operands, uint32(off))
	}
	for _, off := range out {
		operands = append(operands, uint32(off))
	}
	return a.emit(OP_CALL, operands...)
}
