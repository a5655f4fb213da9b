package types

import "math"

// Float3 is a three-component vector
type Float3 struct{ X, Y, Z float32 }

// Float4 is a four-component vector
type Float4 struct{ X, Y, Z, W float32 }

// Matrix44 is a column-major 4x4 matrix
type Matrix44 [16]float32

// ObjectRef is an index into the EvalGlobals object list
type ObjectRef int32

// NoObject is the reference stored when a slot refers to nothing.
const NoObject ObjectRef = -1

// Value lists the Go types that can live in a typed slot.
type Value interface {
	float32 | int32 | Float3 | Float4 | Matrix44 | ObjectRef
}

// Add returns the componentwise sum.
func (a Float3) Add(b Float3) Float3 { return Float3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Scale multiplies every component by s.
func (a Float3) Scale(s float32) Float3 { return Float3{a.X * s, a.Y * s, a.Z * s} }

// DescriptorOf returns the descriptor for the Go type T.
func DescriptorOf[T Value]() *TypeDescriptor {
	var zero T
	switch any(zero).(type) {
	case float32:
		return FloatType()
	case int32:
		return IntType()
	case Float3:
		return Float3Type()
	case Float4:
		return Float4Type()
	case Matrix44:
		return Matrix44Type()
	case ObjectRef:
		return ObjectType()
	}
	panic("unreachable")
}

// Encode writes v into the slot window dst, which must be exactly as wide as T.
func Encode[T Value](dst []float32, v T) {
	switch x := any(v).(type) {
	case float32:
		dst[0] = x
	case int32:
		dst[0] = math.Float32frombits(uint32(x))
	case ObjectRef:
		dst[0] = math.Float32frombits(uint32(x))
	case Float3:
		dst[0], dst[1], dst[2] = x.X, x.Y, x.Z
	case Float4:
		dst[0], dst[1], dst[2], dst[3] = x.X, x.Y, x.Z, x.W
	case Matrix44:
		copy(dst[:16], x[:])
	}
}

// Decode reads a T from the slot window src.
func Decode[T Value](src []float32) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = src[0]
	case *int32:
		*p = int32(math.Float32bits(src[0]))
	case *ObjectRef:
		*p = ObjectRef(int32(math.Float32bits(src[0])))
	case *Float3:
		*p = Float3{src[0], src[1], src[2]}
	case *Float4:
		*p = Float4{src[0], src[1], src[2], src[3]}
	case *Matrix44:
		copy(p[:], src[:16])
	}
	return out
}

// IntBits returns the slot representation of an int32 value.
func IntBits(v int32) float32 { return math.Float32frombits(uint32(v)) }
