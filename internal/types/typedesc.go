// Package types is the catalog of value shapes known to the runtime.
//
// A TypeDescriptor is immutable and interned: there is exactly one descriptor
// per type name for the life of the process, so descriptors compare by pointer.
package types

import (
	"fmt"
	"sort"
	"sync"
)

// Kind identifies the shape of a value
type Kind uint8

const (
	KindFloat Kind = iota + 1
	KindFloat3
	KindFloat4
	KindInt
	KindMatrix44
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindFloat3:
		return "float3"
	case KindFloat4:
		return "float4"
	case KindInt:
		return "int"
	case KindMatrix44:
		return "matrix44"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// TypeDescriptor describes a value's shape and its storage size in stack slots.
type TypeDescriptor struct {
	name  string
	kind  Kind
	slots int
}

// Name returns the catalog name of the type.
func (t *TypeDescriptor) Name() string { return t.name }

// Kind returns the shape of the type.
func (t *TypeDescriptor) Kind() Kind { return t.kind }

// Slots returns the number of four-byte stack slots a value occupies.
func (t *TypeDescriptor) Slots() int { return t.slots }

func (t *TypeDescriptor) String() string { return t.name }

type catalog struct {
	byKind map[Kind]*TypeDescriptor
	byName map[string]*TypeDescriptor
}

var loadCatalog = sync.OnceValue(func() *catalog {
	c := &catalog{
		byKind: make(map[Kind]*TypeDescriptor),
		byName: make(map[string]*TypeDescriptor),
	}
	for _, td := range []*TypeDescriptor{
		{name: "float", kind: KindFloat, slots: 1},
		{name: "float3", kind: KindFloat3, slots: 3},
		{name: "float4", kind: KindFloat4, slots: 4},
		{name: "int", kind: KindInt, slots: 1},
		{name: "matrix44", kind: KindMatrix44, slots: 16},
		{name: "object", kind: KindObject, slots: 1},
	} {
		c.byKind[td.kind] = td
		c.byName[td.name] = td
	}
	return c
})

// FloatType is the scalar float type.
func FloatType() *TypeDescriptor { return loadCatalog().byKind[KindFloat] }

// Float3Type is the three-component vector type.
func Float3Type() *TypeDescriptor { return loadCatalog().byKind[KindFloat3] }

// Float4Type is the four-component vector type.
func Float4Type() *TypeDescriptor { return loadCatalog().byKind[KindFloat4] }

// IntType is the 32-bit integer type.
func IntType() *TypeDescriptor { return loadCatalog().byKind[KindInt] }

// Matrix44Type is the 4x4 float matrix type.
func Matrix44Type() *TypeDescriptor { return loadCatalog().byKind[KindMatrix44] }

// ObjectType is the type of references into EvalGlobals.
func ObjectType() *TypeDescriptor { return loadCatalog().byKind[KindObject] }

// Lookup finds a descriptor by its catalog name.
func Lookup(name string) (*TypeDescriptor, bool) {
	td, ok := loadCatalog().byName[name]
	return td, ok
}

// All returns every descriptor in the catalog, sorted by name.
func All() []*TypeDescriptor {
	c := loadCatalog()
	out := make([]*TypeDescriptor, 0, len(c.byName))
	for _, td := range c.byName {
		out = append(out, td)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
