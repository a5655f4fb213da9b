package builtins

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/nodevm/internal/function"
)

var ErrUnknownFunction = errors.New("unknown function")

// Catalog resolves functions by name.
type Catalog struct {
	byName map[string]*function.Function
	fns    []*function.Function
}

// NewCatalog indexes fns by name. A later function replaces an earlier one
// with the same name.
func NewCatalog(fns ...*function.Function) *Catalog {
	c := &Catalog{byName: make(map[string]*function.Function, len(fns))}
	for _, fn := range fns {
		c.byName[fn.Name()] = fn
	}
	for _, fn := range c.byName {
		c.fns = append(c.fns, fn)
	}
	sort.Slice(c.fns, func(i, j int) bool { return c.fns[i].Name() < c.fns[j].Name() })
	return c
}

// Default is the catalog of every built-in function.
var Default = sync.OnceValue(func() *Catalog {
	return NewCatalog(
		AddFloats(),
		SubtractFloats(),
		MultiplyFloats(),
		DivideFloats(),
		Minimum(),
		Maximum(),
		MapRange(),
		AddVectors(),
		ScaleVector(),
		Iteration(),
		EffectorPosition(),
		ObjectCount(),
	)
})

// Lookup returns the function called name.
func (c *Catalog) Lookup(name string) (*function.Function, error) {
	fn, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFunction, name)
	}
	return fn, nil
}

// Functions returns every function sorted by name.
func (c *Catalog) Functions() []*function.Function {
	return append([]*function.Function(nil), c.fns...)
}

// Lookup resolves name in the default catalog.
func Lookup(name string) (*function.Function, error) { return Default().Lookup(name) }

// Functions lists the default catalog.
func Functions() []*function.Function { return Default().Functions() }
