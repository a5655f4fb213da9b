// Package globals holds the externally owned objects visible to an evaluation.
//
// Objects are registered during setup and addressed by index from compiled
// bytecode. The runtime never owns or frees them. A Globals value is an
// immutable snapshot: registering more objects produces a new snapshot and
// leaves every earlier one intact, so indices already compiled into a stream
// remain valid for the whole pass that uses them.
package globals

import (
	"src.elv.sh/pkg/persistent/vector"

	"github.com/funvibe/nodevm/internal/diagnostics"
)

// Globals is a read-only, ordered list of object references.
type Globals struct {
	objects vector.Vector
}

var empty = &Globals{objects: vector.Empty}

// Empty returns a snapshot with no objects.
func Empty() *Globals { return empty }

// Len returns the number of registered objects.
func (g *Globals) Len() int {
	if g == nil {
		return 0
	}
	return g.objects.Len()
}

// Object returns the object at index i.
func (g *Globals) Object(i int) (any, error) {
	if g == nil || i < 0 || i >= g.objects.Len() {
		return nil, diagnostics.New(diagnostics.ErrOutOfRange, "globals.object",
			"index %d, %d objects registered", i, g.Len())
	}
	obj, _ := g.objects.Index(i)
	return obj, nil
}

// Each calls fn for every object in registration order until fn returns false.
func (g *Globals) Each(fn func(i int, obj any) bool) {
	if g == nil {
		return
	}
	i := 0
	for it := g.objects.Iterator(); it.HasElem(); it.Next() {
		if !fn(i, it.Elem()) {
			return
		}
		i++
	}
}

// Registry collects object references during setup.
// It is append-only; there is no way to remove an object.
// A Registry is not safe for concurrent use; snapshots are.
type Registry struct {
	objects vector.Vector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: vector.Empty}
}

// Register appends obj and returns its index.
func (r *Registry) Register(obj any) int {
	r.objects = r.objects.Conj(obj)
	return r.objects.Len() - 1
}

// Len returns the number of registered objects.
func (r *Registry) Len() int { return r.objects.Len() }

// Snapshot returns the current object list as an immutable Globals.
func (r *Registry) Snapshot() *Globals {
	return &Globals{objects: r.objects}
}
