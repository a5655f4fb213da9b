// Package site defines the per-site data a caller supplies with each evaluation.
package site

import "github.com/funvibe/nodevm/internal/types"

// Effector is the point being evaluated by a force-field effector.
type Effector struct {
	// Object is the effector's owning object, opaque to the runtime
	Object any

	Position types.Float3
	Velocity types.Float3
}

// Texture holds texture sample coordinates and their screen-space derivatives.
type Texture struct {
	Co  types.Float3
	Dxt types.Float3
	Dyt types.Float3

	// Frame is the current scene frame
	Frame int32

	// OSATex enables filtered sampling using Dxt and Dyt
	OSATex int32
}

// Modifier carries the mesh a modifier graph is applied to.
type Modifier struct {
	BaseMesh any
}

// Data is the context bundle for one evaluation site.
// It is built by the caller and never retained by the evaluator.
type Data struct {
	Effector  Effector
	Texture   Texture
	Modifier  Modifier
	Iteration int32
}
