package flock

import "github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"

// AgentState is the read-only per-agent view handed to consumers after a step.
// The ID is the agent's dense array index; it is stable for the whole run and
// is what a renderer should key its drawable entities on.
type AgentState struct {
	ID          int               `json:"id"`
	Position    geometry.Vector3D `json:"position"`
	Orientation geometry.Vector3D `json:"orientation"` // unit forward vector, rendering hint only
}

// Snapshot is the committed state of the whole flock after a step.
type Snapshot []AgentState

// Centroid returns the mean position of the flock, or the zero vector for an
// empty snapshot.
func (s Snapshot) Centroid() geometry.Vector3D {
	if len(s) == 0 {
		return geometry.Vector3D{}
	}
	var sum geometry.Vector3D
	for _, a := range s {
		sum = sum.Add(a.Position)
	}
	return sum.Mul(1 / float64(len(s)))
}
