package flock

import (
	"math"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"
)

// The five per-agent velocity corrections. All of them read the pre-step
// pos/vel arrays only, so every agent in a step sees the same consistent
// world regardless of iteration order.

// separation pushes the agent away from the centroid of its closest neighbors.
func (s *Sim) separation(i int, neighbors []int) geometry.Vector3D {
	if len(neighbors) == 0 {
		return geometry.Vector3D{}
	}
	return s.pos[i].Sub(s.averagePosition(neighbors)).Mul(s.cfg.SeparationFactor)
}

// alignment steers the agent toward the mean heading of nearby agents.
func (s *Sim) alignment(i int, neighbors []int) geometry.Vector3D {
	if len(neighbors) == 0 {
		return geometry.Vector3D{}
	}
	return s.averageVelocity(neighbors).Mul(s.cfg.AlignmentFactor)
}

// cohesion pulls the agent toward the centroid of every agent it can see.
func (s *Sim) cohesion(i int, neighbors []int) geometry.Vector3D {
	if len(neighbors) == 0 {
		return geometry.Vector3D{}
	}
	return s.averagePosition(neighbors).Sub(s.pos[i]).Mul(s.cfg.CohesionFactor)
}

// bounds nudges the agent back toward the box with a constant-magnitude push
// per axis. The two conditions per axis are mutually exclusive, so each axis
// contributes at most one push. This is a soft force: agents may drift outside
// the box between steps.
func (s *Sim) bounds(i int) geometry.Vector3D {
	var push geometry.Vector3D
	p, limit := s.pos[i], s.cfg.Limit

	if p.X < -limit.X {
		push.X = s.cfg.BoundsPush
	} else if p.X > limit.X {
		push.X = -s.cfg.BoundsPush
	}
	if p.Y < -limit.Y {
		push.Y = s.cfg.BoundsPush
	} else if p.Y > limit.Y {
		push.Y = -s.cfg.BoundsPush
	}
	if p.Z < -limit.Z {
		push.Z = s.cfg.BoundsPush
	} else if p.Z > limit.Z {
		push.Z = -s.cfg.BoundsPush
	}
	return push
}

// noise injects a random kick when the agent's heading disagrees with its
// alignment-radius neighborhood, producing organic flock splits and merges.
// An agent counts as aligned only when neighbors exist, both headings are
// non-degenerate and the angle between them is strictly below NoiseAngle.
func (s *Sim) noise(i int, alignNeighbors []int) geometry.Vector3D {
	if s.isAligned(i, alignNeighbors) {
		return geometry.Vector3D{}
	}
	magnitude := s.rng.Float64() * s.cfg.VelocityLimit
	return s.randomDirection().Mul(magnitude * s.cfg.NoiseFactor)
}

func (s *Sim) isAligned(i int, alignNeighbors []int) bool {
	if len(alignNeighbors) == 0 {
		return false
	}
	vel := s.vel[i]
	avg := s.averageVelocity(alignNeighbors)
	if vel.Len() < geometry.Epsilon || avg.Len() < geometry.Epsilon {
		// No meaningful heading to compare against.
		return false
	}
	return vel.AngleBetween(avg) < s.cfg.NoiseAngle
}

// randomDirection draws a direction uniformly distributed on the unit sphere.
func (s *Sim) randomDirection() geometry.Vector3D {
	theta := 2 * math.Pi * s.rng.Float64()
	// cos(phi) uniform in [-1, 1] gives a uniform polar angle on the sphere.
	phi := math.Acos(2*s.rng.Float64() - 1)
	return geometry.NewVectorSpherical(1, theta, phi)
}

func (s *Sim) averagePosition(neighbors []int) geometry.Vector3D {
	var sum geometry.Vector3D
	for _, j := range neighbors {
		sum = sum.Add(s.pos[j])
	}
	return sum.Mul(1 / float64(len(neighbors)))
}

func (s *Sim) averageVelocity(neighbors []int) geometry.Vector3D {
	var sum geometry.Vector3D
	for _, j := range neighbors {
		sum = sum.Add(s.vel[j])
	}
	return sum.Mul(1 / float64(len(neighbors)))
}
