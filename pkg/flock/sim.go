// Package flock implements the headless motion core of the insect swarm:
// boids-style neighbor rules, soft containment, noise injection and a
// snapshot-based discrete stepper. It is deterministic for a given config
// and seed, performs no I/O and knows nothing about rendering.
package flock

import (
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"
)

// Sim owns the agent arrays and advances them one discrete tick at a time.
// Agents live in dense parallel pos/vel arrays indexed by their stable ID,
// so the identity lookup the neighbor rules need is a plain array access.
//
// A Sim is not safe for concurrent use; the caller drives Step from a single
// goroutine and may read Snapshot only between calls.
type Sim struct {
	cfg   Config
	rng   *rand.Rand
	index NeighborIndex

	pos    []geometry.Vector3D
	vel    []geometry.Vector3D
	orient []geometry.Vector3D

	// Back buffers: a step is computed entirely against pos/vel and
	// committed by swapping, never by mutating in place. Later agents in
	// the pass must not observe earlier agents' updated state.
	nextPos    []geometry.Vector3D
	nextVel    []geometry.Vector3D
	nextOrient []geometry.Vector3D

	stepCount int
	stepsLeft int
	halted    bool

	scratch []int
}

// New validates cfg, seeds the injected random source and places the flock:
// uniform random positions inside the bounding box, uniform random velocity
// components in [-VelocityLimit, VelocityLimit]. The returned Sim is Running,
// or already Halted when the step budget is zero.
func New(cfg *Config) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sim{
		cfg:        *cfg,
		rng:        rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))),
		pos:        make([]geometry.Vector3D, cfg.NumAgents),
		vel:        make([]geometry.Vector3D, cfg.NumAgents),
		orient:     make([]geometry.Vector3D, cfg.NumAgents),
		nextPos:    make([]geometry.Vector3D, cfg.NumAgents),
		nextVel:    make([]geometry.Vector3D, cfg.NumAgents),
		nextOrient: make([]geometry.Vector3D, cfg.NumAgents),
		stepsLeft:  cfg.StepBudget,
		halted:     cfg.StepBudget == 0,
	}

	if cfg.SpatialGrid {
		s.index = NewGridIndex(maxRadius(cfg))
	} else {
		s.index = NewBruteForceIndex()
	}

	for i := range s.pos {
		s.pos[i] = geometry.Vector3D{
			X: s.uniform(-cfg.Limit.X, cfg.Limit.X),
			Y: s.uniform(-cfg.Limit.Y, cfg.Limit.Y),
			Z: s.uniform(-cfg.Limit.Z, cfg.Limit.Z),
		}
		s.vel[i] = geometry.Vector3D{
			X: s.uniform(-cfg.VelocityLimit, cfg.VelocityLimit),
			Y: s.uniform(-cfg.VelocityLimit, cfg.VelocityLimit),
			Z: s.uniform(-cfg.VelocityLimit, cfg.VelocityLimit),
		}
		s.orient[i] = facing(s.vel[i], geometry.Vector3D{X: 1})
	}

	return s, nil
}

// Step advances the simulation one tick. In Halted state it is a no-op and
// returns the last committed snapshot. Every agent's corrections are computed
// against the pre-step state; results are committed together afterwards, so a
// failed step leaves the prior snapshot intact and halts the run.
func (s *Sim) Step() (Snapshot, error) {
	if s.halted {
		return s.Snapshot(), nil
	}

	s.index.Rebuild(s.pos)

	for i := range s.pos {
		s.scratch = s.index.Within(i, s.cfg.SeparationRadius, s.scratch[:0])
		sep := s.separation(i, s.scratch)

		s.scratch = s.index.Within(i, s.cfg.AlignmentRadius, s.scratch[:0])
		align := s.alignment(i, s.scratch)
		noise := s.noise(i, s.scratch)

		s.scratch = s.index.Within(i, s.cfg.CohesionRadius, s.scratch[:0])
		coh := s.cohesion(i, s.scratch)

		newVel := s.vel[i].
			Add(sep).
			Add(align).
			Add(coh).
			Add(s.bounds(i)).
			Add(noise).
			ClampLen(s.cfg.VelocityLimit)
		newPos := s.pos[i].Add(newVel)

		if !newVel.IsFinite() || !newPos.IsFinite() {
			s.halted = true
			return s.Snapshot(), &NumericError{Step: s.stepCount, Agent: i}
		}

		s.nextVel[i] = newVel
		s.nextPos[i] = newPos
		s.nextOrient[i] = facing(newVel, s.orient[i])
	}

	// Commit the whole pass at once.
	s.pos, s.nextPos = s.nextPos, s.pos
	s.vel, s.nextVel = s.nextVel, s.vel
	s.orient, s.nextOrient = s.nextOrient, s.orient

	s.stepCount++
	s.stepsLeft--
	if s.stepsLeft <= 0 {
		s.halted = true
	}

	return s.Snapshot(), nil
}

// Snapshot returns the committed state without advancing the simulation.
func (s *Sim) Snapshot() Snapshot {
	snap := make(Snapshot, len(s.pos))
	for i := range s.pos {
		snap[i] = AgentState{
			ID:          i,
			Position:    s.pos[i],
			Orientation: s.orient[i],
		}
	}
	return snap
}

// Halted reports whether the step budget is exhausted, the run was stopped,
// or a numeric anomaly aborted it.
func (s *Sim) Halted() bool {
	return s.halted
}

// Stop transitions the simulation to Halted. Subsequent Step calls are no-ops.
func (s *Sim) Stop() {
	s.halted = true
}

// StepCount returns the number of committed steps so far.
func (s *Sim) StepCount() int {
	return s.stepCount
}

func (s *Sim) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// facing derives the look-at orientation from a displacement, keeping the
// previous facing when the displacement is degenerate.
func facing(dir, prev geometry.Vector3D) geometry.Vector3D {
	if dir.Len() < geometry.Epsilon {
		return prev
	}
	return dir.Normalize()
}

func maxRadius(cfg *Config) float64 {
	r := cfg.SeparationRadius
	if cfg.AlignmentRadius > r {
		r = cfg.AlignmentRadius
	}
	if cfg.CohesionRadius > r {
		r = cfg.CohesionRadius
	}
	return r
}
