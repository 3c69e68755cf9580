package flock

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"
)

// newTestSim builds a Sim from cfg and fails the test on config errors.
// Tests overwrite pos/vel directly afterwards for precise control.
func newTestSim(t *testing.T, cfg *Config) *Sim {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestSeparation_PushesAwayFromNeighborCentroid(t *testing.T) {
	// Setup: Me at origin, one neighbor at (10, 0, 0).
	// Separation must point away from the neighbor (negative X).
	cfg := DefaultConfig()
	cfg.NumAgents = 2
	cfg.SeparationFactor = 0.5
	s := newTestSim(t, cfg)
	s.pos[0] = geometry.Vector3D{}
	s.pos[1] = geometry.Vector3D{X: 10}

	got := s.separation(0, []int{1})

	want := geometry.Vector3D{X: -5} // 0.5 * (0 - 10)
	if !got.Eq(want) {
		t.Errorf("separation = %v; want %v", got, want)
	}
}

func TestCohesion_PullsTowardNeighborCentroid(t *testing.T) {
	// Two neighbors at (10,0,0) and (30,0,0): centroid (20,0,0).
	cfg := DefaultConfig()
	cfg.NumAgents = 3
	cfg.CohesionFactor = 0.1
	s := newTestSim(t, cfg)
	s.pos[0] = geometry.Vector3D{}
	s.pos[1] = geometry.Vector3D{X: 10}
	s.pos[2] = geometry.Vector3D{X: 30}

	got := s.cohesion(0, []int{1, 2})

	want := geometry.Vector3D{X: 2} // 0.1 * (20 - 0)
	if !got.Eq(want) {
		t.Errorf("cohesion = %v; want %v", got, want)
	}
}

func TestAlignment_MatchesAverageHeading(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 3
	cfg.AlignmentFactor = 0.5
	s := newTestSim(t, cfg)
	s.vel[1] = geometry.Vector3D{X: 2, Y: 4}
	s.vel[2] = geometry.Vector3D{X: 4, Y: -4}

	got := s.alignment(0, []int{1, 2})

	want := geometry.Vector3D{X: 1.5} // 0.5 * avg((2,4,0),(4,-4,0))
	if !got.Eq(want) {
		t.Errorf("alignment = %v; want %v", got, want)
	}
}

func TestZeroNeighbors_CorrectionsAreZero(t *testing.T) {
	// An isolated agent receives zero separation/alignment/cohesion.
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	s := newTestSim(t, cfg)

	if got := s.separation(0, nil); !got.Eq(geometry.Vector3D{}) {
		t.Errorf("separation with no neighbors = %v; want zero", got)
	}
	if got := s.alignment(0, nil); !got.Eq(geometry.Vector3D{}) {
		t.Errorf("alignment with no neighbors = %v; want zero", got)
	}
	if got := s.cohesion(0, nil); !got.Eq(geometry.Vector3D{}) {
		t.Errorf("cohesion with no neighbors = %v; want zero", got)
	}
}

func TestBounds_SignPerAxis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	cfg.Limit = geometry.Vector3D{X: 100, Y: 100, Z: 100}
	cfg.BoundsPush = 0.25

	tests := []struct {
		name string
		pos  geometry.Vector3D
		want geometry.Vector3D
	}{
		{"Inside box", geometry.Vector3D{X: 50, Y: -50, Z: 0}, geometry.Vector3D{}},
		{"Past +X", geometry.Vector3D{X: 101}, geometry.Vector3D{X: -0.25}},
		{"Past -X", geometry.Vector3D{X: -101}, geometry.Vector3D{X: 0.25}},
		{"Past +Y", geometry.Vector3D{Y: 101}, geometry.Vector3D{Y: -0.25}},
		{"Past -Z", geometry.Vector3D{Z: -101}, geometry.Vector3D{Z: 0.25}},
		{"Past two axes", geometry.Vector3D{X: 150, Y: -150}, geometry.Vector3D{X: -0.25, Y: 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, cfg)
			s.pos[0] = tt.pos
			if got := s.bounds(0); !got.Eq(tt.want) {
				t.Errorf("bounds at %v = %v; want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestNoise_MisalignedAgentsGetKicked(t *testing.T) {
	// Two agents within alignment radius moving in exactly opposite
	// directions: misalignment angle is Pi, so both get a random kick.
	cfg := DefaultConfig()
	cfg.NumAgents = 2
	cfg.NoiseFactor = 1.0
	s := newTestSim(t, cfg)
	s.pos[0] = geometry.Vector3D{}
	s.pos[1] = geometry.Vector3D{X: 5}
	s.vel[0] = geometry.Vector3D{X: 1}
	s.vel[1] = geometry.Vector3D{X: -1}

	if got := s.noise(0, []int{1}); got.Eq(geometry.Vector3D{}) {
		t.Error("expected non-zero noise for anti-parallel headings, got zero")
	}
	if got := s.noise(1, []int{0}); got.Eq(geometry.Vector3D{}) {
		t.Error("expected non-zero noise for anti-parallel headings, got zero")
	}
}

func TestNoise_AlignedAgentsGetNone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 2
	cfg.NoiseFactor = 1.0
	s := newTestSim(t, cfg)
	s.vel[0] = geometry.Vector3D{X: 1}
	s.vel[1] = geometry.Vector3D{X: 1}

	if got := s.noise(0, []int{1}); !got.Eq(geometry.Vector3D{}) {
		t.Errorf("expected zero noise for parallel headings, got %v", got)
	}
}

func TestNoise_NoNeighborsCountsAsMisaligned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	cfg.NoiseFactor = 1.0
	s := newTestSim(t, cfg)
	s.vel[0] = geometry.Vector3D{X: 1}

	if got := s.noise(0, nil); got.Eq(geometry.Vector3D{}) {
		t.Error("expected non-zero noise for an isolated agent, got zero")
	}
}

func TestNoise_ZeroFactorSilencesKick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	cfg.NoiseFactor = 0
	s := newTestSim(t, cfg)

	if got := s.noise(0, nil); !got.Eq(geometry.Vector3D{}) {
		t.Errorf("expected zero noise with NoiseFactor 0, got %v", got)
	}
}

func TestRandomDirection_IsUnitLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	s := newTestSim(t, cfg)

	for i := 0; i < 100; i++ {
		dir := s.randomDirection()
		if math.Abs(dir.Len()-1) > 1e-9 {
			t.Fatalf("randomDirection length = %v; want 1", dir.Len())
		}
	}
}
