package flock

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/lao-tseu-is-alive/go-insect-flock/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config holds every recognized simulation option. It is immutable for the
// lifetime of a run: New copies it into the Sim and never reads it again.
type Config struct {
	// Population
	NumAgents int `json:"numAgents"`

	// Axis-aligned bounding half-extents. The flock is seeded inside
	// [-Limit, +Limit] on each axis; containment back into that box is a
	// soft push, not a hard clamp.
	Limit geometry.Vector3D `json:"limit"`

	// Physics
	VelocityLimit float64 `json:"velocityLimit"`

	// Interaction Radii
	SeparationRadius float64 `json:"separationRadius"` // Personal space radius
	AlignmentRadius  float64 `json:"alignmentRadius"`  // Heading-matching radius
	CohesionRadius   float64 `json:"cohesionRadius"`   // How far can they see?

	// Correction strengths
	SeparationFactor float64 `json:"separationFactor"`
	AlignmentFactor  float64 `json:"alignmentFactor"`
	CohesionFactor   float64 `json:"cohesionFactor"`
	BoundsPush       float64 `json:"boundsPush"` // Edge push strength

	// Noise injection: agents whose heading diverges from the local average
	// by NoiseAngle radians or more receive a random kick scaled by NoiseFactor.
	NoiseAngle  float64 `json:"noiseAngle"`
	NoiseFactor float64 `json:"noiseFactor"`

	// Run control
	StepBudget int   `json:"stepBudget"`
	Seed       int64 `json:"seed"`

	// SpatialGrid selects the hash-grid neighbor index instead of the
	// brute-force scan. Both return identical neighbor sets.
	SpatialGrid bool `json:"spatialGrid"`
}

func DefaultConfig() *Config {
	return &Config{
		NumAgents:        120,
		Limit:            geometry.Vector3D{X: 200, Y: 150, Z: 200},
		VelocityLimit:    4.0,
		SeparationRadius: 20.0,
		AlignmentRadius:  50.0,
		CohesionRadius:   70.0,
		SeparationFactor: 0.05,
		AlignmentFactor:  0.05,
		CohesionFactor:   0.005,
		BoundsPush:       0.2,
		NoiseAngle:       math.Pi / 4,
		NoiseFactor:      0.15,
		StepBudget:       10000,
		Seed:             42,
	}
}

// Validate checks the semantic constraints the JSON schema cannot express in
// context. It returns the first violation as a *ConfigError.
func (c *Config) Validate() error {
	if c.NumAgents <= 0 {
		return &ConfigError{Field: "numAgents", Reason: "must be positive"}
	}
	if c.Limit.X <= 0 || c.Limit.Y <= 0 || c.Limit.Z <= 0 {
		return &ConfigError{Field: "limit", Reason: "extents must be positive on every axis"}
	}
	if c.VelocityLimit < 0 {
		return &ConfigError{Field: "velocityLimit", Reason: "must not be negative"}
	}
	if c.SeparationRadius < 0 {
		return &ConfigError{Field: "separationRadius", Reason: "must not be negative"}
	}
	if c.AlignmentRadius < 0 {
		return &ConfigError{Field: "alignmentRadius", Reason: "must not be negative"}
	}
	if c.CohesionRadius < 0 {
		return &ConfigError{Field: "cohesionRadius", Reason: "must not be negative"}
	}
	if c.SeparationFactor < 0 {
		return &ConfigError{Field: "separationFactor", Reason: "must not be negative"}
	}
	if c.AlignmentFactor < 0 {
		return &ConfigError{Field: "alignmentFactor", Reason: "must not be negative"}
	}
	if c.CohesionFactor < 0 {
		return &ConfigError{Field: "cohesionFactor", Reason: "must not be negative"}
	}
	if c.BoundsPush < 0 {
		return &ConfigError{Field: "boundsPush", Reason: "must not be negative"}
	}
	if c.NoiseAngle < 0 {
		return &ConfigError{Field: "noiseAngle", Reason: "must not be negative"}
	}
	if c.NoiseFactor < 0 {
		return &ConfigError{Field: "noiseFactor", Reason: "must not be negative"}
	}
	if c.StepBudget < 0 {
		return &ConfigError{Field: "stepBudget", Reason: "must not be negative"}
	}
	return nil
}

// LoadConfig loads configuration from a JSON file and validates it against the schema.
func LoadConfig(configFile string, schemaFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.Compile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	f, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	// 3. Validate against schema
	var v interface{}
	if err := json.NewDecoder(f).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
