// Package feedback implements the adaptive feedback subsystem: homeostatic
// density damping, stigmergic pheromone steering, emergent attractors and
// temporal field memory, plus aggregate metrics describing the grid state.
//
// All spatial lookups outside the canvas are silent no-ops; traced particles
// leave the valid range transiently during integration.
package feedback

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
)

// Epsilon guards logarithms and divisions in the metrics.
const Epsilon = 0.001

// minDamping is the floor of the homeostatic scale factor.
const minDamping = 0.1

// System owns the feedback grids and emergent state for one session.
// It is not safe for concurrent use.
type System struct {
	cfg    config.FeedbackConfig
	worldW float64
	worldH float64

	density   *scalarGrid
	pheromone *scalarGrid

	candidates []Candidate
	attractors []Attractor
	memory     []FieldSnapshot

	ticks   int
	metrics Metrics
}

// New creates a feedback system sized to cfg's canvas and feedback resolution.
func New(cfg *config.Config) *System {
	s := &System{}
	s.configure(cfg)
	s.allocate()
	return s
}

func (s *System) configure(cfg *config.Config) {
	s.cfg = cfg.Feedback
	s.worldW = cfg.Canvas.Width
	s.worldH = cfg.Canvas.Height
}

func (s *System) allocate() {
	s.density = newScalarGrid(s.cfg.Resolution, s.worldW, s.worldH)
	s.pheromone = newScalarGrid(s.cfg.Resolution, s.worldW, s.worldH)
	s.candidates = nil
	s.attractors = nil
	s.memory = nil
	s.ticks = 0
	s.metrics = Metrics{}
}

// Reset clears all grids, candidates, attractors and memory layers.
func (s *System) Reset() {
	s.allocate()
}

// Apply adopts the feedback settings of cfg for subsequent calls.
// Grids are reallocated (and all state cleared) only when the canvas size or
// grid resolution changed; it reports whether that happened.
func (s *System) Apply(cfg *config.Config) bool {
	resized := cfg.Canvas.Width != s.worldW ||
		cfg.Canvas.Height != s.worldH ||
		cfg.Feedback.Resolution != s.cfg.Resolution
	s.configure(cfg)
	if resized {
		s.allocate()
	} else if len(s.memory) > s.cfg.MemoryLayers {
		s.memory = s.memory[:s.cfg.MemoryLayers]
	}
	return resized
}

// Enabled reports whether the subsystem is active at all.
func (s *System) Enabled() bool {
	return s.cfg.Enabled
}

func (s *System) inCanvas(x, y float64) bool {
	return x >= 0 && x < s.worldW && y >= 0 && y < s.worldH
}

// UpdateDensity accumulates intensity into the density cell at (x, y).
func (s *System) UpdateDensity(x, y, intensity float64) {
	if !s.cfg.Enabled || !s.cfg.DensityAdaptation {
		return
	}
	s.density.Add(x, y, intensity)
}

// Density returns the density at (x, y) normalized to [0,1].
func (s *System) Density(x, y float64) float64 {
	if !s.cfg.Enabled {
		return 0
	}
	norm := s.cfg.DensityNormalize
	if norm <= 0 {
		norm = 1
	}
	return math.Min(1, s.density.At(x, y)/norm)
}

// DepositPheromone accumulates intensity into the pheromone cell at (x, y).
func (s *System) DepositPheromone(x, y, intensity float64) {
	if !s.cfg.Enabled || !s.cfg.PheromoneTrails {
		return
	}
	s.pheromone.Add(x, y, intensity)
}

// Pheromone returns the raw pheromone level at (x, y).
func (s *System) Pheromone(x, y float64) float64 {
	if !s.cfg.Enabled || !s.cfg.PheromoneTrails {
		return 0
	}
	return s.pheromone.At(x, y)
}

// PheromoneGradient is the central difference of the pheromone grid at one
// cell spacing.
func (s *System) PheromoneGradient(x, y float64) r2.Vec {
	dx, dy := s.pheromone.Spacing()
	return r2.Vec{
		X: s.Pheromone(x+dx, y) - s.Pheromone(x-dx, y),
		Y: s.Pheromone(x, y+dy) - s.Pheromone(x, y-dy),
	}
}

// FieldAdaptation applies, in order, density damping, pheromone steering,
// attractor pull and temporal memory to base. Effects after damping are
// additive.
func (s *System) FieldAdaptation(x, y float64, base r2.Vec) r2.Vec {
	if !s.cfg.Enabled {
		return base
	}

	force := base
	if s.cfg.DensityAdaptation {
		factor := 1.0 - s.Density(x, y)*s.cfg.AdaptationRate
		force = r2.Scale(math.Max(minDamping, factor), force)
	}

	if s.cfg.PheromoneTrails {
		strength := s.Pheromone(x, y)
		grad := s.PheromoneGradient(x, y)
		force = r2.Add(force, r2.Scale(strength*s.cfg.PheromoneInfluence, grad))
	}

	if s.cfg.EmergentAttractors && len(s.attractors) > 0 {
		force = r2.Add(force, s.attractorForce(x, y))
	}

	if s.cfg.TemporalMemory && len(s.memory) > 0 {
		force = r2.Add(force, r2.Scale(s.cfg.MemoryWeight, s.memoryForce(x, y)))
	}

	return force
}

// Tick decays the grids, advances candidates and attractors, and recomputes
// the metrics.
func (s *System) Tick() {
	if !s.cfg.Enabled {
		return
	}
	s.ticks++

	s.density.Decay(s.cfg.DensityDecay)
	if s.cfg.PheromoneTrails {
		s.pheromone.Decay(s.cfg.PheromoneDecay)
	}

	s.updateAttractors()
	s.metrics = computeMetrics(s.density.Cells, s.density.Res)
}

// Adapt is the tracer port form of FieldAdaptation.
func (s *System) Adapt(pos, force r2.Vec) r2.Vec {
	return s.FieldAdaptation(pos.X, pos.Y, force)
}

// Observe records a traced step: density and pheromone deposits, and an
// attractor candidate when the step turned sharply.
func (s *System) Observe(pos r2.Vec, curvature float64) {
	s.UpdateDensity(pos.X, pos.Y, s.cfg.DensityIntensity)
	s.DepositPheromone(pos.X, pos.Y, s.cfg.PheromoneIntensity)
	if curvature > s.cfg.CandidateCurvature {
		s.AddAttractorCandidate(pos.X, pos.Y, curvature)
	}
}

// Settle is the tracer port form of Tick, called once per traced particle.
func (s *System) Settle() {
	s.Tick()
}

// Attractors returns a copy of the live attractors.
func (s *System) Attractors() []Attractor {
	return append([]Attractor(nil), s.attractors...)
}

// Candidates returns a copy of the pending candidates.
func (s *System) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Metrics returns the metrics computed at the last tick.
func (s *System) Metrics() Metrics {
	return s.metrics
}

// Ticks returns the number of ticks since the last reset.
func (s *System) Ticks() int {
	return s.ticks
}
