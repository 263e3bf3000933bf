// Package main tunes adaptive feedback parameters with CMA-ES.
package main

import (
	"github.com/ToledoEM/field-generation/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of feedback parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Density
			{Name: "adaptation_rate", Path: "feedback.adaptation_rate", Min: 0.0, Max: 2.0, Default: 0.5},
			{Name: "density_decay", Path: "feedback.density_decay", Min: 0.8, Max: 1.0, Default: 0.99},
			// Pheromones
			{Name: "pheromone_decay", Path: "feedback.pheromone_decay", Min: 0.8, Max: 1.0, Default: 0.95},
			{Name: "pheromone_influence", Path: "feedback.pheromone_influence", Min: 0.0, Max: 1.0, Default: 0.1},
			// Attractors
			{Name: "attractor_threshold", Path: "feedback.attractor_threshold", Min: 0.5, Max: 5.0, Default: 2.0},
			{Name: "attractor_decay", Path: "feedback.attractor_decay", Min: 0.8, Max: 1.0, Default: 0.95},
			// Memory
			{Name: "memory_decay", Path: "feedback.memory_decay", Min: 0.5, Max: 1.0, Default: 0.8},
			{Name: "memory_weight", Path: "feedback.memory_weight", Min: 0.0, Max: 1.0, Default: 0.2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and enables every
// feedback mechanism the parameters control.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	fb := &cfg.Feedback

	fb.Enabled = true
	fb.DensityAdaptation = true
	fb.PheromoneTrails = true
	fb.EmergentAttractors = true
	fb.TemporalMemory = true

	// Order must match Specs order
	fb.AdaptationRate = clamped[0]
	fb.DensityDecay = clamped[1]
	fb.PheromoneDecay = clamped[2]
	fb.PheromoneInfluence = clamped[3]
	fb.AttractorThreshold = clamped[4]
	fb.AttractorDecay = clamped[5]
	fb.MemoryDecay = clamped[6]
	fb.MemoryWeight = clamped[7]
}

// ExtractFromConfig extracts current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	fb := cfg.Feedback
	return []float64{
		fb.AdaptationRate,
		fb.DensityDecay,
		fb.PheromoneDecay,
		fb.PheromoneInfluence,
		fb.AttractorThreshold,
		fb.AttractorDecay,
		fb.MemoryDecay,
		fb.MemoryWeight,
	}
}
