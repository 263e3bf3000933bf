package feedback

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Candidate is a location that may mature into an attractor.
type Candidate struct {
	X, Y        float64
	Strength    float64
	Age         int
	Convergence float64 // Accumulated local density
}

// Attractor pulls nearby particles toward it until its decay falls below the floor.
type Attractor struct {
	X, Y     float64
	Strength float64
	Decay    float64
}

// Influence returns strength scaled by the current decay.
func (a Attractor) Influence() float64 {
	return a.Strength * a.Decay
}

// AddAttractorCandidate queues a candidate. The queue is capped; the oldest
// entries are dropped first.
func (s *System) AddAttractorCandidate(x, y, strength float64) {
	if !s.cfg.Enabled || !s.cfg.EmergentAttractors {
		return
	}
	s.candidates = append(s.candidates, Candidate{X: x, Y: y, Strength: strength})
	if limit := s.cfg.MaxCandidates; limit > 0 && len(s.candidates) > limit {
		drop := len(s.candidates) - limit
		s.candidates = append(s.candidates[:0], s.candidates[drop:]...)
	}
}

// updateAttractors ages candidates, promotes matured ones and decays attractors.
func (s *System) updateAttractors() {
	if !s.cfg.EmergentAttractors {
		return
	}

	kept := s.candidates[:0]
	for _, c := range s.candidates {
		c.Convergence += s.Density(c.X, c.Y)
		c.Age++

		if c.Convergence > s.cfg.AttractorThreshold && c.Age > s.cfg.MinDwell {
			s.attractors = append(s.attractors, Attractor{
				X:        c.X,
				Y:        c.Y,
				Strength: c.Convergence,
				Decay:    1.0,
			})
			continue
		}
		if c.Age >= s.cfg.MaxCandidateAge {
			continue
		}
		kept = append(kept, c)
	}
	s.candidates = kept

	alive := s.attractors[:0]
	for _, a := range s.attractors {
		a.Decay *= s.cfg.AttractorDecay
		if a.Decay < s.cfg.AttractorFloor {
			continue
		}
		alive = append(alive, a)
	}
	s.attractors = alive
}

// attractorForce sums the pull of live attractors within the influence radius.
func (s *System) attractorForce(x, y float64) r2.Vec {
	var total r2.Vec
	radius := s.cfg.AttractorRadius
	for _, a := range s.attractors {
		d := r2.Vec{X: a.X - x, Y: a.Y - y}
		dist := math.Hypot(d.X, d.Y)
		if dist <= 0 || dist >= radius {
			continue
		}
		strength := a.Influence() / (dist * dist)
		total = r2.Add(total, r2.Scale(strength*s.cfg.AttractorDamping/dist, d))
	}
	return total
}
