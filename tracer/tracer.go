// Package tracer integrates particle trajectories through a flow field,
// exclusion-zone repulsion and an optional feedback port.
package tracer

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/geometry"
)

// Sampler provides base flow vectors at canvas positions.
// Implemented by *field.Grid.
type Sampler interface {
	SampleAt(x, y float64) r2.Vec
}

// Feedback is the port through which the tracer reads adapted forces and
// reports what it traced. Implemented by *feedback.System.
type Feedback interface {
	// Adapt returns the force to follow at pos given the combined base force.
	Adapt(pos, force r2.Vec) r2.Vec
	// Observe records an emitted step and its curvature.
	Observe(pos r2.Vec, curvature float64)
	// Settle is called once after each particle finishes.
	Settle()
}

// NopFeedback passes forces through and records nothing.
type NopFeedback struct{}

func (NopFeedback) Adapt(_, force r2.Vec) r2.Vec { return force }
func (NopFeedback) Observe(r2.Vec, float64)      {}
func (NopFeedback) Settle()                      {}

// defaultDirection replaces zero-length forces.
var defaultDirection = r2.Vec{X: 1, Y: 0}

// Result is the output of one tracing pass.
type Result struct {
	Paths     []geometry.Path
	Requested int // Particles requested
	Dropped   int // Particles with no valid start within the attempt budget
	Discarded int // Traced paths shorter than two points
	Truncated int // Paths stopped by a deep exclusion zone
}

// Tracer traces particles for a single pass. It is not safe for concurrent use.
type Tracer struct {
	cfg   *config.Config
	rng   *rand.Rand
	zones []zone
}

// New creates a tracer drawing start positions from rng.
func New(cfg *config.Config, rng *rand.Rand) *Tracer {
	return &Tracer{
		cfg:   cfg,
		rng:   rng,
		zones: newZones(cfg.Trace.ExclusionZones),
	}
}

// Trace traces NumPaths particles through f. A nil fb behaves as NopFeedback.
// The field is never modified; the only state written is fb's.
func (t *Tracer) Trace(f Sampler, fb Feedback) Result {
	if fb == nil {
		fb = NopFeedback{}
	}

	res := Result{
		Requested: t.cfg.Trace.NumPaths,
		Paths:     make([]geometry.Path, 0, t.cfg.Trace.NumPaths),
	}
	for i := 0; i < t.cfg.Trace.NumPaths; i++ {
		start, ok := t.pickStart()
		if !ok {
			res.Dropped++
			continue
		}

		path, truncated := t.traceOne(start, f, fb)
		fb.Settle()
		if truncated {
			res.Truncated++
		}
		if len(path) < 2 {
			res.Discarded++
			continue
		}
		applyStroke(path, t.cfg.Stroke)
		res.Paths = append(res.Paths, path)
	}
	return res
}

// pickStart draws uniform starts until one lies outside every exclusion zone.
func (t *Tracer) pickStart() (r2.Vec, bool) {
	w, h := t.cfg.Canvas.Width, t.cfg.Canvas.Height
	attempts := 1
	if len(t.zones) > 0 {
		attempts = t.cfg.Trace.StartAttempts
	}
	for a := 0; a < attempts; a++ {
		p := r2.Vec{X: t.rng.Float64() * w, Y: t.rng.Float64() * h}
		if !insideAny(t.zones, p) {
			return p, true
		}
	}
	return r2.Vec{}, false
}

// traceOne integrates a single particle. Motion always advances exactly
// StepSize along the adapted force direction; magnitude never affects speed.
func (t *Tracer) traceOne(start r2.Vec, f Sampler, fb Feedback) (geometry.Path, bool) {
	tc := t.cfg.Trace
	step := t.cfg.Field.StepSize

	pos := start
	path := make(geometry.Path, 1, tc.Resolution+1)
	path[0] = geometry.Point{X: pos.X, Y: pos.Y}

	var prevDir r2.Vec
	for s := 1; s <= tc.Resolution; s++ {
		base := f.SampleAt(pos.X, pos.Y)
		force := r2.Add(base, repulsion(t.zones, pos, tc.RepulsionRadiusMultiplier, tc.RepulsionStrength))
		force = fb.Adapt(pos, force)

		dir := unitOr(force, unitOr(base, defaultDirection))
		next := r2.Add(pos, r2.Scale(step, dir))

		if deepInsideAny(t.zones, next, tc.DeepExclusionFactor) {
			return path, true
		}

		var curvature float64
		if s > 1 {
			curvature = turn(prevDir, dir)
		}
		path = append(path, geometry.Point{X: next.X, Y: next.Y, Step: s})
		fb.Observe(next, curvature)

		if !t.inCanvas(next) {
			break
		}
		prevDir = dir
		pos = next
	}
	return path, false
}

func (t *Tracer) inCanvas(p r2.Vec) bool {
	return p.X >= 0 && p.X <= t.cfg.Canvas.Width && p.Y >= 0 && p.Y <= t.cfg.Canvas.Height
}

// unitOr normalizes v, returning fallback for zero or non-finite lengths.
func unitOr(v, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return r2.Scale(1/n, v)
}
