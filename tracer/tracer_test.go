package tracer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/feedback"
	"github.com/ToledoEM/field-generation/field"
	"github.com/ToledoEM/field-generation/geometry"
)

func parseConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

// uniformField points everywhere in one direction.
type uniformField struct{ v r2.Vec }

func (u uniformField) SampleAt(x, y float64) r2.Vec { return u.v }

// recorder counts port calls.
type recorder struct {
	adapts, observes, settles int
}

func (r *recorder) Adapt(_, force r2.Vec) r2.Vec { r.adapts++; return force }
func (r *recorder) Observe(r2.Vec, float64)      { r.observes++ }
func (r *recorder) Settle()                      { r.settles++ }

func TestSinglePathScenario(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 100, height: 100}
field: {noise_type: perlin, field_scale: 0.05, step_size: 10, seed: 42}
trace: {resolution: 5, num_paths: 1}
`)
	grid := field.Generate(cfg, 42)
	res := New(cfg, rand.New(rand.NewSource(42))).Trace(grid, nil)

	require.Len(t, res.Paths, 1)
	p := res.Paths[0]
	assert.GreaterOrEqual(t, len(p), 2)
	assert.LessOrEqual(t, len(p), 6, "start plus at most five steps")
	for i := 1; i < len(p); i++ {
		assert.Greater(t, p[i].Step, p[i-1].Step, "step index strictly increasing")
	}
}

func TestFixedStepLength(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 1000, height: 1000}
field: {step_size: 7}
trace: {resolution: 10, num_paths: 20}
`)
	// Force magnitude never affects speed.
	res := New(cfg, rand.New(rand.NewSource(1))).Trace(uniformField{r2.Vec{X: 30, Y: 40}}, nil)
	require.NotEmpty(t, res.Paths)
	for _, p := range res.Paths {
		for i := 1; i < len(p); i++ {
			d := r2.Norm(r2.Sub(p[i].Vec(), p[i-1].Vec()))
			assert.InDelta(t, 7.0, d, 1e-9)
		}
	}
}

func TestZeroForceFallsBack(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 100, height: 100}
field: {step_size: 5}
trace: {resolution: 3, num_paths: 5}
`)
	res := New(cfg, rand.New(rand.NewSource(3))).Trace(uniformField{}, nil)
	for _, p := range res.Paths {
		for i := 1; i < len(p); i++ {
			assert.InDelta(t, p[i-1].X+5, p[i].X, 1e-9, "zero field advances along +x")
			assert.InDelta(t, p[i-1].Y, p[i].Y, 1e-9)
		}
	}
}

func TestDeterministic(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 200, height: 200}
field: {step_size: 5, field_scale: 0.02}
trace: {resolution: 20, num_paths: 30}
stroke: {mode: curvature}
`)
	grid := field.Generate(cfg, 7)
	a := New(cfg, rand.New(rand.NewSource(9))).Trace(grid, nil)
	b := New(cfg, rand.New(rand.NewSource(9))).Trace(grid, nil)
	assert.Equal(t, a, b)
}

func TestExclusionSafety(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 200, height: 200}
field: {step_size: 4, field_scale: 0.01}
trace:
  resolution: 60
  num_paths: 200
  exclusion_zones:
    - {shape: circle, x: 100, y: 100, radius: 40}
    - {shape: rect, x: 10, y: 10, width: 30, height: 20}
`)
	grid := field.Generate(cfg, 5)
	res := New(cfg, rand.New(rand.NewSource(5))).Trace(grid, nil)
	require.NotEmpty(t, res.Paths)

	zones := newZones(cfg.Trace.ExclusionZones)
	for _, p := range res.Paths {
		assert.False(t, insideAny(zones, p[0].Vec()), "start outside every zone")
		for _, pt := range p {
			assert.False(t, deepInsideAny(zones, pt.Vec(), cfg.Trace.DeepExclusionFactor),
				"point (%v,%v) entered a zone core", pt.X, pt.Y)
		}
	}
}

func TestDeepExclusionTruncates(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 200, height: 200}
field: {step_size: 5}
trace:
  resolution: 100
  num_paths: 50
  repulsion_strength: 0
  exclusion_zones:
    - {shape: rect, x: 150, y: 0, width: 50, height: 200}
`)
	res := New(cfg, rand.New(rand.NewSource(11))).Trace(uniformField{r2.Vec{X: 1}}, nil)
	assert.Zero(t, res.Dropped)
	assert.Equal(t, 50, len(res.Paths)+res.Discarded)
	assert.Positive(t, res.Truncated)
	for _, p := range res.Paths {
		// Deep core starts at x = 175 - 25*0.7.
		assert.Less(t, p[len(p)-1].X, 157.5+1e-9)
	}
}

func TestAliasSpellingsWithoutRefresh(t *testing.T) {
	// Built by hand: Validate accepts the aliases but nothing canonicalised them.
	cfg := config.Default()
	cfg.Canvas.Width, cfg.Canvas.Height = 200, 200
	cfg.Field.StepSize = 5
	cfg.Trace.NumPaths, cfg.Trace.Resolution = 200, 60
	cfg.Trace.ExclusionZones = []config.ExclusionZone{
		{Shape: "rectangle", X: 50, Y: 50, Width: 100, Height: 100},
	}
	require.NoError(t, cfg.Validate())

	res := New(cfg, rand.New(rand.NewSource(9))).Trace(uniformField{r2.Vec{X: 1}}, nil)
	require.NotEmpty(t, res.Paths)
	assert.Positive(t, res.Truncated)

	deep := 0
	for _, p := range res.Paths {
		for _, pt := range p {
			if math.Abs(pt.X-100) < 35-1e-9 && math.Abs(pt.Y-100) < 35-1e-9 {
				deep++
			}
		}
	}
	assert.Zero(t, deep, "points inside the rectangle core")

	p := geometry.Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	applyStroke(p, config.StrokeConfig{Weight: 2, Mode: "Taper"})
	assert.InDelta(t, 0.4, p[2].StrokeWeight, 1e-12)
}

func TestRepulsionPushesAway(t *testing.T) {
	zs := newZones([]config.ExclusionZone{{Shape: config.ShapeCircle, X: 50, Y: 50, Radius: 10}})

	f := repulsion(zs, r2.Vec{X: 60, Y: 50}, 1.5, 2)
	assert.Positive(t, f.X)
	assert.InDelta(t, 0, f.Y, 1e-12)
	// ((15-10)/15)^2 * 2
	assert.InDelta(t, 2.0/9.0, r2.Norm(f), 1e-12)

	assert.Equal(t, r2.Vec{}, repulsion(zs, r2.Vec{X: 80, Y: 50}, 1.5, 2), "outside reach")
	assert.Equal(t, r2.Vec{}, repulsion(zs, r2.Vec{X: 50, Y: 50}, 1.5, 2), "centre has no direction")

	rect := newZones([]config.ExclusionZone{{Shape: config.ShapeRect, X: 40, Y: 40, Width: 20, Height: 20}})
	assert.Equal(t, r2.Vec{}, repulsion(rect, r2.Vec{X: 65, Y: 50}, 1.5, 2), "rectangles never repel")
}

func TestStartsDroppedWhenCanvasBlocked(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 100, height: 100}
field: {step_size: 5}
trace:
  num_paths: 10
  start_attempts: 5
  exclusion_zones:
    - {shape: rect, x: 0, y: 0, width: 100, height: 100}
`)
	res := New(cfg, rand.New(rand.NewSource(1))).Trace(uniformField{r2.Vec{X: 1}}, nil)
	assert.Empty(t, res.Paths)
	assert.Equal(t, 10, res.Dropped)
}

func TestBoundsExitEmitsFinalPoint(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 100, height: 100}
field: {step_size: 10}
trace: {resolution: 50, num_paths: 10}
`)
	res := New(cfg, rand.New(rand.NewSource(2))).Trace(uniformField{r2.Vec{Y: -1}}, nil)
	require.Len(t, res.Paths, 10)
	for _, p := range res.Paths {
		last := p[len(p)-1]
		assert.Negative(t, last.Y, "exiting point is kept")
		for _, pt := range p[:len(p)-1] {
			assert.GreaterOrEqual(t, pt.Y, 0.0)
		}
	}
}

func TestPortCalls(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 1000, height: 1000}
field: {step_size: 1}
trace: {resolution: 8, num_paths: 4}
`)
	rec := &recorder{}
	res := New(cfg, rand.New(rand.NewSource(4))).Trace(uniformField{r2.Vec{X: 1, Y: 1}}, rec)
	require.Len(t, res.Paths, 4)

	steps := 0
	for _, p := range res.Paths {
		steps += len(p) - 1
	}
	assert.Equal(t, 4, rec.settles, "one settle per particle")
	assert.Equal(t, steps, rec.observes)
	assert.Equal(t, steps, rec.adapts)
}

func TestFeedbackSystemAsPort(t *testing.T) {
	cfg := parseConfig(t, `
canvas: {width: 100, height: 100}
field: {step_size: 5}
trace: {resolution: 10, num_paths: 20}
feedback: {enabled: true, resolution: 10}
`)
	fb := feedback.New(cfg)
	grid := field.Generate(cfg, 3)
	New(cfg, rand.New(rand.NewSource(3))).Trace(grid, fb)

	assert.Equal(t, 20, fb.Ticks())
	assert.Positive(t, fb.State().TotalPheromone)
}

func TestStrokeModes(t *testing.T) {
	// Right-angle zigzag so every interior point has curvature 0.5.
	zigzag := func() geometry.Path {
		return geometry.Path{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}}
	}

	tests := []struct {
		name  string
		mode  config.StrokeMode
		check func(t *testing.T, p geometry.Path)
	}{
		{"none", config.StrokeNone, func(t *testing.T, p geometry.Path) {
			assert.True(t, p.UniformStroke())
			assert.Equal(t, 2.0, p[0].StrokeWeight)
			assert.Equal(t, 1.0, p[0].Alpha)
		}},
		{"taper", config.StrokeTaper, func(t *testing.T, p geometry.Path) {
			assert.Equal(t, 2.0, p[0].StrokeWeight)
			assert.InDelta(t, 0.4, p[len(p)-1].StrokeWeight, 1e-12)
			for i := 1; i < len(p); i++ {
				assert.Less(t, p[i].StrokeWeight, p[i-1].StrokeWeight)
			}
		}},
		{"alpha-taper", config.StrokeAlphaTaper, func(t *testing.T, p geometry.Path) {
			assert.Equal(t, 1.0, p[0].Alpha)
			assert.InDelta(t, 0.1, p[len(p)-1].Alpha, 1e-12)
			assert.Equal(t, 2.0, p[len(p)-1].StrokeWeight)
		}},
		{"curvature", config.StrokeCurvature, func(t *testing.T, p geometry.Path) {
			assert.Equal(t, 2.0, p[0].StrokeWeight)
			for _, pt := range p {
				assert.LessOrEqual(t, pt.StrokeWeight, 4.0)
			}
			// Window {0, 0.5, 0.5} at index 3.
			assert.InDelta(t, 2+(1.0/3.0)*3*0.3, p[3].StrokeWeight, 1e-9)
		}},
		{"alpha-curvature", config.StrokeAlphaCurvature, func(t *testing.T, p geometry.Path) {
			assert.Equal(t, 1.0, p[0].Alpha)
			for _, pt := range p {
				assert.GreaterOrEqual(t, pt.Alpha, 0.3)
			}
			assert.Equal(t, 0.3, p[4].Alpha, "floored")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := zigzag()
			applyStroke(p, config.StrokeConfig{Weight: 2, Mode: tt.mode, WeightMultiplier: 3})
			tt.check(t, p)
		})
	}
}

func TestTurn(t *testing.T) {
	x := r2.Vec{X: 1}
	assert.Zero(t, turn(x, x))
	assert.InDelta(t, 0.5, turn(x, r2.Vec{Y: 1}), 1e-12)
	assert.InDelta(t, 1.0, turn(x, r2.Vec{X: -1}), 1e-12)
	assert.False(t, math.IsNaN(turn(x, r2.Vec{X: 1 + 1e-16})))
}
