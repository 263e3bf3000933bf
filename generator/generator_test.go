package generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/palette"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGenerator(seed int64) *Generator {
	return New(Options{Seed: seed, Logger: quietLogger()})
}

func parseConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

const smallCanvas = `
canvas: {width: 200, height: 200}
field: {step_size: 5, field_scale: 0.02}
trace: {num_paths: 40, resolution: 20}
`

func TestGenerateBasics(t *testing.T) {
	cfg := parseConfig(t, smallCanvas+`palette: {name: warm, include_bw: true}`)
	g := newTestGenerator(1)

	res, err := g.Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Pass)
	assert.Equal(t, 40, res.Field.Columns)
	assert.Equal(t, 40, res.Field.Rows)
	assert.Equal(t, res.Seed, res.Field.Seed)
	assert.NotEmpty(t, res.Paths)
	assert.Nil(t, res.Feedback, "feedback disabled")
	assert.Equal(t, res.Raw, res.Paths, "no reducers enabled")

	want, _ := palette.Build("warm", true)
	assert.Equal(t, want, res.Palette)

	assert.Equal(t, len(res.Paths), res.Stats.Paths)
	assert.Equal(t, 40, res.Stats.Columns)
	assert.Equal(t, 40, res.Stats.Requested)
	assert.Same(t, res, g.Last())
	assert.Nil(t, cfg.Field.Seed, "config not modified")
}

func TestGenerateDeterministicForFixedSeed(t *testing.T) {
	cfg := parseConfig(t, smallCanvas).WithSeed(42)

	a, err := newTestGenerator(1).Generate(cfg)
	require.NoError(t, err)
	b, err := newTestGenerator(2).Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(42), a.Seed)
	assert.Equal(t, a.Paths, b.Paths)
}

func TestGenerateSeedSource(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)

	a, b := newTestGenerator(5), newTestGenerator(5)
	for i := 0; i < 3; i++ {
		ra, err := a.Generate(cfg)
		require.NoError(t, err)
		rb, err := b.Generate(cfg)
		require.NoError(t, err)
		assert.Equal(t, ra.Seed, rb.Seed, "same seed source, same sequence")
		assert.GreaterOrEqual(t, ra.Seed, int64(0))
		assert.Less(t, ra.Seed, int64(10000))
	}
	assert.Equal(t, 3, a.Passes())
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)
	cfg.Field.StepSize = 0

	_, err := newTestGenerator(1).Generate(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidStepSize))
}

func TestGenerateWithReduction(t *testing.T) {
	cfg := parseConfig(t, smallCanvas+`reduce: {rdp: true, rdp_tolerance: 2, decimals: 1}`)

	res, err := newTestGenerator(3).Generate(cfg)
	require.NoError(t, err)
	require.Equal(t, len(res.Raw), len(res.Paths))

	assert.LessOrEqual(t, res.Stats.Points, res.Stats.RawPoints)
	for i, p := range res.Paths {
		raw := res.Raw[i]
		assert.InDelta(t, raw[0].X, p[0].X, 0.05, "start preserved")
		assert.InDelta(t, raw[len(raw)-1].Y, p[len(p)-1].Y, 0.05, "end preserved")
	}
}

func TestGenerateWithFeedback(t *testing.T) {
	cfg := parseConfig(t, smallCanvas+`feedback: {enabled: true, resolution: 10}`)
	g := newTestGenerator(4)

	first, err := g.Generate(cfg)
	require.NoError(t, err)
	require.NotNil(t, first.Feedback)
	assert.Equal(t, 40, first.Feedback.Ticks, "one tick per traced particle")
	assert.Equal(t, 1, first.Feedback.MemoryLayers)

	second, err := g.Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, 80, second.Feedback.Ticks, "state persists across passes")
	assert.Equal(t, 2, second.Feedback.MemoryLayers)
	assert.Equal(t, 2, g.History().Len())

	g.Reset()
	assert.Zero(t, g.Feedback().Ticks())
	assert.Zero(t, g.History().Len())

	// Changing the grid geometry clears state.
	resized := cfg.Clone()
	resized.Feedback.Resolution = 12
	third, err := g.Generate(resized)
	require.NoError(t, err)
	assert.Equal(t, 40, third.Feedback.Ticks)
}

func TestGenerateNormalizesHandBuiltConfig(t *testing.T) {
	cfg := config.Default().WithSeed(3)
	cfg.Canvas.Width, cfg.Canvas.Height = 200, 200
	cfg.Field.StepSize = 5
	cfg.Trace.NumPaths, cfg.Trace.Resolution = 100, 40
	cfg.Trace.ExclusionZones = []config.ExclusionZone{
		{Shape: "Rectangle", X: 50, Y: 50, Width: 100, Height: 100},
	}
	cfg.Stroke.Mode = "Taper"
	// Derived values are stale on purpose.
	cfg.Derived.Columns, cfg.Derived.Rows = 1, 1

	res, err := newTestGenerator(1).Generate(cfg)
	require.NoError(t, err)
	require.NotEmpty(t, res.Paths)

	assert.Equal(t, config.ShapeRect, res.Config.Trace.ExclusionZones[0].Shape)
	assert.Equal(t, config.StrokeTaper, res.Config.Stroke.Mode)
	assert.Equal(t, 40, res.Field.Columns)
	assert.Equal(t, config.ZoneShape("Rectangle"), cfg.Trace.ExclusionZones[0].Shape, "caller config untouched")

	// Deep core: the box shrunk to 0.7 of its half extents about (100, 100).
	for _, p := range res.Paths {
		for _, pt := range p {
			inside := math.Abs(pt.X-100) < 35-1e-9 && math.Abs(pt.Y-100) < 35-1e-9
			assert.False(t, inside, "point (%v,%v) inside the zone core", pt.X, pt.Y)
		}
		if len(p) > 2 {
			assert.Less(t, p[len(p)-1].StrokeWeight, p[0].StrokeWeight, "taper applied")
		}
	}
}

func TestDocument(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)
	res, err := newTestGenerator(1).Generate(cfg)
	require.NoError(t, err)

	doc := res.Document()
	assert.Equal(t, res.Seed, doc.Seed)
	assert.Equal(t, res.Paths, doc.Paths)
	assert.Same(t, res.Config, doc.Config)
	assert.Equal(t, cfg.Trace, doc.Config.Trace)
}

func TestRandomize(t *testing.T) {
	base := config.Default().WithSeed(9)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 50; i++ {
		cfg, err := Randomize(base, rng)
		require.NoError(t, err)

		assert.Nil(t, cfg.Field.Seed)
		assert.GreaterOrEqual(t, cfg.Field.FieldScale, 0.003)
		assert.Less(t, cfg.Field.FieldScale, 0.008)
		assert.GreaterOrEqual(t, cfg.Trace.Resolution, 20)
		assert.Less(t, cfg.Trace.Resolution, 50)
		assert.GreaterOrEqual(t, cfg.Trace.NumPaths, 1000)
		assert.Less(t, cfg.Trace.NumPaths, 2000)
		assert.GreaterOrEqual(t, cfg.Field.StepSize, 3.0)
		assert.Less(t, cfg.Field.StepSize, 7.0)
		assert.GreaterOrEqual(t, cfg.Stroke.Weight, 0.3)
		assert.Less(t, cfg.Stroke.Weight, 1.0)
		assert.Equal(t, int(800/cfg.Field.StepSize), cfg.Derived.Columns)
	}
	assert.Equal(t, int64(9), *base.Field.Seed, "base untouched")
}

func TestRandomizeEmptyRange(t *testing.T) {
	base := config.Default()
	base.Auto.NumPaths = config.Range{Min: 5, Max: 5}
	cfg, err := Randomize(base, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Trace.NumPaths)
}

func TestRunnerStopsAtMaxPasses(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)
	var seen []int
	r := &Runner{
		Gen:       newTestGenerator(1),
		Base:      cfg,
		Interval:  time.Millisecond,
		MaxPasses: 3,
		OnPass: func(res *Result) error {
			seen = append(seen, res.Pass)
			return nil
		},
	}

	n, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		Gen:      newTestGenerator(1),
		Base:     cfg,
		Interval: time.Millisecond,
		Vary:     false,
		OnPass: func(res *Result) error {
			if res.Pass == 2 {
				cancel()
			}
			return nil
		},
	}

	n, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "completed passes are counted, none after cancel")
}

func TestRunnerPropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	r := &Runner{
		Gen:      newTestGenerator(1),
		Base:     parseConfig(t, smallCanvas),
		Interval: time.Millisecond,
		OnPass:   func(*Result) error { return boom },
	}

	n, err := r.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
}

func TestRunnerVaries(t *testing.T) {
	base := parseConfig(t, `
canvas: {width: 100, height: 100}
auto:
  num_paths: {min: 3, max: 6}
  resolution: {min: 2, max: 5}
`)
	var counts []int
	r := &Runner{
		Gen:       newTestGenerator(8),
		Base:      base,
		Interval:  time.Millisecond,
		MaxPasses: 4,
		Vary:      true,
		OnPass: func(res *Result) error {
			counts = append(counts, res.Config.Trace.NumPaths)
			return nil
		},
	}
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 4)
	for _, c := range counts {
		assert.True(t, c >= 3 && c < 6, "num_paths %d outside range", c)
	}
}

func TestRunnerRejectsZeroInterval(t *testing.T) {
	cfg := parseConfig(t, smallCanvas)
	cfg.Auto.Interval = 0
	_, err := (&Runner{Gen: newTestGenerator(1), Base: cfg}).Run(context.Background())
	assert.Error(t, err)
}
