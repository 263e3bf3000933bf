// Package generator composes field generation, particle tracing, adaptive
// feedback and geometry reduction into generation passes.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/export"
	"github.com/ToledoEM/field-generation/feedback"
	"github.com/ToledoEM/field-generation/field"
	"github.com/ToledoEM/field-generation/geometry"
	"github.com/ToledoEM/field-generation/palette"
	"github.com/ToledoEM/field-generation/telemetry"
	"github.com/ToledoEM/field-generation/tracer"
)

// Options configures a Generator.
type Options struct {
	Seed     int64        // Seeds the source of per-pass seeds (0 = time-based)
	LogStats bool         // Log every pass at Info instead of Debug
	Logger   *slog.Logger // Defaults to slog.Default()
}

// Result is the outcome of one generation pass.
type Result struct {
	Pass    int
	Seed    int64 // Resolved seed used for the field and the tracer
	Config  *config.Config
	Field   *field.Grid
	Raw     []geometry.Path // Traced paths before reduction
	Paths   []geometry.Path // Exported paths
	Palette []string
	Trace   tracer.Result
	// Feedback is nil when the pass ran without feedback.
	Feedback *feedback.State
	Stats    telemetry.PassStats
	Time     time.Time
}

// Document returns the export view of the result.
func (r *Result) Document() export.Document {
	return export.Document{
		Config:  r.Config,
		Seed:    r.Seed,
		Palette: r.Palette,
		Paths:   r.Paths,
		Time:    r.Time,
	}
}

// Generator owns the state that persists across passes: the seed source,
// the feedback system and the metric history. It is not safe for concurrent
// use; passes run sequentially.
type Generator struct {
	rng     *rand.Rand
	logger  *slog.Logger
	logPass bool

	fb      *feedback.System
	perf    *telemetry.PerfCollector
	history *telemetry.History

	pass int
	last *Result
}

// New creates a generator.
func New(opts Options) *Generator {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		rng:     rand.New(rand.NewSource(seed)),
		logger:  logger,
		logPass: opts.LogStats,
		perf:    telemetry.NewPerfCollector(telemetry.HistorySize),
		history: telemetry.NewHistory(telemetry.HistorySize),
	}
}

// Generate runs one pass. The pass runs on a refreshed copy of cfg, so
// hand-built configs get canonical enum values and derived sizes; cfg itself
// is not modified. A config without a seed gets one drawn from the
// generator's seed source.
func (g *Generator) Generate(cfg *config.Config) (*Result, error) {
	cfg = cfg.Clone()
	if err := cfg.Refresh(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	for _, w := range cfg.Derived.Warnings {
		g.logger.Warn("config fallback", "detail", w)
	}

	g.pass++
	seed := field.ResolveSeed(cfg.Field.Seed, g.rng)
	res := &Result{Pass: g.pass, Seed: seed, Config: cfg, Time: time.Now().UTC()}

	g.perf.StartPass()
	g.perf.StartPhase(telemetry.PhaseField)
	res.Field = field.Generate(cfg, seed)
	res.Palette = g.buildPalette(cfg)

	var port tracer.Feedback
	if cfg.Feedback.Enabled {
		g.ensureFeedback(cfg)
		port = g.fb
	}

	g.perf.StartPhase(telemetry.PhaseTrace)
	res.Trace = tracer.New(cfg, rand.New(rand.NewSource(seed))).Trace(res.Field, port)
	res.Raw = res.Trace.Paths

	if cfg.Feedback.Enabled {
		g.perf.StartPhase(telemetry.PhaseMemory)
		g.fb.StoreField(res.Field.Snapshot())
		st := g.fb.State()
		res.Feedback = &st
		g.history.Record(st.Metrics)
	}

	g.perf.StartPhase(telemetry.PhaseReduce)
	res.Paths = res.Raw
	if cfg.Reduce.RDP || cfg.Reduce.MergeCollinear {
		res.Paths = geometry.OptimizeAll(res.Raw, cfg.Reduce)
	}
	elapsed := g.perf.EndPass()

	res.Stats = telemetry.NewPassStats(res.Pass, seed, res.Trace, res.Raw, res.Paths, res.Feedback, elapsed)
	res.Stats.Columns, res.Stats.Rows = res.Field.Columns, res.Field.Rows

	level := slog.LevelDebug
	if g.logPass {
		level = slog.LevelInfo
	}
	g.logger.Log(context.Background(), level, "pass", "stats", res.Stats)
	if res.Trace.Dropped > 0 {
		g.logger.Warn("particles dropped", "pass", res.Pass, "dropped", res.Trace.Dropped)
	}

	g.last = res
	return res, nil
}

func (g *Generator) buildPalette(cfg *config.Config) []string {
	colors, ok := palette.Build(cfg.Palette.Name, cfg.Palette.IncludeBW)
	if !ok {
		g.logger.Warn("unknown palette", "name", cfg.Palette.Name, "using", palette.Default)
	}
	if cfg.Palette.Invert {
		colors = palette.Invert(colors)
	}
	return colors
}

// ensureFeedback creates the feedback system on first use and adopts cfg's
// settings afterwards.
func (g *Generator) ensureFeedback(cfg *config.Config) {
	if g.fb == nil {
		g.fb = feedback.New(cfg)
		return
	}
	if g.fb.Apply(cfg) {
		g.logger.Info("feedback grid resized; state cleared",
			"resolution", cfg.Feedback.Resolution,
			"width", cfg.Canvas.Width,
			"height", cfg.Canvas.Height)
	}
}

// Reset clears feedback state and metric history.
func (g *Generator) Reset() {
	if g.fb != nil {
		g.fb.Reset()
	}
	g.history.Clear()
}

// Feedback returns the feedback system, or nil before any feedback pass.
func (g *Generator) Feedback() *feedback.System {
	return g.fb
}

// History returns the metric history.
func (g *Generator) History() *telemetry.History {
	return g.history
}

// Perf returns the pass timing collector.
func (g *Generator) Perf() *telemetry.PerfCollector {
	return g.perf
}

// Last returns the most recent result, or nil.
func (g *Generator) Last() *Result {
	return g.last
}

// Passes returns the number of passes run.
func (g *Generator) Passes() int {
	return g.pass
}

// Rand returns the generator's seed source for callers deriving
// configurations, such as Randomize.
func (g *Generator) Rand() *rand.Rand {
	return g.rng
}
