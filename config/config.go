// Package config provides configuration loading and validation for a generation pass.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every parameter of a generation pass.
// A Config is treated as immutable once handed to a subsystem; callers that
// want a variation copy it with Clone.
type Config struct {
	Canvas   CanvasConfig   `yaml:"canvas"`
	Field    FieldConfig    `yaml:"field"`
	Trace    TraceConfig    `yaml:"trace"`
	Stroke   StrokeConfig   `yaml:"stroke"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Reduce   ReduceConfig   `yaml:"reduce"`
	Palette  PaletteConfig  `yaml:"palette"`
	Export   ExportConfig   `yaml:"export"`
	Auto     AutoConfig     `yaml:"auto"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// CanvasConfig holds drawing surface settings.
type CanvasConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Background string  `yaml:"background"`
}

// FieldConfig holds flow field generation parameters.
type FieldConfig struct {
	NoiseType  NoiseType   `yaml:"noise_type"`
	FieldScale float64     `yaml:"field_scale"` // Noise coordinate increment per cell
	StepSize   float64     `yaml:"step_size"`   // Cell size and particle step length
	Seed       *int64      `yaml:"seed,omitempty"`
	Blend      BlendConfig `yaml:"blend"`
}

// BlendConfig controls the optional second noise layer.
type BlendConfig struct {
	Enabled         bool      `yaml:"enabled"`
	NoiseType       NoiseType `yaml:"noise_type"`
	FieldScale      float64   `yaml:"field_scale"`
	BaseWeight      float64   `yaml:"base_weight"`
	SecondaryWeight float64   `yaml:"secondary_weight"`
	SeedOffset      int64     `yaml:"seed_offset"` // Secondary layer seed = seed + offset
}

// TraceConfig holds particle integration parameters.
type TraceConfig struct {
	NumPaths                  int             `yaml:"num_paths"`
	Resolution                int             `yaml:"resolution"`     // Max steps per particle
	StartAttempts             int             `yaml:"start_attempts"` // Start samples before a particle is dropped
	DeepExclusionFactor       float64         `yaml:"deep_exclusion_factor"`
	RepulsionRadiusMultiplier float64         `yaml:"repulsion_radius_multiplier"`
	RepulsionStrength         float64         `yaml:"repulsion_strength"`
	ExclusionZones            []ExclusionZone `yaml:"exclusion_zones"`
}

// ExclusionZone is a circle (X, Y centre, Radius) or a rectangle
// (X, Y top-left corner, Width, Height).
type ExclusionZone struct {
	Shape  ZoneShape `yaml:"shape"`
	X      float64   `yaml:"x"`
	Y      float64   `yaml:"y"`
	Radius float64   `yaml:"radius,omitempty"`
	Width  float64   `yaml:"width,omitempty"`
	Height float64   `yaml:"height,omitempty"`
}

// StrokeConfig holds per-point stroke attribute settings.
type StrokeConfig struct {
	Weight           float64    `yaml:"weight"`
	Mode             StrokeMode `yaml:"mode"`
	WeightMultiplier float64    `yaml:"weight_multiplier"`
}

// FeedbackConfig holds adaptive feedback parameters.
type FeedbackConfig struct {
	Enabled    bool `yaml:"enabled"`
	Resolution int  `yaml:"resolution"` // Grid cells per dimension

	// Homeostasis
	DensityAdaptation bool    `yaml:"density_adaptation"`
	AdaptationRate    float64 `yaml:"adaptation_rate"`
	DensityDecay      float64 `yaml:"density_decay"`
	DensityNormalize  float64 `yaml:"density_normalize"` // Density divisor for the [0,1] reading
	DensityIntensity  float64 `yaml:"density_intensity"` // Deposit per traced step

	// Stigmergy
	PheromoneTrails    bool    `yaml:"pheromone_trails"`
	PheromoneIntensity float64 `yaml:"pheromone_intensity"` // Deposit per traced step
	PheromoneDecay     float64 `yaml:"pheromone_decay"`
	PheromoneInfluence float64 `yaml:"pheromone_influence"`

	// Emergent attractors
	EmergentAttractors bool    `yaml:"emergent_attractors"`
	AttractorThreshold float64 `yaml:"attractor_threshold"`
	AttractorDecay     float64 `yaml:"attractor_decay"`
	AttractorFloor     float64 `yaml:"attractor_floor"`
	AttractorRadius    float64 `yaml:"attractor_radius"`
	AttractorDamping   float64 `yaml:"attractor_damping"`
	CandidateCurvature float64 `yaml:"candidate_curvature"` // Curvature above which a step becomes a candidate
	MinDwell           int     `yaml:"min_dwell"`
	MaxCandidateAge    int     `yaml:"max_candidate_age"`
	MaxCandidates      int     `yaml:"max_candidates"`

	// Temporal memory
	TemporalMemory bool    `yaml:"temporal_memory"`
	MemoryLayers   int     `yaml:"memory_layers"`
	MemoryDecay    float64 `yaml:"memory_decay"`
	MemoryWeight   float64 `yaml:"memory_weight"`
}

// ReduceConfig holds output geometry reduction settings.
type ReduceConfig struct {
	RDP                bool    `yaml:"rdp"`
	RDPTolerance       float64 `yaml:"rdp_tolerance"`
	MergeCollinear     bool    `yaml:"merge_collinear"`
	CollinearThreshold float64 `yaml:"collinear_threshold"`
	Decimals           int     `yaml:"decimals"`
}

// PaletteConfig selects stroke colours.
type PaletteConfig struct {
	Name      string `yaml:"name"`
	IncludeBW bool   `yaml:"include_bw"`
	Invert    bool   `yaml:"invert"`
}

// ExportConfig controls exporter output.
type ExportConfig struct {
	ColorMode    ColorMode `yaml:"color_mode"`
	IncludePaths bool      `yaml:"include_paths"` // Embed path coordinates in JSON
}

// AutoConfig controls timed auto-generation and the parameter ranges it draws from.
type AutoConfig struct {
	Interval     time.Duration `yaml:"interval"`
	FieldScale   Range         `yaml:"field_scale"`
	Resolution   Range         `yaml:"resolution"`
	NumPaths     Range         `yaml:"num_paths"`
	StepSize     Range         `yaml:"step_size"`
	StrokeWeight Range         `yaml:"stroke_weight"`
}

// Range is a half-open [Min, Max) interval.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Columns  int      // floor(width / step_size)
	Rows     int      // floor(height / step_size)
	Warnings []string // Deterministic fallbacks applied while deriving
}

// Default returns a config built from the embedded defaults only.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges the given YAML document over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports configuration misuse. Fallback-able settings (palette,
// noise family, stroke and colour modes) are not errors.
func (c *Config) Validate() error {
	if !(c.Canvas.Width > 0) || !(c.Canvas.Height > 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidCanvas, c.Canvas.Width, c.Canvas.Height)
	}
	if !(c.Field.StepSize > 0) || math.IsInf(c.Field.StepSize, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidStepSize, c.Field.StepSize)
	}
	if c.Field.StepSize > c.Canvas.Width || c.Field.StepSize > c.Canvas.Height {
		return fmt.Errorf("%w: step %v exceeds canvas", ErrInvalidStepSize, c.Field.StepSize)
	}
	if c.Trace.NumPaths < 0 || c.Trace.Resolution < 0 {
		return fmt.Errorf("%w: num_paths=%d resolution=%d", ErrInvalidTrace, c.Trace.NumPaths, c.Trace.Resolution)
	}
	if c.Trace.StartAttempts < 1 {
		return fmt.Errorf("%w: start_attempts=%d", ErrInvalidTrace, c.Trace.StartAttempts)
	}
	for i, z := range c.Trace.ExclusionZones {
		if err := z.validate(); err != nil {
			return fmt.Errorf("exclusion zone %d: %w", i, err)
		}
	}
	if c.Feedback.Resolution < 3 {
		return fmt.Errorf("%w: resolution=%d (need at least 3)", ErrInvalidFeedback, c.Feedback.Resolution)
	}
	if c.Feedback.MemoryLayers < 0 || c.Feedback.MaxCandidates < 0 {
		return fmt.Errorf("%w: negative capacity", ErrInvalidFeedback)
	}
	for _, r := range []float64{c.Feedback.DensityDecay, c.Feedback.PheromoneDecay, c.Feedback.AttractorDecay} {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: decay %v outside [0,1]", ErrInvalidFeedback, r)
		}
	}
	if c.Reduce.Decimals < 0 || c.Reduce.RDPTolerance < 0 || c.Reduce.CollinearThreshold < 0 {
		return fmt.Errorf("%w: decimals=%d tolerance=%v threshold=%v",
			ErrInvalidReduce, c.Reduce.Decimals, c.Reduce.RDPTolerance, c.Reduce.CollinearThreshold)
	}
	return nil
}

func (z ExclusionZone) validate() error {
	switch z.Shape.Normalize() {
	case ShapeCircle:
		if !(z.Radius > 0) {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidZone, z.Radius)
		}
	case ShapeRect:
		if !(z.Width > 0) || !(z.Height > 0) {
			return fmt.Errorf("%w: rect %vx%v", ErrInvalidZone, z.Width, z.Height)
		}
	default:
		return fmt.Errorf("%w: unknown shape %q", ErrInvalidZone, z.Shape)
	}
	return nil
}

// computeDerived calculates values derived from loaded config and applies
// deterministic fallbacks for unknown enumerations.
func (c *Config) computeDerived() {
	c.Derived.Columns = int(math.Floor(c.Canvas.Width / c.Field.StepSize))
	c.Derived.Rows = int(math.Floor(c.Canvas.Height / c.Field.StepSize))
	c.Derived.Warnings = nil

	if nt, ok := c.Field.NoiseType.Normalize(); ok {
		c.Field.NoiseType = nt
	} else {
		c.warn("unknown noise_type %q, using %s", c.Field.NoiseType, nt)
		c.Field.NoiseType = nt
	}
	if nt, ok := c.Field.Blend.NoiseType.Normalize(); ok {
		c.Field.Blend.NoiseType = nt
	} else {
		// Secondary layer falls back to the primary family.
		c.warn("unknown blend noise_type %q, using %s", c.Field.Blend.NoiseType, c.Field.NoiseType)
		c.Field.Blend.NoiseType = c.Field.NoiseType
	}
	if m, ok := c.Stroke.Mode.Normalize(); ok {
		c.Stroke.Mode = m
	} else {
		c.warn("unknown stroke mode %q, using %s", c.Stroke.Mode, m)
		c.Stroke.Mode = m
	}
	if m, ok := c.Export.ColorMode.Normalize(); ok {
		c.Export.ColorMode = m
	} else {
		c.warn("unknown color_mode %q, using %s", c.Export.ColorMode, m)
		c.Export.ColorMode = m
	}
	for i := range c.Trace.ExclusionZones {
		c.Trace.ExclusionZones[i].Shape = c.Trace.ExclusionZones[i].Shape.Normalize()
	}
}

func (c *Config) warn(format string, args ...any) {
	c.Derived.Warnings = append(c.Derived.Warnings, fmt.Sprintf(format, args...))
}

// Refresh re-validates a modified copy and recomputes derived values.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Clone returns a deep copy safe to modify.
func (c *Config) Clone() *Config {
	out := *c
	if c.Field.Seed != nil {
		s := *c.Field.Seed
		out.Field.Seed = &s
	}
	out.Trace.ExclusionZones = append([]ExclusionZone(nil), c.Trace.ExclusionZones...)
	out.Derived.Warnings = append([]string(nil), c.Derived.Warnings...)
	return &out
}

// WithSeed returns a copy with the seed fixed to s.
func (c *Config) WithSeed(s int64) *Config {
	out := c.Clone()
	out.Field.Seed = &s
	return out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// NoiseType names a noise family.
type NoiseType string

const (
	NoisePerlin  NoiseType = "perlin"
	NoiseSimplex NoiseType = "simplex"
)

// Normalize maps aliases onto the canonical names. Unknown names resolve to
// NoisePerlin with ok=false.
func (n NoiseType) Normalize() (NoiseType, bool) {
	switch strings.ToLower(strings.TrimSpace(string(n))) {
	case "perlin", "smooth", "":
		return NoisePerlin, true
	case "simplex", "opensimplex", "gradient":
		return NoiseSimplex, true
	}
	return NoisePerlin, false
}

// StrokeMode selects how per-point stroke attributes vary.
type StrokeMode string

const (
	StrokeNone           StrokeMode = "none"
	StrokeCurvature      StrokeMode = "curvature"
	StrokeTaper          StrokeMode = "taper"
	StrokeAlphaCurvature StrokeMode = "alpha-curvature"
	StrokeAlphaTaper     StrokeMode = "alpha-taper"
)

// Normalize validates the mode. Unknown modes resolve to StrokeNone with ok=false.
func (m StrokeMode) Normalize() (StrokeMode, bool) {
	s := StrokeMode(strings.ToLower(strings.TrimSpace(string(m))))
	switch s {
	case StrokeNone, StrokeCurvature, StrokeTaper, StrokeAlphaCurvature, StrokeAlphaTaper:
		return s, true
	case "":
		return StrokeNone, true
	}
	return StrokeNone, false
}

// ColorMode selects SVG colour grouping.
type ColorMode string

const (
	ColorMonochrome ColorMode = "monochrome"
	ColorPalette    ColorMode = "palette"
	ColorPerPath    ColorMode = "per-path"
)

// Normalize validates the mode. Unknown modes resolve to ColorPalette with ok=false.
func (m ColorMode) Normalize() (ColorMode, bool) {
	s := ColorMode(strings.ToLower(strings.TrimSpace(string(m))))
	switch s {
	case ColorMonochrome, ColorPalette, ColorPerPath:
		return s, true
	case "":
		return ColorPalette, true
	}
	return ColorPalette, false
}

// ZoneShape names an exclusion zone geometry.
type ZoneShape string

const (
	ShapeCircle ZoneShape = "circle"
	ShapeRect   ZoneShape = "rect"
)

// Normalize maps aliases onto the canonical shapes. Unknown shapes are
// returned unchanged and rejected by Validate.
func (s ZoneShape) Normalize() ZoneShape {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "circle", "":
		return ShapeCircle
	case "rect", "rectangle":
		return ShapeRect
	}
	return s
}
