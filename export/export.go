// Package export renders traced paths as SVG, CSV and JSON documents.
package export

import (
	"time"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/geometry"
)

// Document is everything an exporter needs to describe one pass.
type Document struct {
	Config  *config.Config
	Seed    int64
	Palette []string
	Paths   []geometry.Path
	Time    time.Time
}

// Parameters is the flat scalar view of a pass configuration. It is embedded
// in SVG metadata and JSON exports and carries enough to reproduce the pass.
type Parameters struct {
	CanvasWidth     float64 `json:"canvas_width"`
	CanvasHeight    float64 `json:"canvas_height"`
	BackgroundColor string  `json:"background_color"`

	NoiseType  string  `json:"noise_type"`
	FieldScale float64 `json:"field_scale"`
	StepSize   float64 `json:"step_size"`
	Seed       int64   `json:"seed"`

	BlendEnabled      bool    `json:"blend_enabled"`
	BlendNoiseType    string  `json:"blend_noise_type,omitempty"`
	BlendFieldScale   float64 `json:"blend_field_scale,omitempty"`
	BlendBaseWeight   float64 `json:"blend_base_weight,omitempty"`
	BlendSecondWeight float64 `json:"blend_secondary_weight,omitempty"`
	BlendSeedOffset   int64   `json:"blend_seed_offset,omitempty"`

	Resolution                int     `json:"resolution"`
	NumPaths                  int     `json:"num_paths"`
	StartAttempts             int     `json:"start_attempts"`
	DeepExclusionFactor       float64 `json:"deep_exclusion_factor"`
	RepulsionRadiusMultiplier float64 `json:"repulsion_radius_multiplier"`
	RepulsionStrength         float64 `json:"repulsion_strength"`
	ExclusionZones            []Zone  `json:"exclusion_zones"`

	StrokeWeight     float64 `json:"stroke_weight"`
	StrokeMode       string  `json:"stroke_mode"`
	StrokeMultiplier float64 `json:"stroke_weight_multiplier"`

	FeedbackEnabled    bool    `json:"feedback_enabled"`
	FeedbackResolution int     `json:"feedback_resolution"`
	DensityAdaptation  bool    `json:"density_adaptation"`
	AdaptationRate     float64 `json:"adaptation_rate"`
	DensityDecay       float64 `json:"density_decay"`
	DensityNormalize   float64 `json:"density_normalize"`
	DensityIntensity   float64 `json:"density_intensity"`
	PheromoneTrails    bool    `json:"pheromone_trails"`
	PheromoneIntensity float64 `json:"pheromone_intensity"`
	PheromoneDecay     float64 `json:"pheromone_decay"`
	PheromoneInfluence float64 `json:"pheromone_influence"`
	EmergentAttractors bool    `json:"emergent_attractors"`
	AttractorThreshold float64 `json:"attractor_threshold"`
	AttractorDecay     float64 `json:"attractor_decay"`
	AttractorFloor     float64 `json:"attractor_floor"`
	AttractorRadius    float64 `json:"attractor_radius"`
	AttractorDamping   float64 `json:"attractor_damping"`
	CandidateCurvature float64 `json:"candidate_curvature"`
	MinDwell           int     `json:"min_dwell"`
	MaxCandidateAge    int     `json:"max_candidate_age"`
	MaxCandidates      int     `json:"max_candidates"`
	TemporalMemory     bool    `json:"temporal_memory"`
	MemoryLayers       int     `json:"memory_layers"`
	MemoryDecay        float64 `json:"memory_decay"`
	MemoryWeight       float64 `json:"memory_weight"`

	RDP             bool    `json:"rdp_simplification"`
	RDPTolerance    float64 `json:"rdp_tolerance"`
	MergeCollinear  bool    `json:"merge_collinear"`
	CollinearThresh float64 `json:"collinear_threshold"`
	Decimals        int     `json:"coordinate_rounding"`

	Palette       string   `json:"palette"`
	PaletteColors []string `json:"palette_colors"`
	IncludeBW     bool     `json:"include_bw"`
	InvertColors  bool     `json:"invert_colors"`
	ColorMode     string   `json:"color_mode"`
}

// Zone is an exclusion zone as exported. Circles use X, Y and Radius;
// rectangles use X, Y (top-left), Width and Height.
type Zone struct {
	Shape  string  `json:"shape"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// NewParameters flattens the document configuration.
func NewParameters(doc Document) Parameters {
	c := doc.Config
	fb := c.Feedback
	p := Parameters{
		CanvasWidth:     c.Canvas.Width,
		CanvasHeight:    c.Canvas.Height,
		BackgroundColor: background(c),

		NoiseType:  string(c.Field.NoiseType),
		FieldScale: c.Field.FieldScale,
		StepSize:   c.Field.StepSize,
		Seed:       doc.Seed,

		BlendEnabled: c.Field.Blend.Enabled,

		Resolution:                c.Trace.Resolution,
		NumPaths:                  c.Trace.NumPaths,
		StartAttempts:             c.Trace.StartAttempts,
		DeepExclusionFactor:       c.Trace.DeepExclusionFactor,
		RepulsionRadiusMultiplier: c.Trace.RepulsionRadiusMultiplier,
		RepulsionStrength:         c.Trace.RepulsionStrength,
		ExclusionZones:            make([]Zone, 0, len(c.Trace.ExclusionZones)),

		StrokeWeight:     c.Stroke.Weight,
		StrokeMode:       string(c.Stroke.Mode),
		StrokeMultiplier: c.Stroke.WeightMultiplier,

		FeedbackEnabled:    fb.Enabled,
		FeedbackResolution: fb.Resolution,
		DensityAdaptation:  fb.DensityAdaptation,
		AdaptationRate:     fb.AdaptationRate,
		DensityDecay:       fb.DensityDecay,
		DensityNormalize:   fb.DensityNormalize,
		DensityIntensity:   fb.DensityIntensity,
		PheromoneTrails:    fb.PheromoneTrails,
		PheromoneIntensity: fb.PheromoneIntensity,
		PheromoneDecay:     fb.PheromoneDecay,
		PheromoneInfluence: fb.PheromoneInfluence,
		EmergentAttractors: fb.EmergentAttractors,
		AttractorThreshold: fb.AttractorThreshold,
		AttractorDecay:     fb.AttractorDecay,
		AttractorFloor:     fb.AttractorFloor,
		AttractorRadius:    fb.AttractorRadius,
		AttractorDamping:   fb.AttractorDamping,
		CandidateCurvature: fb.CandidateCurvature,
		MinDwell:           fb.MinDwell,
		MaxCandidateAge:    fb.MaxCandidateAge,
		MaxCandidates:      fb.MaxCandidates,
		TemporalMemory:     fb.TemporalMemory,
		MemoryLayers:       fb.MemoryLayers,
		MemoryDecay:        fb.MemoryDecay,
		MemoryWeight:       fb.MemoryWeight,

		RDP:             c.Reduce.RDP,
		RDPTolerance:    c.Reduce.RDPTolerance,
		MergeCollinear:  c.Reduce.MergeCollinear,
		CollinearThresh: c.Reduce.CollinearThreshold,
		Decimals:        c.Reduce.Decimals,

		Palette:       c.Palette.Name,
		PaletteColors: doc.Palette,
		IncludeBW:     c.Palette.IncludeBW,
		InvertColors:  c.Palette.Invert,
		ColorMode:     string(c.Export.ColorMode),
	}
	for _, z := range c.Trace.ExclusionZones {
		p.ExclusionZones = append(p.ExclusionZones, Zone{
			Shape:  string(z.Shape.Normalize()),
			X:      z.X,
			Y:      z.Y,
			Radius: z.Radius,
			Width:  z.Width,
			Height: z.Height,
		})
	}
	if c.Field.Blend.Enabled {
		p.BlendNoiseType = string(c.Field.Blend.NoiseType)
		p.BlendFieldScale = c.Field.Blend.FieldScale
		p.BlendBaseWeight = c.Field.Blend.BaseWeight
		p.BlendSecondWeight = c.Field.Blend.SecondaryWeight
		p.BlendSeedOffset = c.Field.Blend.SeedOffset
	}
	return p
}

func background(c *config.Config) string {
	if c.Canvas.Background == "" {
		return "#FFFFFF"
	}
	return c.Canvas.Background
}

// timestamp returns the document time, defaulting to now.
func (d Document) timestamp() time.Time {
	if d.Time.IsZero() {
		return time.Now().UTC()
	}
	return d.Time.UTC()
}
