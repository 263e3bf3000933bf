package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ToledoEM/field-generation/feedback"
	"github.com/ToledoEM/field-generation/geometry"
	"github.com/ToledoEM/field-generation/tracer"
)

// PassStats holds aggregated statistics for one generation pass.
type PassStats struct {
	Pass int   `csv:"pass"`
	Seed int64 `csv:"seed"`

	// Field
	Columns int `csv:"columns"`
	Rows    int `csv:"rows"`

	// Tracing
	Requested int `csv:"requested"`
	Paths     int `csv:"paths"`
	Points    int `csv:"points"`
	Dropped   int `csv:"dropped"`   // No valid start
	Discarded int `csv:"discarded"` // Fewer than two points
	Truncated int `csv:"truncated"` // Stopped by an exclusion zone

	// Path length distribution (canvas units, after reduction)
	LengthMean float64 `csv:"length_mean"`
	LengthP10  float64 `csv:"length_p10"`
	LengthP50  float64 `csv:"length_p50"`
	LengthP90  float64 `csv:"length_p90"`

	// Reduction
	RawPoints int     `csv:"raw_points"`
	Reduction float64 `csv:"reduction"` // Fraction of points removed

	// Feedback (zero when disabled)
	Entropy    float64 `csv:"entropy"`
	Complexity float64 `csv:"complexity"`
	Emergence  float64 `csv:"emergence"`
	Attractors int     `csv:"attractors"`
	Candidates int     `csv:"candidates"`

	DurationMS float64 `csv:"duration_ms"`
}

// NewPassStats aggregates one pass. raw holds the traced paths before
// reduction; reduced the paths that are exported.
func NewPassStats(pass int, seed int64, res tracer.Result, raw, reduced []geometry.Path, fb *feedback.State, elapsed time.Duration) PassStats {
	lengths := make([]float64, len(reduced))
	for i, p := range reduced {
		lengths[i] = p.Length()
	}
	mean, p10, p50, p90 := ComputeLengthStats(lengths)

	s := PassStats{
		Pass:       pass,
		Seed:       seed,
		Requested:  res.Requested,
		Paths:      len(reduced),
		Points:     geometry.PointCount(reduced),
		Dropped:    res.Dropped,
		Discarded:  res.Discarded,
		Truncated:  res.Truncated,
		LengthMean: mean,
		LengthP10:  p10,
		LengthP50:  p50,
		LengthP90:  p90,
		RawPoints:  geometry.PointCount(raw),
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	}
	if s.RawPoints > 0 {
		s.Reduction = 1 - float64(s.Points)/float64(s.RawPoints)
	}
	if fb != nil {
		s.Entropy = fb.Entropy
		s.Complexity = fb.Complexity
		s.Emergence = fb.Emergence
		s.Attractors = fb.AttractorCount
		s.Candidates = fb.CandidateCount
	}
	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeLengthStats calculates mean and percentiles from path lengths.
func ComputeLengthStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort for percentiles
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s PassStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pass", s.Pass),
		slog.Int64("seed", s.Seed),
		slog.Int("columns", s.Columns),
		slog.Int("rows", s.Rows),
		slog.Int("requested", s.Requested),
		slog.Int("paths", s.Paths),
		slog.Int("points", s.Points),
		slog.Int("dropped", s.Dropped),
		slog.Int("discarded", s.Discarded),
		slog.Int("truncated", s.Truncated),
		slog.Float64("length_mean", s.LengthMean),
		slog.Float64("length_p50", s.LengthP50),
		slog.Float64("reduction", s.Reduction),
		slog.Float64("entropy", s.Entropy),
		slog.Float64("complexity", s.Complexity),
		slog.Float64("emergence", s.Emergence),
		slog.Int("attractors", s.Attractors),
		slog.Float64("duration_ms", s.DurationMS),
	)
}
