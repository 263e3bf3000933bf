package feedback

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metrics summarize the density grid.
type Metrics struct {
	Entropy    float64 // Shannon entropy of the density distribution, in [0, log2(cells)]
	Complexity float64 // 1 at half the maximum entropy, 0 at either extreme
	Emergence  float64 // Local complexity relative to global complexity
}

// Peak density threshold and count reported by State.
const (
	peakThreshold = 0.5
	maxPeaks      = 10
)

// Peak is a density cell above the peak threshold, in canvas coordinates.
type Peak struct {
	X, Y    float64
	Density float64
}

// State is a read-only snapshot of the subsystem for dashboards and telemetry.
type State struct {
	Metrics
	DensityPeaks   []Peak
	AttractorCount int
	CandidateCount int
	TotalPheromone float64
	MemoryLayers   int
	Ticks          int
}

// LogValue implements slog.LogValuer for structured logging.
func (st State) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("entropy", st.Entropy),
		slog.Float64("complexity", st.Complexity),
		slog.Float64("emergence", st.Emergence),
		slog.Int("peaks", len(st.DensityPeaks)),
		slog.Int("attractors", st.AttractorCount),
		slog.Int("candidates", st.CandidateCount),
		slog.Float64("pheromone", st.TotalPheromone),
		slog.Int("memory_layers", st.MemoryLayers),
		slog.Int("ticks", st.Ticks),
	)
}

// State returns a snapshot of metrics and bookkeeping counters.
func (s *System) State() State {
	return State{
		Metrics:        s.metrics,
		DensityPeaks:   s.densityPeaks(),
		AttractorCount: len(s.attractors),
		CandidateCount: len(s.candidates),
		TotalPheromone: s.pheromone.Total(),
		MemoryLayers:   len(s.memory),
		Ticks:          s.ticks,
	}
}

// densityPeaks returns up to maxPeaks cells above the threshold in grid order.
func (s *System) densityPeaks() []Peak {
	var peaks []Peak
	res := s.density.Res
	for i, d := range s.density.Cells {
		if d <= peakThreshold {
			continue
		}
		peaks = append(peaks, Peak{
			X:       float64(i%res) / float64(res) * s.worldW,
			Y:       float64(i/res) / float64(res) * s.worldH,
			Density: d,
		})
		if len(peaks) == maxPeaks {
			break
		}
	}
	return peaks
}

// computeMetrics derives entropy, complexity and emergence from a res×res grid.
func computeMetrics(cells []float64, res int) Metrics {
	maxEntropy := math.Log2(float64(len(cells)))

	var entropy float64
	if total := floats.Sum(cells); total > 0 {
		for _, d := range cells {
			if d <= 0 {
				continue
			}
			p := d / total
			entropy -= p * math.Log2(p+Epsilon)
		}
	}
	entropy = clamp(entropy, 0, maxEntropy)

	var complexity float64
	if maxEntropy > 0 {
		complexity = clamp(1-math.Abs(entropy/maxEntropy-0.5)*2, 0, 1)
	}

	local := localComplexity(cells, res)
	return Metrics{
		Entropy:    entropy,
		Complexity: complexity,
		Emergence:  local / math.Max(Epsilon, complexity),
	}
}

// localComplexity is the mean absolute deviation of each interior cell from
// the average of its four neighbours.
func localComplexity(cells []float64, res int) float64 {
	if res < 3 {
		return 0
	}
	var sum float64
	for y := 1; y < res-1; y++ {
		for x := 1; x < res-1; x++ {
			center := cells[x+y*res]
			avg := (cells[(x-1)+y*res] + cells[(x+1)+y*res] +
				cells[x+(y-1)*res] + cells[x+(y+1)*res]) / 4
			sum += math.Abs(center - avg)
		}
	}
	inner := float64((res - 2) * (res - 2))
	return sum / inner
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
