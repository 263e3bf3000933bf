package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for a generation pass.
const (
	PhaseField     = "field"
	PhaseTrace     = "trace"
	PhaseMemory    = "memory"
	PhaseReduce    = "reduce"
	PhaseExport    = "export"
	PhaseTelemetry = "telemetry"
)

var phaseOrder = []string{PhaseField, PhaseTrace, PhaseMemory, PhaseReduce, PhaseExport, PhaseTelemetry}

// PerfSample holds timing data for a single pass.
type PerfSample struct {
	PassDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks pass timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	passStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (preview mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector averaging over the
// last windowSize passes.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartPass begins timing a new pass.
func (p *PerfCollector) StartPass() {
	p.passStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase, ending the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndPass finishes timing the current pass, records the sample and returns
// its total duration.
func (p *PerfCollector) EndPass() time.Duration {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		PassDuration: now.Sub(p.passStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
	return sample.PassDuration
}

// AddPhase attributes work done after EndPass, such as writing artifacts,
// to the most recent pass. It extends that pass's duration by d.
func (p *PerfCollector) AddPhase(phase string, d time.Duration) {
	if p.sampleCount == 0 {
		return
	}
	last := (p.writeIndex - 1 + p.windowSize) % p.windowSize
	s := &p.samples[last]
	if s.Phases == nil {
		s.Phases = make(map[string]time.Duration)
	}
	s.Phases[phase] += d
	s.PassDuration += d
}

// RecordFrame records frame timing for the preview.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgPassDuration time.Duration
	MinPassDuration time.Duration
	MaxPassDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total pass time
	PhasePct map[string]float64

	PassesPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minPass, maxPass time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.PassDuration

		if i == 0 || s.PassDuration < minPass {
			minPass = s.PassDuration
		}
		if s.PassDuration > maxPass {
			maxPass = s.PassDuration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgPassDuration: avg,
		MinPassDuration: minPass,
		MaxPassDuration: maxPass,
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		PassesPerSecond: perSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_pass_us", s.AvgPassDuration.Microseconds()),
		slog.Int64("min_pass_us", s.MinPassDuration.Microseconds()),
		slog.Int64("max_pass_us", s.MaxPassDuration.Microseconds()),
		slog.Float64("passes_per_sec", s.PassesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Pass         int     `csv:"pass"`
	AvgPassUS    int64   `csv:"avg_pass_us"`
	MinPassUS    int64   `csv:"min_pass_us"`
	MaxPassUS    int64   `csv:"max_pass_us"`
	PassesPerSec float64 `csv:"passes_per_sec"`
	FieldPct     float64 `csv:"field_pct"`
	TracePct     float64 `csv:"trace_pct"`
	MemoryPct    float64 `csv:"memory_pct"`
	ReducePct    float64 `csv:"reduce_pct"`
	ExportPct    float64 `csv:"export_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(pass int) PerfStatsCSV {
	return PerfStatsCSV{
		Pass:         pass,
		AvgPassUS:    s.AvgPassDuration.Microseconds(),
		MinPassUS:    s.MinPassDuration.Microseconds(),
		MaxPassUS:    s.MaxPassDuration.Microseconds(),
		PassesPerSec: s.PassesPerSecond,
		FieldPct:     s.PhasePct[PhaseField],
		TracePct:     s.PhasePct[PhaseTrace],
		MemoryPct:    s.PhasePct[PhaseMemory],
		ReducePct:    s.PhasePct[PhaseReduce],
		ExportPct:    s.PhasePct[PhaseExport],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
