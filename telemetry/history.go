package telemetry

import "github.com/ToledoEM/field-generation/feedback"

// HistorySize is the default number of metric samples kept.
const HistorySize = 60

// History is a fixed-size ring of feedback metric samples, oldest first.
type History struct {
	samples    []feedback.Metrics
	writeIndex int
	count      int
}

// NewHistory creates a history holding up to size samples.
func NewHistory(size int) *History {
	if size < 1 {
		size = HistorySize
	}
	return &History{samples: make([]feedback.Metrics, size)}
}

// Record appends a sample, overwriting the oldest when full.
func (h *History) Record(m feedback.Metrics) {
	h.samples[h.writeIndex] = m
	h.writeIndex = (h.writeIndex + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

// Len returns the number of samples held.
func (h *History) Len() int {
	return h.count
}

// Samples returns the held samples, oldest first.
func (h *History) Samples() []feedback.Metrics {
	out := make([]feedback.Metrics, 0, h.count)
	start := (h.writeIndex - h.count + len(h.samples)) % len(h.samples)
	for i := 0; i < h.count; i++ {
		out = append(out, h.samples[(start+i)%len(h.samples)])
	}
	return out
}

// Series returns one metric across the held samples, oldest first.
func (h *History) Series(pick func(feedback.Metrics) float64) []float64 {
	samples := h.Samples()
	out := make([]float64, len(samples))
	for i, m := range samples {
		out[i] = pick(m)
	}
	return out
}

// Clear drops all samples.
func (h *History) Clear() {
	h.writeIndex = 0
	h.count = 0
}
