package telemetry

import (
	"testing"

	"github.com/ToledoEM/field-generation/feedback"
)

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	if h.Len() != 0 || len(h.Samples()) != 0 {
		t.Fatal("new history should be empty")
	}

	for i := 1; i <= 5; i++ {
		h.Record(feedback.Metrics{Entropy: float64(i)})
	}

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	got := h.Series(func(m feedback.Metrics) float64 { return m.Entropy })
	want := []float64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("series[%d] = %v, want %v (oldest first)", i, got[i], want[i])
		}
	}

	h.Clear()
	if h.Len() != 0 {
		t.Error("clear should drop samples")
	}
	h.Record(feedback.Metrics{Complexity: 0.25})
	if s := h.Samples(); len(s) != 1 || s[0].Complexity != 0.25 {
		t.Errorf("unexpected samples after clear: %+v", s)
	}
}

func TestHistoryDefaultSize(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 100; i++ {
		h.Record(feedback.Metrics{})
	}
	if h.Len() != HistorySize {
		t.Errorf("len = %d, want %d", h.Len(), HistorySize)
	}
}
