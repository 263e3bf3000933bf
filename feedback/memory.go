package feedback

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// FieldSnapshot is a prior flow field kept as a memory layer.
// *field.Grid satisfies it.
type FieldSnapshot interface {
	SampleAt(x, y float64) r2.Vec
}

// StoreField pushes a memory layer, most recent first, dropping the oldest
// beyond the configured cap.
func (s *System) StoreField(f FieldSnapshot) {
	if !s.cfg.Enabled || !s.cfg.TemporalMemory || s.cfg.MemoryLayers == 0 || f == nil {
		return
	}
	s.memory = append([]FieldSnapshot{f}, s.memory...)
	if len(s.memory) > s.cfg.MemoryLayers {
		s.memory = s.memory[:s.cfg.MemoryLayers]
	}
}

// memoryForce is the decay^age weighted sum of stored field vectors at (x, y).
// Positions off the canvas contribute nothing.
func (s *System) memoryForce(x, y float64) r2.Vec {
	var total r2.Vec
	if !s.inCanvas(x, y) {
		return total
	}
	for age, layer := range s.memory {
		w := math.Pow(s.cfg.MemoryDecay, float64(age))
		total = r2.Add(total, r2.Scale(w, layer.SampleAt(x, y)))
	}
	return total
}
