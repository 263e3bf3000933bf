package feedback

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// scalarGrid is a fixed-resolution grid of non-negative values laid over the
// canvas. Lookups outside the canvas are no-ops.
type scalarGrid struct {
	Res    int
	worldW float64
	worldH float64
	Cells  []float64
}

func newScalarGrid(res int, worldW, worldH float64) *scalarGrid {
	return &scalarGrid{
		Res:    res,
		worldW: worldW,
		worldH: worldH,
		Cells:  make([]float64, res*res),
	}
}

// cellIndex maps world coordinates to a cell index.
func (g *scalarGrid) cellIndex(x, y float64) (int, bool) {
	fx := math.Floor(x / g.worldW * float64(g.Res))
	fy := math.Floor(y / g.worldH * float64(g.Res))
	// Negated comparisons also reject NaN.
	if !(fx >= 0 && fx < float64(g.Res) && fy >= 0 && fy < float64(g.Res)) {
		return 0, false
	}
	return int(fx) + int(fy)*g.Res, true
}

// Add accumulates amount into the cell containing (x, y).
func (g *scalarGrid) Add(x, y, amount float64) {
	if idx, ok := g.cellIndex(x, y); ok {
		g.Cells[idx] += amount
	}
}

// At returns the raw value at (x, y), or 0 outside the canvas.
func (g *scalarGrid) At(x, y float64) float64 {
	if idx, ok := g.cellIndex(x, y); ok {
		return g.Cells[idx]
	}
	return 0
}

// Decay scales every cell by rate.
func (g *scalarGrid) Decay(rate float64) {
	floats.Scale(rate, g.Cells)
}

// Total returns the sum of all cells.
func (g *scalarGrid) Total() float64 {
	return floats.Sum(g.Cells)
}

// Clear zeroes the grid in place.
func (g *scalarGrid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = 0
	}
}

// Spacing returns the world size of one cell along each axis.
func (g *scalarGrid) Spacing() (dx, dy float64) {
	return g.worldW / float64(g.Res), g.worldH / float64(g.Res)
}
