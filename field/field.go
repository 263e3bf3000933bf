// Package field builds flow fields: grids of unit direction vectors derived
// from seeded noise.
package field

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
)

// Turns is the number of full rotations spanned by the noise range.
const Turns = 4

// DefaultSeedOffset decorrelates the secondary blend layer from the primary.
const DefaultSeedOffset = 1000

// maxRandomSeed bounds seeds drawn when none is configured.
const maxRandomSeed = 10000

// fallbackDirection replaces degenerate blended vectors.
var fallbackDirection = r2.Vec{X: 1, Y: 0}

// Grid is a Columns×Rows array of unit vectors, indexed col + row*Columns.
type Grid struct {
	Columns  int
	Rows     int
	StepSize float64
	Seed     int64 // Actual seed used
	Vectors  []r2.Vec
}

// ResolveSeed returns the configured seed, or draws one from rng.
func ResolveSeed(seed *int64, rng *rand.Rand) int64 {
	if seed != nil {
		return *seed
	}
	return rng.Int63n(maxRandomSeed)
}

// Generate builds the flow field for cfg using the given resolved seed.
func Generate(cfg *config.Config, seed int64) *Grid {
	columns := int(math.Floor(cfg.Canvas.Width / cfg.Field.StepSize))
	rows := int(math.Floor(cfg.Canvas.Height / cfg.Field.StepSize))

	primary, _ := FamilyFor(cfg.Field.NoiseType)
	g := &Grid{
		Columns:  columns,
		Rows:     rows,
		StepSize: cfg.Field.StepSize,
		Seed:     seed,
		Vectors:  make([]r2.Vec, columns*rows),
	}
	fill(g, primary.NewSampler(seed), cfg.Field.FieldScale)

	blend := cfg.Field.Blend
	if !blend.Enabled {
		return g
	}

	secondaryFamily, ok := FamilyFor(blend.NoiseType)
	if !ok {
		secondaryFamily = primary
	}
	offset := blend.SeedOffset
	if offset == 0 {
		offset = DefaultSeedOffset
	}
	secondary := &Grid{Columns: columns, Rows: rows, Vectors: make([]r2.Vec, columns*rows)}
	fill(secondary, secondaryFamily.NewSampler(seed+offset), blend.FieldScale)

	for i, v1 := range g.Vectors {
		sum := r2.Add(r2.Scale(blend.BaseWeight, v1), r2.Scale(blend.SecondaryWeight, secondary.Vectors[i]))
		g.Vectors[i] = unitOr(sum, fallbackDirection)
	}
	return g
}

// fill samples noise at (i*scale, j*scale) for each cell.
func fill(g *Grid, noise Sampler, scale float64) {
	for i := 0; i < g.Columns; i++ {
		xoff := float64(i) * scale
		for j := 0; j < g.Rows; j++ {
			angle := noise.Sample(xoff, float64(j)*scale) * 2 * math.Pi * Turns
			g.Vectors[i+j*g.Columns] = r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
		}
	}
}

// unitOr normalizes v, returning fallback for zero or non-finite lengths.
func unitOr(v, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return fallback
	}
	return r2.Scale(1/n, v)
}

// Index returns the vector index for a cell.
func (g *Grid) Index(col, row int) int {
	return col + row*g.Columns
}

// Cell maps continuous coordinates to the nearest cell, clamped to the grid.
func (g *Grid) Cell(x, y float64) (col, row int) {
	col = clampIndex(x/g.StepSize, g.Columns)
	row = clampIndex(y/g.StepSize, g.Rows)
	return col, row
}

// SampleAt returns a copy of the vector for the cell containing (x, y).
// Coordinates outside the grid clamp to the nearest edge cell.
func (g *Grid) SampleAt(x, y float64) r2.Vec {
	if len(g.Vectors) == 0 {
		return fallbackDirection
	}
	col, row := g.Cell(x, y)
	return g.Vectors[g.Index(col, row)]
}

// Snapshot returns a copy of the grid sharing no storage with g.
func (g *Grid) Snapshot() *Grid {
	out := *g
	out.Vectors = append([]r2.Vec(nil), g.Vectors...)
	return &out
}

func clampIndex(v float64, n int) int {
	if n <= 0 {
		return 0
	}
	// NaN compares false everywhere and lands on 0.
	if !(v >= 0) {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(math.Floor(v))
}
