// Package geometry holds polyline types and the order-fixed reductions that
// turn traced paths into plotter-ready geometry.
package geometry

import "gonum.org/v1/gonum/spatial/r2"

// Point is one vertex of a traced path with its stroke attributes.
type Point struct {
	X, Y         float64
	Step         int     // Integration step that produced the point
	StrokeWeight float64 // Rendered line width at this point
	Alpha        float64 // Opacity in [0,1]
}

// Vec returns the point position as a vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Path is an ordered polyline. Paths are produced once per pass and treated
// as immutable afterwards; every reduction returns a new slice.
type Path []Point

// UniformStroke reports whether every point shares the first point's stroke
// weight and alpha.
func (p Path) UniformStroke() bool {
	for i := 1; i < len(p); i++ {
		if p[i].StrokeWeight != p[0].StrokeWeight || p[i].Alpha != p[0].Alpha {
			return false
		}
	}
	return true
}

// Length returns the polyline length.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += r2.Norm(r2.Sub(p[i].Vec(), p[i-1].Vec()))
	}
	return total
}
