package tracer

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
)

// zone is an exclusion zone with precomputed geometry.
type zone struct {
	shape  config.ZoneShape
	center r2.Vec
	radius float64
	halfW  float64
	halfH  float64
}

func newZones(zs []config.ExclusionZone) []zone {
	out := make([]zone, 0, len(zs))
	for _, z := range zs {
		switch z.Shape.Normalize() {
		case config.ShapeRect:
			out = append(out, zone{
				shape:  config.ShapeRect,
				center: r2.Vec{X: z.X + z.Width/2, Y: z.Y + z.Height/2},
				halfW:  z.Width / 2,
				halfH:  z.Height / 2,
			})
		default:
			out = append(out, zone{
				shape:  config.ShapeCircle,
				center: r2.Vec{X: z.X, Y: z.Y},
				radius: z.Radius,
			})
		}
	}
	return out
}

// within reports whether p lies inside the zone scaled about its centre by factor.
func (z zone) within(p r2.Vec, factor float64) bool {
	d := r2.Sub(p, z.center)
	if z.shape == config.ShapeRect {
		return math.Abs(d.X) < z.halfW*factor && math.Abs(d.Y) < z.halfH*factor
	}
	return r2.Norm(d) < z.radius*factor
}

// insideAny reports whether p is inside any zone.
func insideAny(zs []zone, p r2.Vec) bool {
	for _, z := range zs {
		if z.within(p, 1) {
			return true
		}
	}
	return false
}

// deepInsideAny reports whether p entered the inner safety region of any zone.
func deepInsideAny(zs []zone, p r2.Vec, factor float64) bool {
	for _, z := range zs {
		if z.within(p, factor) {
			return true
		}
	}
	return false
}

// repulsion sums the push away from circular zones whose repulsion radius
// contains p. Magnitude falls off quadratically toward the repulsion edge.
func repulsion(zs []zone, p r2.Vec, radiusMultiplier, strength float64) r2.Vec {
	var total r2.Vec
	for _, z := range zs {
		if z.shape != config.ShapeCircle {
			continue
		}
		reach := z.radius * radiusMultiplier
		d := r2.Sub(p, z.center)
		dist := r2.Norm(d)
		if dist >= reach || dist == 0 {
			continue
		}
		falloff := (reach - dist) / reach
		total = r2.Add(total, r2.Scale(falloff*falloff*strength/dist, d))
	}
	return total
}
