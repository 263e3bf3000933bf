package geometry

import (
	"math"

	"github.com/ToledoEM/field-generation/config"
)

// SimplifyRDP reduces p with the Ramer-Douglas-Peucker algorithm. A point is
// kept when its distance from the chord between the current anchors exceeds
// tolerance. The endpoints are always kept and repeated application with the
// same tolerance returns the same path.
func SimplifyRDP(p Path, tolerance float64) Path {
	if len(p) <= 2 {
		return append(Path(nil), p...)
	}

	sqTol := tolerance * tolerance
	keep := make([]bool, len(p))
	keep[0], keep[len(p)-1] = true, true

	// Explicit stack of anchor pairs.
	type span struct{ first, last int }
	stack := []span{{0, len(p) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxSq, index := sqTol, -1
		for i := s.first + 1; i < s.last; i++ {
			if d := sqSegmentDistance(p[i], p[s.first], p[s.last]); d > maxSq {
				maxSq, index = d, i
			}
		}
		if index < 0 {
			continue
		}
		keep[index] = true
		if index-s.first > 1 {
			stack = append(stack, span{s.first, index})
		}
		if s.last-index > 1 {
			stack = append(stack, span{index, s.last})
		}
	}

	out := make(Path, 0, len(p))
	for i, k := range keep {
		if k {
			out = append(out, p[i])
		}
	}
	return out
}

// sqSegmentDistance returns the squared distance from p to segment ab.
func sqSegmentDistance(p, a, b Point) float64 {
	x, y := a.X, a.Y
	dx, dy := b.X-x, b.Y-y
	if dx != 0 || dy != 0 {
		t := ((p.X-x)*dx + (p.Y-y)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x, y = b.X, b.Y
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}
	dx, dy = p.X-x, p.Y-y
	return dx*dx + dy*dy
}

// MergeCollinear drops interior points whose distance from the line through
// the previous kept point and the next input point is at most threshold.
// Endpoints are always kept.
func MergeCollinear(p Path, threshold float64) Path {
	if len(p) <= 2 {
		return append(Path(nil), p...)
	}

	out := make(Path, 1, len(p))
	out[0] = p[0]
	for i := 1; i < len(p)-1; i++ {
		a, b, c := out[len(out)-1], p[i], p[i+1]
		cross := math.Abs((b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y))
		chord := math.Hypot(c.X-a.X, c.Y-a.Y)

		var dist float64
		if chord > 0 {
			dist = cross / chord
		}
		if dist > threshold {
			out = append(out, b)
		}
	}
	return append(out, p[len(p)-1])
}

// RoundCoordinates returns a copy of p with both axes rounded to decimals
// places. Stroke attributes are carried through unchanged.
func RoundCoordinates(p Path, decimals int) Path {
	factor := math.Pow(10, float64(decimals))
	out := make(Path, len(p))
	for i, pt := range p {
		pt.X = math.Round(pt.X*factor) / factor
		pt.Y = math.Round(pt.Y*factor) / factor
		out[i] = pt
	}
	return out
}

// Optimize applies the enabled reductions in fixed order: RDP, collinear
// merge, then rounding. The input is never modified.
func Optimize(p Path, cfg config.ReduceConfig) Path {
	out := p
	if cfg.RDP {
		out = SimplifyRDP(out, cfg.RDPTolerance)
	}
	if cfg.MergeCollinear {
		out = MergeCollinear(out, cfg.CollinearThreshold)
	}
	return RoundCoordinates(out, cfg.Decimals)
}

// OptimizeAll applies Optimize to every path.
func OptimizeAll(paths []Path, cfg config.ReduceConfig) []Path {
	out := make([]Path, len(paths))
	for i, p := range paths {
		out[i] = Optimize(p, cfg)
	}
	return out
}

// PointCount returns the total number of points across paths.
func PointCount(paths []Path) int {
	var n int
	for _, p := range paths {
		n += len(p)
	}
	return n
}
