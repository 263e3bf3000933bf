package tracer

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/geometry"
)

// Stroke mode constants.
const (
	curvatureWindow   = 3   // Samples averaged for curvature modes
	curvatureGain     = 0.3 // Weight gain per unit curvature, times the multiplier
	maxWeightFactor   = 2.0 // Curvature weight cap relative to base
	taperFloor        = 0.2 // Final weight fraction for taper
	alphaCurvatureMin = 0.3
	alphaTaperFloor   = 0.1
)

// turn returns the angle between two unit directions normalized by π, in [0,1].
func turn(a, b r2.Vec) float64 {
	dot := r2.Dot(a, b)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return math.Acos(dot) / math.Pi
}

// curvatures returns the turn at each point: zero for the first two points,
// then the turn between the two segments ending at the point.
func curvatures(pts geometry.Path) []float64 {
	out := make([]float64, len(pts))
	for i := 2; i < len(pts); i++ {
		a := r2.Sub(pts[i-1].Vec(), pts[i-2].Vec())
		b := r2.Sub(pts[i].Vec(), pts[i-1].Vec())
		na, nb := r2.Norm(a), r2.Norm(b)
		if na == 0 || nb == 0 {
			continue
		}
		out[i] = turn(r2.Scale(1/na, a), r2.Scale(1/nb, b))
	}
	return out
}

// meanWindow averages curv over the window ending at i.
func meanWindow(curv []float64, i int) float64 {
	start := i - curvatureWindow + 1
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, c := range curv[start : i+1] {
		sum += c
	}
	return sum / float64(i-start+1)
}

// applyStroke assigns per-point stroke weight and alpha in place.
func applyStroke(pts geometry.Path, cfg config.StrokeConfig) {
	base := cfg.Weight
	n := len(pts)
	mode, _ := cfg.Mode.Normalize()

	var curv []float64
	if mode == config.StrokeCurvature || mode == config.StrokeAlphaCurvature {
		curv = curvatures(pts)
	}

	for i := range pts {
		// Position along the path in [0,1].
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}

		w, a := base, 1.0
		switch mode {
		case config.StrokeCurvature:
			m := meanWindow(curv, i)
			w = math.Min(base*maxWeightFactor, base+m*cfg.WeightMultiplier*curvatureGain)
		case config.StrokeTaper:
			w = base * (1 - (1-taperFloor)*t)
		case config.StrokeAlphaCurvature:
			m := meanWindow(curv, i)
			a = math.Max(alphaCurvatureMin, 1-m*cfg.WeightMultiplier)
		case config.StrokeAlphaTaper:
			a = 1 - (1-alphaTaperFloor)*t
		}
		pts[i].StrokeWeight = w
		pts[i].Alpha = math.Min(1, a)
	}
}
