package field

import (
	"math"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/ToledoEM/field-generation/config"
)

// Sampler is a seeded continuous 2D noise function with output in [0,1].
type Sampler interface {
	Sample(x, y float64) float64
}

// Family is the closed set of noise families a field can be built from.
type Family uint8

const (
	SmoothNoise Family = iota
	GradientNoise
)

// FamilyFor maps a configured noise type onto a family.
// Unknown types resolve to SmoothNoise with ok=false.
func FamilyFor(t config.NoiseType) (Family, bool) {
	nt, ok := t.Normalize()
	if nt == config.NoiseSimplex {
		return GradientNoise, ok
	}
	return SmoothNoise, ok
}

func (f Family) String() string {
	switch f {
	case GradientNoise:
		return "gradient"
	default:
		return "smooth"
	}
}

// NewSampler builds the family's sampler for seed.
func (f Family) NewSampler(seed int64) Sampler {
	if f == GradientNoise {
		return NewSimplexNoise(seed)
	}
	return NewPerlinNoise(seed)
}

// Octave settings for the smooth family.
const (
	smoothOctaves = 4
	smoothFalloff = 0.5
)

// PerlinNoise generates coherent noise values.
type PerlinNoise struct {
	perm [512]int
}

// NewPerlinNoise creates a new Perlin noise generator.
func NewPerlinNoise(seed int64) *PerlinNoise {
	p := &PerlinNoise{}
	rng := rand.New(rand.NewSource(seed))

	// Initialize permutation table
	var perm [256]int
	for i := range perm {
		perm[i] = i
	}

	// Shuffle
	for i := len(perm) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}

	// Duplicate
	for i := 0; i < 256; i++ {
		p.perm[i] = perm[i]
		p.perm[i+256] = perm[i]
	}

	return p
}

// Sample returns octave-summed noise at (x, y) normalized to [0,1].
func (p *PerlinNoise) Sample(x, y float64) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for o := 0; o < smoothOctaves; o++ {
		sum += amp * p.Noise2D(x*freq, y*freq)
		norm += amp
		amp *= smoothFalloff
		freq *= 2
	}
	return clamp01((sum/norm + 1) * 0.5)
}

// Noise2D returns a noise value in roughly [-1,1] for 2D coordinates.
func (p *PerlinNoise) Noise2D(x, y float64) float64 {
	// Find unit square
	X := int(math.Floor(x)) & 255
	Y := int(math.Floor(y)) & 255

	// Find relative position in square
	x -= math.Floor(x)
	y -= math.Floor(y)

	u := fade(x)
	v := fade(y)

	A := p.perm[X] + Y
	B := p.perm[X+1] + Y

	return lerp(v,
		lerp(u, grad2D(p.perm[A], x, y), grad2D(p.perm[B], x-1, y)),
		lerp(u, grad2D(p.perm[A+1], x, y-1), grad2D(p.perm[B+1], x-1, y-1)))
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

// grad2D picks one of eight gradient directions from the hash.
func grad2D(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}

// SimplexNoise wraps OpenSimplex noise.
type SimplexNoise struct {
	noise opensimplex.Noise
}

// NewSimplexNoise creates an OpenSimplex sampler for seed.
func NewSimplexNoise(seed int64) *SimplexNoise {
	return &SimplexNoise{noise: opensimplex.New(seed)}
}

// Sample maps OpenSimplex output from [-1,1] onto [0,1].
func (g *SimplexNoise) Sample(x, y float64) float64 {
	return clamp01((g.noise.Eval2(x, y) + 1) * 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
