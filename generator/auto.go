package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/ToledoEM/field-generation/config"
)

// Randomize returns a copy of cfg with field scale, resolution, path count,
// step size and stroke weight drawn from cfg.Auto's ranges. The seed is
// cleared so each pass draws a fresh one.
func Randomize(cfg *config.Config, rng *rand.Rand) (*config.Config, error) {
	out := cfg.Clone()
	a := cfg.Auto

	out.Field.FieldScale = uniform(rng, a.FieldScale)
	out.Trace.Resolution = uniformInt(rng, a.Resolution)
	out.Trace.NumPaths = uniformInt(rng, a.NumPaths)
	out.Field.StepSize = uniform(rng, a.StepSize)
	out.Stroke.Weight = uniform(rng, a.StrokeWeight)
	out.Field.Seed = nil

	if err := out.Refresh(); err != nil {
		return nil, fmt.Errorf("randomized config: %w", err)
	}
	return out, nil
}

// uniform draws from [Min, Max), or returns Min for an empty range.
func uniform(rng *rand.Rand, r config.Range) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func uniformInt(rng *rand.Rand, r config.Range) int {
	lo, hi := int(r.Min), int(r.Max)
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo)
}

// Runner runs timed passes on a fixed period.
type Runner struct {
	Gen  *Generator
	Base *config.Config

	// Interval between passes; defaults to Base.Auto.Interval.
	Interval time.Duration
	// MaxPasses stops the runner after this many passes (0 = unlimited).
	MaxPasses int
	// Vary draws a fresh configuration from Base for every pass. When false
	// Base is used as is.
	Vary bool
	// OnPass is called after every pass. A non-nil error stops the runner.
	OnPass func(*Result) error
}

// Run blocks until ctx is cancelled, MaxPasses passes have run, or a pass
// fails. A pass in progress is always completed before returning. It
// returns the number of passes run.
func (r *Runner) Run(ctx context.Context) (int, error) {
	interval := r.Interval
	if interval <= 0 {
		interval = r.Base.Auto.Interval
	}
	if interval <= 0 {
		return 0, fmt.Errorf("auto: non-positive interval %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	passes := 0
	for {
		if ctx.Err() != nil {
			return passes, nil
		}
		select {
		case <-ctx.Done():
			return passes, nil
		case <-ticker.C:
		}

		cfg := r.Base
		if r.Vary {
			var err error
			cfg, err = Randomize(r.Base, r.Gen.Rand())
			if err != nil {
				return passes, err
			}
		}
		res, err := r.Gen.Generate(cfg)
		if err != nil {
			return passes, err
		}
		passes++
		if r.OnPass != nil {
			if err := r.OnPass(res); err != nil {
				return passes, err
			}
		}
		if r.MaxPasses > 0 && passes >= r.MaxPasses {
			return passes, nil
		}
	}
}
