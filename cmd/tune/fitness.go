package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/feedback"
	"github.com/ToledoEM/field-generation/generator"
)

// FitnessEvaluator runs feedback sessions and scores how close their
// settled metrics are to a target.
type FitnessEvaluator struct {
	params     *ParamVector
	passes     int
	seeds      []int64
	baseConfig *config.Config
	target     float64 // Target complexity in [0,1]

	mu          sync.Mutex
	bestFitness float64
	bestState   *feedback.State
	lastState   feedback.State // mean state from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, passes int, seeds []int64, baseCfg *config.Config, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		passes:      passes,
		seeds:       seeds,
		baseConfig:  baseCfg,
		target:      target,
		bestFitness: math.Inf(1),
	}
}

// BestState returns the final feedback state of the best evaluation.
func (fe *FitnessEvaluator) BestState() *feedback.State {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestState
}

// LastState returns the seed-averaged metrics of the most recent evaluation.
func (fe *FitnessEvaluator) LastState() feedback.State {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastState
}

// Fitness component weights.
const (
	weightComplexity = 1.0
	weightEmergence  = 0.25
	weightCoverage   = 0.5
	weightStability  = 0.25

	// Passes skipped before stability is measured.
	warmupPasses = 2
)

// sessionResult holds the outcome of one seeded session.
type sessionResult struct {
	fitness float64
	final   feedback.State
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Refresh(); err != nil {
		return math.Inf(1)
	}

	// Seeds share no state; run them in parallel.
	results := make([]sessionResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSession(cfg.WithSeed(s), s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var mean feedback.State
	best := math.Inf(1)
	var bestFinal feedback.State
	for _, r := range results {
		total += r.fitness
		mean.Entropy += r.final.Entropy
		mean.Complexity += r.final.Complexity
		mean.Emergence += r.final.Emergence
		mean.AttractorCount += r.final.AttractorCount
		if r.fitness < best {
			best, bestFinal = r.fitness, r.final
		}
	}
	n := float64(len(results))
	avg := total / n
	mean.Entropy /= n
	mean.Complexity /= n
	mean.Emergence /= n
	mean.AttractorCount /= len(results)

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestState = &bestFinal
	}
	fe.lastState = mean
	fe.mu.Unlock()

	return avg
}

// runSession runs fe.passes feedback passes with one generator so state
// accumulates the way it does in auto mode.
func (fe *FitnessEvaluator) runSession(cfg *config.Config, seed int64) sessionResult {
	gen := generator.New(generator.Options{
		Seed:   seed,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	complexities := make([]float64, 0, fe.passes)
	var last *generator.Result
	var requested, paths int
	for i := 0; i < fe.passes; i++ {
		res, err := gen.Generate(cfg)
		if err != nil {
			return sessionResult{fitness: math.Inf(1)}
		}
		last = res
		requested += res.Stats.Requested
		paths += res.Stats.Paths
		complexities = append(complexities, res.Feedback.Complexity)
	}
	if last == nil || last.Feedback == nil {
		return sessionResult{fitness: math.Inf(1)}
	}

	coverage := 0.0
	if requested > 0 {
		coverage = float64(paths) / float64(requested)
	}
	return sessionResult{
		fitness: fe.computeFitness(*last.Feedback, coverage, complexities),
		final:   *last.Feedback,
	}
}

// computeFitness scores a session's final state.
// Squared distance to the target complexity dominates; low emergence,
// discarded particles and pass-to-pass swings add penalties.
func (fe *FitnessEvaluator) computeFitness(final feedback.State, coverage float64, complexities []float64) float64 {
	dc := final.Complexity - fe.target
	score := weightComplexity * dc * dc
	score += weightEmergence * (1 - clamp01(final.Emergence))
	score += weightCoverage * (1 - clamp01(coverage))
	if len(complexities) > warmupPasses+1 {
		_, std := stat.PopMeanStdDev(complexities[warmupPasses:], nil)
		score += weightStability * std
	}
	return score
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
