package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/game"
	"github.com/pthm-cable/neuralang/telemetry"
)

// extinctionWeight scales how much extinction generations reduce fitness.
const extinctionWeight = 0.5

// FitnessEvaluator runs headless worlds for one parameter set per call.
type FitnessEvaluator struct {
	base     *config.Config
	maxTicks int
	seeds    []int64

	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	last           Evaluation
}

// Evaluation is the outcome of one Evaluate call.
type Evaluation struct {
	Fitness        float64 // lower is better
	MeanLength     float64
	Generations    int
	ExtinctionRate float64
}

// seedResult is the outcome of one world.
type seedResult struct {
	lengths     []float64
	extinctions int
	hallOfFame  *telemetry.HallOfFame
}

// NewFitnessEvaluator creates an evaluator that runs each seed for maxTicks.
func NewFitnessEvaluator(base *config.Config, maxTicks int, seeds []int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		base:        base,
		maxTicks:    maxTicks,
		seeds:       seeds,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame of the best seed of the best
// evaluation so far.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// Last returns the most recent evaluation.
func (fe *FitnessEvaluator) Last() Evaluation {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate runs every seed with e applied and returns the negated mean
// generation length, reduced by the share of extinctions. Parameter sets
// that fail validation or whose worlds fail score 0.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, e Economy) float64 {
	cfg := e.Apply(fe.base)
	if err := cfg.Validate(); err != nil {
		return fe.record(Evaluation{}, nil)
	}

	results := make([]seedResult, len(fe.seeds))
	eg, ctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSeed(ctx, cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fe.record(Evaluation{}, nil)
	}

	ev, hof := score(results)
	return fe.record(ev, hof)
}

// score folds the seed results into one evaluation and picks the hall of
// fame of the seed with the longest mean generation.
func score(results []seedResult) (Evaluation, *telemetry.HallOfFame) {
	var (
		all         []float64
		extinctions int
		bestMean    = -1.0
		bestHoF     *telemetry.HallOfFame
	)
	for _, r := range results {
		all = append(all, r.lengths...)
		extinctions += r.extinctions
		if m := mean(r.lengths); m > bestMean {
			bestMean, bestHoF = m, r.hallOfFame
		}
	}

	ev := Evaluation{MeanLength: mean(all), Generations: len(all)}
	if ev.Generations > 0 {
		ev.ExtinctionRate = float64(extinctions) / float64(ev.Generations)
	}
	ev.Fitness = -ev.MeanLength * (1 - extinctionWeight*ev.ExtinctionRate)
	return ev, bestHoF
}

func (fe *FitnessEvaluator) record(ev Evaluation, hof *telemetry.HallOfFame) float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.last = ev
	if ev.Fitness < fe.bestFitness {
		fe.bestFitness = ev.Fitness
		fe.bestHallOfFame = hof
	}
	return ev.Fitness
}

// runSeed runs one world to maxTicks. The generation still running at the
// end is counted with its current age once it outlasts the mean.
func (fe *FitnessEvaluator) runSeed(ctx context.Context, cfg *config.Config, seed int64) (seedResult, error) {
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		StepsPerUpdate: 100,
		MaxTicks:       fe.maxTicks,
	})
	if err != nil {
		return seedResult{}, err
	}
	defer g.Unload()

	if err := g.Run(ctx); err != nil {
		return seedResult{}, err
	}

	h := g.Generations()
	r := seedResult{
		lengths:     h.Lengths(),
		extinctions: h.Extinctions(),
		hallOfFame:  g.World().HallOfFame(),
	}
	if age := float64(g.World().Age()); age > 0 && (len(r.lengths) == 0 || age > mean(r.lengths)) {
		r.lengths = append(r.lengths, age)
	}
	return r, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
