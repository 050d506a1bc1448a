// Command optimize tunes the energy and food economy with CMA-ES, searching
// for parameters that keep generations alive longest.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/neuralang/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	MeanLength     float64 `csv:"mean_length"`
	Generations    int     `csv:"generations"`
	ExtinctionRate float64 `csv:"extinction_rate"`
	Economy
}

// evalLog appends EvalRecords to a CSV file, writing the header once.
type evalLog struct {
	f             *os.File
	headerWritten bool
}

func (l *evalLog) write(rec EvalRecord) error {
	rows := []EvalRecord{rec}
	var err error
	if l.headerWritten {
		err = gocsv.MarshalWithoutHeaders(rows, l.f)
	} else {
		err = gocsv.Marshal(rows, l.f)
		l.headerWritten = err == nil
	}
	return err
}

// cancelRecorder stops the optimizer once ctx is done.
type cancelRecorder struct {
	ctx context.Context
}

func (r cancelRecorder) Init() error { return nil }

func (r cancelRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// formatDuration formats a duration as 1h02m03s, dropping hours when zero.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 200000, "Ticks simulated per seed")
	seeds := flag.Int("seeds", 3, "Seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	stepSize := flag.Float64("step-size", 0.3, "Initial CMA-ES step size in normalized space")
	outputDir := flag.String("output", "", "Output directory for results")
	verbose := flag.Bool("v", false, "Log world lifecycle messages")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *outputDir, *maxTicks, *seeds, *maxEvals, *population, *stepSize); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, maxTicks, seeds, maxEvals, population int, stepSize float64) error {
	if outputDir == "" {
		return errors.New("-output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(configPath); err != nil {
		return err
	}
	base := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(base, maxTicks, evalSeeds)

	logFile, err := os.Create(filepath.Join(outputDir, "optimize_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	evals := &evalLog{f: logFile}

	var (
		evalCount   int
		bestFitness = 0.0
		best        = EconomyFromConfig(base)
		start       = time.Now()
	)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			e := Denormalize(x)
			fitness := evaluator.Evaluate(ctx, e)
			ev := evaluator.Last()
			evalCount++
			if fitness < bestFitness {
				bestFitness, best = fitness, e
			}

			rec := EvalRecord{
				Eval:           evalCount,
				Fitness:        fitness,
				MeanLength:     ev.MeanLength,
				Generations:    ev.Generations,
				ExtinctionRate: ev.ExtinctionRate,
				Economy:        e,
			}
			if err := evals.write(rec); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			elapsed := time.Since(start)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: mean_length=%.0f generations=%d extinctions=%.2f (best=%.0f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, ev.MeanLength, ev.Generations, ev.ExtinctionRate, -bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	popSize := population
	if popSize == 0 {
		popSize = 4 + 3*Dim()/2
	}
	method := &optimize.CmaEsChol{
		InitStepSize: stepSize,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Recorder:        cancelRecorder{ctx: ctx},
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d\n", Dim(), popSize, maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per seed: %d\n", seeds, maxTicks)

	if _, err := optimize.Minimize(problem, EconomyFromConfig(base).Normalize(), settings, method); err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	fmt.Printf("\nOptimization finished after %d evaluations in %s\n", evalCount, formatDuration(time.Since(start)))
	fmt.Printf("Best mean generation length: %.0f\n", -bestFitness)

	bestCfg := best.Apply(base)
	configOut := filepath.Join(outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOut); err != nil {
		return err
	}
	fmt.Printf("Best config saved to: %s\n", configOut)

	if hof := evaluator.BestHallOfFame(); hof != nil && hof.Size() > 0 {
		data, err := json.MarshalIndent(hof, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling hall of fame: %w", err)
		}
		hofOut := filepath.Join(outputDir, "hall_of_fame.json")
		if err := os.WriteFile(hofOut, data, 0644); err != nil {
			return fmt.Errorf("writing hall of fame: %w", err)
		}
		fmt.Printf("Hall of fame saved to: %s\n", hofOut)
	}
	return nil
}
