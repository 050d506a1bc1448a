// Package game drives one simulated world: stepping, telemetry, snapshots and
// generation bookkeeping. It has no graphics dependency so it runs headless;
// the viewer package wraps a Game for the raylib window.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/metrics"
	"github.com/pthm-cable/neuralang/telemetry"
	"github.com/pthm-cable/neuralang/world"
)

// recentGenerations is how many generation summaries the viewer history keeps.
const recentGenerations = 64

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 keeps the config value
	SnapshotDir    string
	OutputDir      string
	StepsPerUpdate int
	Substeps       int // 0 keeps physics.substeps
	RestorePath    string
	HallOfFamePath string
	MaxTicks       int
	MaxGenerations int
	WorldIndex     int
	Metrics        *metrics.Recorder
}

// Game owns a world and everything observing it.
type Game struct {
	cfg    *config.Config
	world  *world.World
	opts   Options
	runID  string
	logger *slog.Logger

	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	bookmarks *telemetry.BookmarkDetector
	history   telemetry.GenerationHistory
	recent    []telemetry.GenerationStats

	pending     []telemetry.Bookmark
	snapshotDue bool

	lastWindow     telemetry.WindowStats
	lastPerf       telemetry.PerfStats
	energies       []float64
	stepsPerUpdate int
	substeps       int
	ticksSinceObs  int
	paused         bool
}

// NewGameWithOptions builds a populated world, or one restored from
// opts.RestorePath, and opens the output files.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if opts.StatsWindowSec > 0 && opts.StatsWindowSec != cfg.Telemetry.StatsWindow {
		cfg = cfg.Clone()
		cfg.Telemetry.StatsWindow = opts.StatsWindowSec
		cfg.Recompute()
	}

	g := &Game{
		cfg:            cfg,
		opts:           opts,
		runID:          uuid.NewString(),
		logger:         slog.Default().With("world", opts.WorldIndex),
		perf:           telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:      telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		stepsPerUpdate: max(1, opts.StepsPerUpdate),
		substeps:       opts.Substeps,
	}
	if g.substeps <= 0 {
		g.substeps = cfg.Physics.Substeps
	}

	g.world = world.New(cfg, opts.Seed)
	g.world.SetPerf(g.perf)
	g.world.OnGeneration = g.onGeneration

	if opts.HallOfFamePath != "" {
		hof, err := telemetry.LoadHallOfFameFromFile(opts.HallOfFamePath, rand.New(rand.NewSource(opts.Seed+1)))
		if err != nil {
			g.world.Close()
			return nil, err
		}
		g.world.SetHallOfFame(hof)
		g.logger.Info("hall of fame loaded", "path", opts.HallOfFamePath, "entries", hof.Size())
	}

	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			g.world.Close()
			return nil, err
		}
		if err := g.world.Restore(snap); err != nil {
			g.world.Close()
			return nil, fmt.Errorf("restore %s: %w", opts.RestorePath, err)
		}
		if snap.RunID != "" {
			g.runID = snap.RunID
		}
		g.logger.Info("snapshot restored", "path", opts.RestorePath, "tick", snap.Tick, "generation", snap.Generation)
	} else {
		g.world.Populate()
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.world.Close()
		return nil, err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		g.logger.Error("failed to write config", "error", err)
	}

	g.logger.Info("world ready",
		"run_id", g.runID,
		"seed", opts.Seed,
		"beings", g.world.NumBeings(),
		"food_ceiling", g.world.FoodCeiling(),
	)
	return g, nil
}

// UpdateHeadless runs stepsPerUpdate ticks unless paused.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate && !g.Done(); i++ {
		g.StepOnce()
	}
}

// StepOnce advances the world one tick and runs the telemetry hooks.
func (g *Game) StepOnce() {
	g.perf.StartTick()
	g.world.Step(g.substeps)

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.ticksSinceObs++
	g.afterStep()
	g.flushTelemetry()
	g.perf.EndTick()
}

// Run steps the world until Done or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	for !g.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		g.UpdateHeadless()
	}
	g.logger.Info("run finished", "tick", g.world.Tick(), "generation", g.world.Generation())
	return nil
}

// Done reports whether MaxTicks or MaxGenerations has been reached.
func (g *Game) Done() bool {
	if g.opts.MaxTicks > 0 && int(g.world.Tick()) >= g.opts.MaxTicks {
		return true
	}
	return g.opts.MaxGenerations > 0 && g.world.Generation() >= g.opts.MaxGenerations
}

// Unload writes the final hall of fame and closes the world and outputs.
func (g *Game) Unload() {
	if err := g.output.WriteHallOfFame(g.world.HallOfFame()); err != nil {
		g.logger.Error("failed to write hall of fame", "error", err)
	}
	if err := g.output.Close(); err != nil {
		g.logger.Error("failed to close output", "error", err)
	}
	g.world.Close()
}

// Reworld forces a reworld now.
func (g *Game) Reworld() {
	g.world.Reworld()
	g.afterStep()
}

// World returns the simulated world.
func (g *Game) World() *world.World { return g.world }

// Config returns the config in use.
func (g *Game) Config() *config.Config { return g.cfg }

// Tick returns the current tick.
func (g *Game) Tick() int32 { return g.world.Tick() }

// RunID returns the run identifier stamped into outputs.
func (g *Game) RunID() string { return g.runID }

// Paused reports whether stepping is paused.
func (g *Game) Paused() bool { return g.paused }

// SetPaused pauses or resumes stepping.
func (g *Game) SetPaused(p bool) { g.paused = p }

// StepsPerUpdate returns the ticks run per update.
func (g *Game) StepsPerUpdate() int { return g.stepsPerUpdate }

// SetStepsPerUpdate sets the ticks run per update, at least 1.
func (g *Game) SetStepsPerUpdate(n int) { g.stepsPerUpdate = max(1, n) }

// History returns the most recent generation summaries, oldest first.
func (g *Game) History() []telemetry.GenerationStats { return g.recent }

// Generations returns the run's generation history.
func (g *Game) Generations() *telemetry.GenerationHistory { return &g.history }

// LastWindow returns the most recently flushed window stats.
func (g *Game) LastWindow() telemetry.WindowStats { return g.lastWindow }

// PerfStats returns the per-phase timing averages of the last stats window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.lastPerf }

// RecordFrame records frame timing in graphical mode.
func (g *Game) RecordFrame() { g.perf.RecordFrame() }
