package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/game"
	"github.com/pthm-cable/neuralang/metrics"
	"github.com/pthm-cable/neuralang/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	worlds := flag.Int("worlds", 1, "Independent worlds to run in parallel (headless only)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	maxGenerations := flag.Int("max-generations", 0, "Stop after N generations (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	substeps := flag.Int("substeps", 0, "Physics substeps per tick (0 = use config)")
	metricsAddr := flag.String("metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	restore := flag.String("restore", "", "Snapshot file to resume from")
	hallOfFame := flag.String("hall-of-fame", "", "Hall of fame JSON to seed extinction recovery")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
		Substeps:       *substeps,
		RestorePath:    *restore,
		HallOfFamePath: *hallOfFame,
		MaxTicks:       *maxTicks,
		MaxGenerations: *maxGenerations,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		rec := metrics.NewRecorder(cfg.Metrics.Namespace)
		opts.Metrics = rec
		go func() {
			if err := rec.Serve(ctx, *metricsAddr); err != nil {
				slog.Error("metrics server failed", "addr", *metricsAddr, "error", err)
			}
		}()
	}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"worlds", *worlds,
			"max_ticks", *maxTicks,
			"max_generations", *maxGenerations,
			"steps_per_update", *stepsPerUpdate,
		)
		if err := game.RunWorlds(ctx, *worlds, opts); err != nil && ctx.Err() == nil {
			slog.Error("simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *worlds > 1 {
		slog.Warn("-worlds is ignored in graphical mode", "worlds", *worlds)
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width+cfg.Screen.PanelW), int32(cfg.Screen.Height), "neuralang")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start game", "error", err)
		return
	}
	defer g.Unload()

	v := viewer.New(g)
	for !rl.WindowShouldClose() && !g.Done() && ctx.Err() == nil {
		v.Update()
		v.Draw()
	}
}
