package game

import (
	"github.com/pthm-cable/neuralang/telemetry"
)

// flushTelemetry closes the stats window when due, writes it out and checks
// it for bookmarks.
func (g *Game) flushTelemetry() {
	collector := g.world.Collector()
	if !collector.ShouldFlush(g.world.Tick()) {
		return
	}

	counts := g.world.Counts()
	g.energies = g.world.Energies(g.energies[:0])
	stats := collector.Flush(g.world.Tick(), counts, g.energies)
	perfStats := g.perf.Stats()
	g.lastWindow = stats
	g.lastPerf = perfStats

	g.opts.Metrics.Observe(g.opts.WorldIndex, counts, g.ticksSinceObs)
	g.ticksSinceObs = 0

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		g.logger.Error("failed to write telemetry", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		g.handleBookmark(bm)
	}
}

// onGeneration is called by the world after every reworld.
func (g *Game) onGeneration(gs telemetry.GenerationStats) {
	gs.RunID = g.runID

	if g.opts.LogStats {
		gs.LogStats()
	}
	if err := g.output.WriteGeneration(gs); err != nil {
		g.logger.Error("failed to write generation", "error", err)
	}
	g.opts.Metrics.ObserveGeneration(g.opts.WorldIndex, gs)

	// CheckGeneration compares against the history before gs joins it.
	bookmarks := g.bookmarks.CheckGeneration(gs, &g.history)
	g.history.Add(gs)
	g.recent = append(g.recent, gs)
	if len(g.recent) > recentGenerations {
		g.recent = g.recent[len(g.recent)-recentGenerations:]
	}

	// Bookmarks and snapshots wait until the step has finished.
	g.pending = append(g.pending, bookmarks...)
	if every := g.cfg.Telemetry.SnapshotEvery; every > 0 && g.world.Generation()%every == 0 {
		g.snapshotDue = true
	}
	if err := g.output.WriteHallOfFame(g.world.HallOfFame()); err != nil {
		g.logger.Error("failed to write hall of fame", "error", err)
	}
}

// afterStep handles the bookmarks and snapshots queued during a reworld.
func (g *Game) afterStep() {
	for _, bm := range g.pending {
		g.handleBookmark(bm)
		g.snapshotDue = false // handleBookmark already saved one
	}
	g.pending = g.pending[:0]
	if g.snapshotDue {
		g.saveSnapshot(nil)
		g.snapshotDue = false
	}
}

// handleBookmark logs and records a bookmark, and snapshots the world.
func (g *Game) handleBookmark(bm telemetry.Bookmark) {
	if g.opts.LogStats {
		bm.LogBookmark()
	}
	if err := g.output.WriteBookmark(bm); err != nil {
		g.logger.Error("failed to write bookmark", "error", err)
	}
	g.saveSnapshot(&bm)
}

// saveSnapshot writes the world to SnapshotDir, if set.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	if g.opts.SnapshotDir == "" {
		return
	}
	snap := g.world.Snapshot(g.runID, bookmark)
	path, err := telemetry.SaveSnapshot(snap, g.opts.SnapshotDir)
	if err != nil {
		g.logger.Error("failed to save snapshot", "error", err)
		return
	}
	g.logger.Info("snapshot saved", "path", path, "tick", snap.Tick, "generation", snap.Generation)
}
