package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCollide)
		time.Sleep(50 * time.Microsecond)
		pc.StartPhase(PhaseOutputs)
		time.Sleep(500 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 || stats.TicksPerSecond <= 0 {
		t.Fatalf("avg tick %v, tps %v, want both positive", stats.AvgTickDuration, stats.TicksPerSecond)
	}
	if stats.PhaseAvg[PhaseCollide] <= 0 || stats.PhaseAvg[PhaseOutputs] <= 0 {
		t.Errorf("phase averages = %v, want collide and outputs timed", stats.PhaseAvg)
	}
	if stats.PhaseAvg[PhaseMove] != 0 {
		t.Errorf("move phase = %v, want 0 when never started", stats.PhaseAvg[PhaseMove])
	}
	if stats.PhasePct[PhaseOutputs] <= stats.PhasePct[PhaseCollide] {
		t.Errorf("outputs %.1f%% should exceed collide %.1f%%", stats.PhasePct[PhaseOutputs], stats.PhasePct[PhaseCollide])
	}
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("want min <= p95 <= max, got %v %v %v", stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollectorSubstepsAccumulate(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	for i := 0; i < 3; i++ {
		pc.StartPhase(PhaseMove)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseCells)
	}
	pc.EndTick()

	stats := pc.Stats()
	if got := stats.PhaseAvg[PhaseMove]; got < 300*time.Microsecond {
		t.Errorf("move total = %v, want at least 300us over three substeps", got)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseCollide)
		pc.EndTick()
	}
	if pc.filled != 3 {
		t.Errorf("filled = %d, want window size 3", pc.filled)
	}
	if pc.next != 10%3 {
		t.Errorf("next = %d, want %d", pc.next, 10%3)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector stats = %+v, want zeros", stats)
	}
}

func TestPerfCollectorFrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("frame duration = %v, want >= 15ms", stats.FrameDuration)
	}
	// Sleep only bounds from below, so only the upper FPS bound is checked.
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("FPS = %v, want in (0, 70]", stats.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		ph   Phase
		want string
	}{
		{PhaseMove, "move"},
		{PhaseReworld, "reworld"},
		{PhaseTelemetry, "telemetry"},
		{NumPhases, "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.ph.String(); got != tc.want {
				t.Errorf("Phase(%d).String() = %q, want %q", tc.ph, got, tc.want)
			}
		})
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	var stats PerfStats
	stats.AvgTickDuration = 1500 * time.Microsecond
	stats.P95TickDuration = 2 * time.Millisecond
	stats.PhasePct[PhaseCollide] = 60
	stats.PhasePct[PhaseOutputs] = 30
	stats.PhasePct[PhaseReworld] = 10

	row := stats.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 1500 || row.P95TickUS != 2000 {
		t.Errorf("row header fields = %d/%d/%d", row.WindowEnd, row.AvgTickUS, row.P95TickUS)
	}
	if row.CollidePct != 60 || row.OutputsPct != 30 || row.ReworldPct != 10 || row.MovePct != 0 {
		t.Errorf("phase columns = %+v", row)
	}
}

func BenchmarkPerfCollectorTick(b *testing.B) {
	pc := NewPerfCollector(600)
	for i := 0; i < b.N; i++ {
		pc.StartTick()
		for ph := Phase(0); ph < NumPhases; ph++ {
			pc.StartPhase(ph)
		}
		pc.EndTick()
	}
}
