package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a world step.
type Phase uint8

// Step phases, in the order a tick runs them.
const (
	PhaseMove Phase = iota
	PhaseCollide
	PhaseCells
	PhaseOutputs
	PhaseLifecycle
	PhaseReworld
	PhaseTelemetry
	NumPhases
)

var phaseNames = [NumPhases]string{
	"move", "collide", "cells", "outputs", "lifecycle", "reworld", "telemetry",
}

func (p Phase) String() string {
	if p < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// noPhase marks that no phase is being timed.
const noPhase = NumPhases

// PerfCollector times step phases over a ring of recent ticks. It is owned by
// one world and is not safe for concurrent use.
type PerfCollector struct {
	ticks  []time.Duration
	phases [][NumPhases]time.Duration
	next   int
	filled int

	tickStart  time.Time
	phaseStart time.Time
	current    Phase
	acc        [NumPhases]time.Duration

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over the last window ticks.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		ticks:   make([]time.Duration, window),
		phases:  make([][NumPhases]time.Duration, window),
		current: noPhase,
	}
}

// StartTick begins timing a tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.acc = [NumPhases]time.Duration{}
	p.current = noPhase
}

// StartPhase closes the running phase, if any, and starts timing ph.
// Re-entering a phase adds to its total, so substeps accumulate.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.current = ph
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current < NumPhases {
		p.acc[p.current] += now.Sub(p.phaseStart)
	}
}

// EndTick closes the running phase and stores the tick in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current = noPhase

	p.ticks[p.next] = now.Sub(p.tickStart)
	p.phases[p.next] = p.acc
	p.next = (p.next + 1) % len(p.ticks)
	p.filled = min(p.filled+1, len(p.ticks))
}

// RecordFrame marks the end of a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the collector's window.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64 // share of the average tick, 0-100

	TicksPerSecond float64

	FrameDuration time.Duration // graphical mode only
	FPS           float64
}

// Stats summarises the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	n := p.filled
	if n == 0 {
		return s
	}

	sorted := make([]float64, n)
	var total time.Duration
	var phaseTotal [NumPhases]time.Duration
	for i := 0; i < n; i++ {
		total += p.ticks[i]
		sorted[i] = float64(p.ticks[i])
		for ph, d := range p.phases[i] {
			phaseTotal[ph] += d
		}
	}
	slices.Sort(sorted)

	s.AvgTickDuration = total / time.Duration(n)
	s.MinTickDuration = time.Duration(sorted[0])
	s.MaxTickDuration = time.Duration(sorted[n-1])
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, sorted, nil))

	for ph := range phaseTotal {
		s.PhaseAvg[ph] = phaseTotal[ph] / time.Duration(n)
		if s.AvgTickDuration > 0 {
			s.PhasePct[ph] = 100 * float64(s.PhaseAvg[ph]) / float64(s.AvgTickDuration)
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
	}
	return s
}

// LogStats logs the window summary, skipping phases under 0.1% of a tick.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0.1 {
			attrs = append(attrs, ph.String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < NumPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	MovePct      float64 `csv:"move_pct"`
	CollidePct   float64 `csv:"collide_pct"`
	CellsPct     float64 `csv:"cells_pct"`
	OutputsPct   float64 `csv:"outputs_pct"`
	LifecyclePct float64 `csv:"lifecycle_pct"`
	ReworldPct   float64 `csv:"reworld_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s into a perf.csv row for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		MovePct:      s.PhasePct[PhaseMove],
		CollidePct:   s.PhasePct[PhaseCollide],
		CellsPct:     s.PhasePct[PhaseCells],
		OutputsPct:   s.PhasePct[PhaseOutputs],
		LifecyclePct: s.PhasePct[PhaseLifecycle],
		ReworldPct:   s.PhasePct[PhaseReworld],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
