// Package telemetry provides world health tracking, bookmarking, and snapshots.
package telemetry

// Counts holds entity counts sampled at the end of a window.
type Counts struct {
	Beings      int
	Foods       int
	FleshFoods  int
	Obstructs   int
	Speechlets  int
	Generation  int
	FoodCeiling int
}

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	tickRate            float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	deaths            int
	foodsEaten        int
	fleshEaten        int
	obstructsBuilt    int
	speechletsEmitted int
	speechletsHeard   int
	oobHits           int
	collisions        int
	reworlds          int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window lasts
// tickRate: nominal ticks per second (used for tick-to-time conversion)
func NewCollector(windowTicks int32, tickRate float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	if tickRate <= 0 {
		tickRate = 60
	}
	return &Collector{
		windowDurationTicks: windowTicks,
		tickRate:            tickRate,
	}
}

// RecordDeath records a being starving.
func (c *Collector) RecordDeath() { c.deaths++ }

// RecordFoodEaten records a food being eaten.
func (c *Collector) RecordFoodEaten(flesh bool) {
	c.foodsEaten++
	if flesh {
		c.fleshEaten++
	}
}

// RecordObstructBuilt records a being building an obstruct.
func (c *Collector) RecordObstructBuilt() { c.obstructsBuilt++ }

// RecordSpeechletEmitted records a being speaking.
func (c *Collector) RecordSpeechletEmitted() { c.speechletsEmitted++ }

// RecordSpeechletHeard records a being hearing a speechlet for the first time.
func (c *Collector) RecordSpeechletHeard() { c.speechletsHeard++ }

// RecordOOB records a being bumping into the world border.
func (c *Collector) RecordOOB() { c.oobHits++ }

// RecordCollision records a being-being overlap.
func (c *Collector) RecordCollision() { c.collisions++ }

// RecordReworld records a generation turnover.
func (c *Collector) RecordReworld() { c.reworlds++ }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// energies are the energy values of living beings, used for the distribution.
func (c *Collector) Flush(currentTick int32, counts Counts, energies []float64) WindowStats {
	mean, std, p10, p50, p90 := ComputeEnergyStats(energies)

	var heardPerSpoken float64
	if c.speechletsEmitted > 0 {
		heardPerSpoken = float64(c.speechletsHeard) / float64(c.speechletsEmitted)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) / c.tickRate,

		Generation:  counts.Generation,
		Beings:      counts.Beings,
		Foods:       counts.Foods,
		FleshFoods:  counts.FleshFoods,
		Obstructs:   counts.Obstructs,
		Speechlets:  counts.Speechlets,
		FoodCeiling: counts.FoodCeiling,

		Deaths:            c.deaths,
		FoodsEaten:        c.foodsEaten,
		FleshEaten:        c.fleshEaten,
		ObstructsBuilt:    c.obstructsBuilt,
		SpeechletsEmitted: c.speechletsEmitted,
		SpeechletsHeard:   c.speechletsHeard,
		HeardPerSpoken:    heardPerSpoken,
		OOBHits:           c.oobHits,
		Collisions:        c.collisions,
		Reworlds:          c.reworlds,

		EnergyMean: mean,
		EnergyStd:  std,
		EnergyP10:  p10,
		EnergyP50:  p50,
		EnergyP90:  p90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.deaths = 0
	c.foodsEaten = 0
	c.fleshEaten = 0
	c.obstructsBuilt = 0
	c.speechletsEmitted = 0
	c.speechletsHeard = 0
	c.oobHits = 0
	c.collisions = 0
	c.reworlds = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
