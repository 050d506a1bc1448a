package telemetry

// LifetimeStats tracks per-being statistics over its lifetime.
type LifetimeStats struct {
	BirthTick     int32
	SurvivalTicks int32
	Generation    int

	FoodsEaten        int
	FleshEaten        int
	ObstructsBuilt    int
	SpeechletsEmitted int
	SpeechletsHeard   int

	PeakEnergy float32
}

// LifetimeTracker manages per-being lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new being.
func (lt *LifetimeTracker) Register(beingID uint32, birthTick int32, generation int) {
	lt.stats[beingID] = &LifetimeStats{
		BirthTick:  birthTick,
		Generation: generation,
	}
}

// Set replaces a being's stats, e.g. when restoring a snapshot.
func (lt *LifetimeTracker) Set(beingID uint32, stats *LifetimeStats) {
	lt.stats[beingID] = stats
}

// Get returns the lifetime stats for a being, or nil if not found.
func (lt *LifetimeTracker) Get(beingID uint32) *LifetimeStats {
	return lt.stats[beingID]
}

// Remove removes a being's stats and returns them.
func (lt *LifetimeTracker) Remove(beingID uint32) *LifetimeStats {
	stats := lt.stats[beingID]
	delete(lt.stats, beingID)
	return stats
}

// Reset drops every tracked being. IDs restart on reworld.
func (lt *LifetimeTracker) Reset() {
	clear(lt.stats)
}

// RecordFood increments the eaten counters.
func (lt *LifetimeTracker) RecordFood(beingID uint32, flesh bool) {
	if s := lt.stats[beingID]; s != nil {
		s.FoodsEaten++
		if flesh {
			s.FleshEaten++
		}
	}
}

// RecordObstruct increments the built counter.
func (lt *LifetimeTracker) RecordObstruct(beingID uint32) {
	if s := lt.stats[beingID]; s != nil {
		s.ObstructsBuilt++
	}
}

// RecordSpoken increments the emitted speechlet counter.
func (lt *LifetimeTracker) RecordSpoken(beingID uint32) {
	if s := lt.stats[beingID]; s != nil {
		s.SpeechletsEmitted++
	}
}

// RecordHeard increments the heard speechlet counter.
func (lt *LifetimeTracker) RecordHeard(beingID uint32) {
	if s := lt.stats[beingID]; s != nil {
		s.SpeechletsHeard++
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(beingID uint32, energy float32) {
	if s := lt.stats[beingID]; s != nil {
		if energy > s.PeakEnergy {
			s.PeakEnergy = energy
		}
	}
}

// UpdateSurvival updates the survival time based on the current tick.
func (lt *LifetimeTracker) UpdateSurvival(beingID uint32, currentTick int32) {
	if s := lt.stats[beingID]; s != nil {
		s.SurvivalTicks = currentTick - s.BirthTick
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[uint32]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked beings.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
