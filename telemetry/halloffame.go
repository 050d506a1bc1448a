package telemetry

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/neural"
)

// HallEntry represents a successful being's model and fitness.
type HallEntry struct {
	Weights    neural.Weights
	Fitness    float32
	BeingID    uint32
	Generation int
	Survival   int32
	Foods      int
	Heard      int
	Spoken     int
}

// HallOfFame stores proven models for reseeding after an extinction.
type HallOfFame struct {
	hall    []HallEntry
	maxSize int
	rng     *rand.Rand
}

// NewHallOfFame creates a new hall of fame with the given capacity.
func NewHallOfFame(maxSize int, rng *rand.Rand) *HallOfFame {
	if maxSize < 1 {
		maxSize = 1
	}
	return &HallOfFame{
		hall:    make([]HallEntry, 0, maxSize),
		maxSize: maxSize,
		rng:     rng,
	}
}

// Consider evaluates a being that died or survived a generation.
// Returns true if the being was added to the hall.
func (hof *HallOfFame) Consider(model *neural.SumFx, stats *LifetimeStats, beingID uint32) bool {
	if model == nil || stats == nil {
		return false
	}
	hofCfg := config.Cfg().HallOfFame

	if !hof.meetsEntryCriteria(stats, hofCfg) {
		return false
	}

	entry := HallEntry{
		Weights:    model.MarshalWeights(),
		Fitness:    hof.calculateFitness(stats, hofCfg),
		BeingID:    beingID,
		Generation: stats.Generation,
		Survival:   stats.SurvivalTicks,
		Foods:      stats.FoodsEaten,
		Heard:      stats.SpeechletsHeard,
		Spoken:     stats.SpeechletsEmitted,
	}
	var added bool
	hof.hall, added = hof.insertEntry(hof.hall, entry)
	return added
}

// meetsEntryCriteria checks if a being qualifies for the hall.
func (hof *HallOfFame) meetsEntryCriteria(stats *LifetimeStats, cfg config.HallOfFameConfig) bool {
	return stats.SurvivalTicks >= int32(cfg.Entry.MinSurvivalTicks) &&
		stats.FoodsEaten >= cfg.Entry.MinFoods
}

// calculateFitness computes the weighted fitness score.
func (hof *HallOfFame) calculateFitness(stats *LifetimeStats, cfg config.HallOfFameConfig) float32 {
	f := cfg.Fitness
	fitness := float64(stats.SurvivalTicks) * f.SurvivalWeight
	fitness += float64(stats.FoodsEaten) * f.FoodWeight
	fitness += float64(stats.SpeechletsHeard) * f.HeardWeight
	fitness += float64(stats.SpeechletsEmitted) * f.SpokenWeight
	return float32(fitness)
}

// insertEntry adds an entry to the hall, maintaining sorted order by fitness.
// If the hall is full, the lowest-fitness entry is removed.
func (hof *HallOfFame) insertEntry(hall []HallEntry, entry HallEntry) ([]HallEntry, bool) {
	// Find insertion point (sorted descending by fitness)
	idx := sort.Search(len(hall), func(i int) bool {
		return hall[i].Fitness < entry.Fitness
	})

	if len(hall) >= hof.maxSize && idx >= hof.maxSize {
		return hall, false
	}

	hall = append(hall, HallEntry{})
	copy(hall[idx+1:], hall[idx:])
	hall[idx] = entry

	if len(hall) > hof.maxSize {
		hall = hall[:hof.maxSize]
	}

	return hall, true
}

// Sample selects a model from the hall using tournament selection.
// Returns nil if the hall is empty.
func (hof *HallOfFame) Sample() *neural.SumFx {
	if len(hof.hall) == 0 {
		return nil
	}

	// Tournament selection with k=3
	const tournamentSize = 3
	var best *HallEntry
	for i := 0; i < tournamentSize; i++ {
		candidate := &hof.hall[hof.rng.Intn(len(hof.hall))]
		if best == nil || candidate.Fitness > best.Fitness {
			best = candidate
		}
	}

	// UnmarshalWeights copies, so the caller may mutate the model freely
	m, err := neural.UnmarshalWeights(best.Weights)
	if err != nil {
		return nil
	}
	return m
}

// SampleN draws n models with replacement. Returns nil if the hall is empty.
func (hof *HallOfFame) SampleN(n int) []*neural.SumFx {
	if len(hof.hall) == 0 {
		return nil
	}
	out := make([]*neural.SumFx, 0, n)
	for len(out) < n {
		m := hof.Sample()
		if m == nil {
			return nil
		}
		out = append(out, m)
	}
	return out
}

// Size returns the number of entries.
func (hof *HallOfFame) Size() int {
	return len(hof.hall)
}

// TopFitness returns the highest fitness in the hall, or 0 if empty.
func (hof *HallOfFame) TopFitness() float32 {
	if len(hof.hall) == 0 {
		return 0
	}
	return hof.hall[0].Fitness
}

// Entries returns the entries in descending fitness order.
func (hof *HallOfFame) Entries() []HallEntry {
	return append([]HallEntry(nil), hof.hall...)
}

// hallEntryJSON is the JSON-serializable representation of a hall entry.
type hallEntryJSON struct {
	BeingID    uint32         `json:"being_id"`
	Generation int            `json:"generation"`
	Fitness    float32        `json:"fitness"`
	Survival   int32          `json:"survival_ticks"`
	Foods      int            `json:"foods"`
	Heard      int            `json:"heard"`
	Spoken     int            `json:"spoken"`
	Weights    neural.Weights `json:"model"`
}

type hallOfFameJSON struct {
	MaxSize int             `json:"max_size"`
	Entries []hallEntryJSON `json:"entries"`
}

// MarshalJSON serializes the hall of fame to JSON.
func (hof *HallOfFame) MarshalJSON() ([]byte, error) {
	export := hallOfFameJSON{
		MaxSize: hof.maxSize,
		Entries: make([]hallEntryJSON, len(hof.hall)),
	}
	for i, entry := range hof.hall {
		export.Entries[i] = hallEntryJSON{
			BeingID:    entry.BeingID,
			Generation: entry.Generation,
			Fitness:    entry.Fitness,
			Survival:   entry.Survival,
			Foods:      entry.Foods,
			Heard:      entry.Heard,
			Spoken:     entry.Spoken,
			Weights:    entry.Weights,
		}
	}
	return json.MarshalIndent(export, "", "  ")
}

// LoadHallOfFameFromFile reads a hall of fame JSON file.
func LoadHallOfFameFromFile(path string, rng *rand.Rand) (*HallOfFame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hall of fame: %w", err)
	}

	var raw hallOfFameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing hall of fame JSON: %w", err)
	}

	maxSize := raw.MaxSize
	if len(raw.Entries) > maxSize {
		maxSize = len(raw.Entries)
	}
	hof := NewHallOfFame(maxSize, rng)

	for i, ej := range raw.Entries {
		if _, err := neural.UnmarshalWeights(ej.Weights); err != nil {
			return nil, fmt.Errorf("hall of fame entry %d: %w", i, err)
		}
		hof.hall, _ = hof.insertEntry(hof.hall, HallEntry{
			Weights:    ej.Weights,
			Fitness:    ej.Fitness,
			BeingID:    ej.BeingID,
			Generation: ej.Generation,
			Survival:   ej.Survival,
			Foods:      ej.Foods,
			Heard:      ej.Heard,
			Spoken:     ej.Spoken,
		})
	}

	return hof, nil
}
