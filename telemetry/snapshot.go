package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete world state for resuming a run.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	RNGSeed int64  `json:"rng_seed"`

	WorldSize float32 `json:"world_size"`

	Tick        int32  `json:"tick"` // Ticks since the run started
	Age         int32  `json:"age"`  // Ticks since the last reworld
	Generation  int    `json:"generation"`
	FoodCeiling int    `json:"food_ceiling"`
	NextID      uint32 `json:"next_id"`

	Entities      []EntityState    `json:"entities"`
	LastSurvivors []neural.Weights `json:"last_survivors,omitempty"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// EntityState holds one entity's complete state. Fields not used by the
// entity's kind are left zero.
type EntityState struct {
	ID     uint32          `json:"id"`
	Kind   components.Kind `json:"kind"`
	X      float32         `json:"x"`
	Y      float32         `json:"y"`
	Radius float32         `json:"radius"`

	// Being
	Heading float32         `json:"heading,omitempty"`
	Energy  float32         `json:"energy,omitempty"`
	Genome  []float32       `json:"genome,omitempty"`
	Model   *neural.Weights `json:"model,omitempty"`
	Output  []float32       `json:"output,omitempty"`  // Last model outputs, drive the next move
	Pending []float32       `json:"pending,omitempty"` // Uncommitted x, y, rotation, energy

	// Food
	Value float32 `json:"value,omitempty"`
	Flesh bool    `json:"flesh,omitempty"`

	// Obstruct
	Health float32 `json:"health,omitempty"`

	// Speechlet
	Vec   []float32 `json:"vec,omitempty"`
	Age   float32   `json:"age,omitempty"`
	Heard []uint32  `json:"heard,omitempty"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthTick         int32   `json:"birth_tick"`
	SurvivalTicks     int32   `json:"survival_ticks"`
	Generation        int     `json:"generation"`
	FoodsEaten        int     `json:"foods_eaten"`
	FleshEaten        int     `json:"flesh_eaten"`
	ObstructsBuilt    int     `json:"obstructs_built"`
	SpeechletsEmitted int     `json:"speechlets_emitted"`
	SpeechletsHeard   int     `json:"speechlets_heard"`
	PeakEnergy        float32 `json:"peak_energy"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthTick:         ls.BirthTick,
		SurvivalTicks:     ls.SurvivalTicks,
		Generation:        ls.Generation,
		FoodsEaten:        ls.FoodsEaten,
		FleshEaten:        ls.FleshEaten,
		ObstructsBuilt:    ls.ObstructsBuilt,
		SpeechletsEmitted: ls.SpeechletsEmitted,
		SpeechletsHeard:   ls.SpeechletsHeard,
		PeakEnergy:        ls.PeakEnergy,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON() *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		BirthTick:         lsj.BirthTick,
		SurvivalTicks:     lsj.SurvivalTicks,
		Generation:        lsj.Generation,
		FoodsEaten:        lsj.FoodsEaten,
		FleshEaten:        lsj.FleshEaten,
		ObstructsBuilt:    lsj.ObstructsBuilt,
		SpeechletsEmitted: lsj.SpeechletsEmitted,
		SpeechletsHeard:   lsj.SpeechletsHeard,
		PeakEnergy:        lsj.PeakEnergy,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_g%d_%d", snapshot.Generation, snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name += "_" + sanitized
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
