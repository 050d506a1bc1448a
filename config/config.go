// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Being      BeingConfig      `yaml:"being"`
	Food       FoodConfig       `yaml:"food"`
	Obstruct   ObstructConfig   `yaml:"obstruct"`
	Speechlet  SpeechletConfig  `yaml:"speechlet"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Neural     NeuralConfig     `yaml:"neural"`
	Evolution  EvolutionConfig  `yaml:"evolution"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`
	HallOfFame HallOfFameConfig `yaml:"hall_of_fame"`
	Metrics    MetricsConfig    `yaml:"metrics"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	PanelW    int `yaml:"panel_width"` // Control panel width to the right of the world view
}

// WorldConfig holds the square world and its partition.
type WorldConfig struct {
	Size  int `yaml:"size"`  // Side length in pixels
	Cells int `yaml:"cells"` // Grid cells per side; Size must be divisible by Cells
}

// BeingConfig holds agent parameters.
type BeingConfig struct {
	StartCount    int     `yaml:"start_count"`
	Radius        float64 `yaml:"radius"`
	FOVCells      int     `yaml:"fov_cells"` // Field of view radius in grid cells
	Speed         float64 `yaml:"speed"`
	GenomeLen     int     `yaml:"genome_len"`
	StartEnergy   float64 `yaml:"start_energy"`
	DeathEnergy   float64 `yaml:"death_energy"`   // Total flesh energy scattered on death
	ScatterRadius float64 `yaml:"scatter_radius"` // Flesh scatter radius; also divides DeathEnergy
	ScatterCount  int     `yaml:"scatter_count"`

	TireRate     float64 `yaml:"tire_rate"`      // Energy lost every tick
	MoveTireRate float64 `yaml:"move_tire_rate"` // Energy per unit of speed moved
	RotTireRate  float64 `yaml:"rot_tire_rate"`  // Energy per pi radians turned

	HeadonDamage float64 `yaml:"headon_damage"`
	RearDamage   float64 `yaml:"rear_damage"`

	SpawnObstructRatio  float64 `yaml:"spawn_obstruct_ratio"`  // Fraction of start energy
	SpawnSpeechletRatio float64 `yaml:"spawn_speechlet_ratio"` // Fraction of start energy
	OOBPenalty          float64 `yaml:"oob_penalty"`
	LowEnergyDamp       float64 `yaml:"low_energy_damp"`
}

// FoodConfig holds food parameters.
type FoodConfig struct {
	Radius       float64 `yaml:"radius"`
	Value        float64 `yaml:"value"`
	RotRate      float64 `yaml:"rot_rate"`
	SpawnPerStep int     `yaml:"spawn_per_step"`
}

// ObstructConfig holds wall parameters.
type ObstructConfig struct {
	Radius        float64 `yaml:"radius"`
	StartHealth   float64 `yaml:"start_health"`
	AgeRate       float64 `yaml:"age_rate"`
	MinHealth     float64 `yaml:"min_health"` // Removed below this
	HeadonDamage  float64 `yaml:"headon_damage"`
	SpawnDistance float64 `yaml:"spawn_distance"` // Distance in front of the builder
}

// SpeechletConfig holds sound blob parameters.
type SpeechletConfig struct {
	Radius     float64 `yaml:"radius"`
	Grow       float64 `yaml:"grow"`
	StartAge   float64 `yaml:"start_age"`
	SoftenRate float64 `yaml:"soften_rate"`
}

// PhysicsConfig holds stepping and contact parameters.
type PhysicsConfig struct {
	Substeps    int     `yaml:"substeps"`
	TickRate    float64 `yaml:"tick_rate"`    // Nominal ticks per second, used for stats windows
	PushDivisor float64 `yaml:"push_divisor"` // Overlap push is divided by this
	OOBMargin   float64 `yaml:"oob_margin"`
	OOBRetreat  float64 `yaml:"oob_retreat"` // Distance backed off after hitting the border
}

// NeuralConfig holds model shape parameters.
type NeuralConfig struct {
	EncoderWidth int    `yaml:"encoder_width"`
	Mode         string `yaml:"mode"` // "concat" or "mean"
}

// EvolutionConfig holds reworld parameters.
type EvolutionConfig struct {
	ReworldThreshold int     `yaml:"reworld_threshold"`
	MaxFood          int     `yaml:"max_food"`
	MinFood          int     `yaml:"min_food"`
	MaxFoodReduction int     `yaml:"max_food_reduction"`
	CrossoverWeight  float64 `yaml:"crossover_weight"`
	MutationRate     float64 `yaml:"mutation_rate"`
}

// ParallelConfig holds brain worker pool parameters.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Below this many beings, run single-threaded
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	SnapshotEvery       int     `yaml:"snapshot_every"` // Generations between periodic snapshots (0 = off)
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	SpeechOnset     SpeechOnsetConfig     `yaml:"speech_onset"`
	LongGeneration  LongGenerationConfig  `yaml:"long_generation"`
	PopulationCrash PopulationCrashConfig `yaml:"population_crash"`
}

// SpeechOnsetConfig holds speech onset detection parameters.
type SpeechOnsetConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinHeard   int     `yaml:"min_heard"`
}

// LongGenerationConfig holds long generation detection parameters.
type LongGenerationConfig struct {
	Multiplier     float64 `yaml:"multiplier"`
	MinGenerations int     `yaml:"min_generations"`
}

// PopulationCrashConfig holds population crash detection parameters.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// HallOfFameConfig holds hall of fame settings for extinction reseeding.
type HallOfFameConfig struct {
	Enabled bool                    `yaml:"enabled"`
	Size    int                     `yaml:"size"`
	Fitness HallOfFameFitnessConfig `yaml:"fitness"`
	Entry   HallOfFameEntryConfig   `yaml:"entry"`
}

// HallOfFameFitnessConfig holds fitness calculation weights.
type HallOfFameFitnessConfig struct {
	SurvivalWeight float64 `yaml:"survival_weight"` // Per tick alive
	FoodWeight     float64 `yaml:"food_weight"`
	HeardWeight    float64 `yaml:"heard_weight"`
	SpokenWeight   float64 `yaml:"spoken_weight"`
}

// HallOfFameEntryConfig holds entry criteria thresholds.
type HallOfFameEntryConfig struct {
	MinSurvivalTicks int `yaml:"min_survival_ticks"`
	MinFoods         int `yaml:"min_foods"`
}

// MetricsConfig holds prometheus exporter settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldSize32     float32 // World.Size as float32
	CellSize32      float32 // World.Size / World.Cells
	FOV32           float32 // Being.FOVCells * CellSize32
	BeingRadius32   float32
	FoodRadius32    float32
	ObstructRadius  float32
	SpeechletRadius float32
	StartEnergy32   float32
	Speed32         float32
	SubstepsF       float32 // max(Physics.Substeps, 1)
	StatsTicks      int32   // Telemetry.StatsWindow in ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the invariants the world partition and model shapes rely on.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Size <= 0 || c.World.Cells <= 0 {
		errs = append(errs, fmt.Errorf("world.size (%d) and world.cells (%d) must be positive", c.World.Size, c.World.Cells))
	} else {
		if c.World.Size%c.World.Cells != 0 {
			errs = append(errs, fmt.Errorf("world.size (%d) must be divisible by world.cells (%d)", c.World.Size, c.World.Cells))
		}
		cell := float64(c.World.Size) / float64(c.World.Cells)
		if c.Being.Radius >= cell {
			errs = append(errs, fmt.Errorf("being.radius (%g) must be smaller than the cell size (%g)", c.Being.Radius, cell))
		}
	}
	if c.Being.StartEnergy <= 0 {
		errs = append(errs, errors.New("being.start_energy must be positive"))
	}
	if c.Being.Speed <= 0 {
		errs = append(errs, errors.New("being.speed must be positive"))
	}
	if c.Being.FOVCells <= 0 {
		errs = append(errs, errors.New("being.fov_cells must be positive"))
	}
	if c.Being.GenomeLen < 0 {
		errs = append(errs, errors.New("being.genome_len must not be negative"))
	}
	if c.Food.Value <= 0 || c.Obstruct.StartHealth <= 0 {
		errs = append(errs, errors.New("food.value and obstruct.start_health must be positive"))
	}
	if c.Neural.EncoderWidth <= 0 {
		errs = append(errs, errors.New("neural.encoder_width must be positive"))
	}
	switch c.Neural.Mode {
	case "concat", "mean":
	default:
		errs = append(errs, fmt.Errorf("neural.mode %q must be concat or mean", c.Neural.Mode))
	}
	if c.Evolution.MinFood > c.Evolution.MaxFood {
		errs = append(errs, fmt.Errorf("evolution.min_food (%d) exceeds evolution.max_food (%d)", c.Evolution.MinFood, c.Evolution.MaxFood))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldSize32 = float32(c.World.Size)
	c.Derived.CellSize32 = float32(c.World.Size / c.World.Cells)
	c.Derived.FOV32 = float32(c.Being.FOVCells) * c.Derived.CellSize32
	c.Derived.BeingRadius32 = float32(c.Being.Radius)
	c.Derived.FoodRadius32 = float32(c.Food.Radius)
	c.Derived.ObstructRadius = float32(c.Obstruct.Radius)
	c.Derived.SpeechletRadius = float32(c.Speechlet.Radius)
	c.Derived.StartEnergy32 = float32(c.Being.StartEnergy)
	c.Derived.Speed32 = float32(c.Being.Speed)

	substeps := c.Physics.Substeps
	if substeps < 1 {
		substeps = 1
	}
	c.Derived.SubstepsF = float32(substeps)

	rate := c.Physics.TickRate
	if rate <= 0 {
		rate = 60
	}
	c.Derived.StatsTicks = int32(math.Max(1, math.Round(c.Telemetry.StatsWindow*rate)))
}

// Clone returns a deep copy with derived values recomputed.
func (c *Config) Clone() *Config {
	out := *c
	out.computeDerived()
	return &out
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() {
	c.computeDerived()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
