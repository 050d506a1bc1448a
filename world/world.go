// Package world implements the simulated world: beings, foods, obstructs and
// speechlets stored as ark entities, bucketed into per-kind grids, and stepped
// through movement, collision, model outputs, lifecycle and reworlding.
package world

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/systems"
	"github.com/pthm-cable/neuralang/telemetry"
)

// params caches float32 copies of the config values used on hot paths.
type params struct {
	size       float32
	fov        float32
	beingR     float32
	foodR      float32
	obstructR  float32
	speechletR float32
	margin     float32
	retreat    float32
	pushDiv    float32

	startEnergy   float32
	speed         float32
	lowEnergyDamp float32
	tireRate      float32
	moveTire      float32
	rotTire       float32
	headon        float32
	rear          float32
	oobPenalty    float32
	spawnObstruct float32
	spawnSpeech   float32
	deathEnergy   float32
	scatterRadius float32

	foodValue    float32
	rotRate      float32
	startHealth  float32
	ageRate      float32
	minHealth    float32
	wallHeadon   float32
	obstructDist float32
	grow         float32
	startAge     float32
	softenRate   float32
}

func newParams(cfg *config.Config) params {
	d := &cfg.Derived
	return params{
		size:       d.WorldSize32,
		fov:        d.FOV32,
		beingR:     d.BeingRadius32,
		foodR:      d.FoodRadius32,
		obstructR:  d.ObstructRadius,
		speechletR: d.SpeechletRadius,
		margin:     float32(cfg.Physics.OOBMargin),
		retreat:    float32(cfg.Physics.OOBRetreat),
		pushDiv:    float32(cfg.Physics.PushDivisor),

		startEnergy:   d.StartEnergy32,
		speed:         d.Speed32,
		lowEnergyDamp: float32(cfg.Being.LowEnergyDamp),
		tireRate:      float32(cfg.Being.TireRate),
		moveTire:      float32(cfg.Being.MoveTireRate),
		rotTire:       float32(cfg.Being.RotTireRate),
		headon:        float32(cfg.Being.HeadonDamage),
		rear:          float32(cfg.Being.RearDamage),
		oobPenalty:    float32(cfg.Being.OOBPenalty),
		spawnObstruct: float32(cfg.Being.SpawnObstructRatio) * d.StartEnergy32,
		spawnSpeech:   float32(cfg.Being.SpawnSpeechletRatio) * d.StartEnergy32,
		deathEnergy:   float32(cfg.Being.DeathEnergy),
		scatterRadius: float32(cfg.Being.ScatterRadius),

		foodValue:    float32(cfg.Food.Value),
		rotRate:      float32(cfg.Food.RotRate),
		startHealth:  float32(cfg.Obstruct.StartHealth),
		ageRate:      float32(cfg.Obstruct.AgeRate),
		minHealth:    float32(cfg.Obstruct.MinHealth),
		wallHeadon:   float32(cfg.Obstruct.HeadonDamage),
		obstructDist: float32(cfg.Obstruct.SpawnDistance),
		grow:         float32(cfg.Speechlet.Grow),
		startAge:     float32(cfg.Speechlet.StartAge),
		softenRate:   float32(cfg.Speechlet.SoftenRate),
	}
}

// generationCounters accumulates events since the last reworld.
type generationCounters struct {
	startTick         int32
	speechletsEmitted int
	speechletsHeard   int
	obstructsBuilt    int
	foodsEaten        int
}

// World holds the complete simulation state of one world.
type World struct {
	cfg  *config.Config
	p    params
	rng  *rand.Rand
	seed int64

	ecs *ecs.World

	beingMap    *ecs.Map5[components.Position, components.Rotation, components.Body, components.Being, components.Senses]
	beingFilter *ecs.Filter5[components.Position, components.Rotation, components.Body, components.Being, components.Senses]

	foodMap        *ecs.Map3[components.Position, components.Body, components.Food]
	foodFilter     *ecs.Filter3[components.Position, components.Body, components.Food]
	obstructMap    *ecs.Map3[components.Position, components.Body, components.Obstruct]
	obstructFilter *ecs.Filter3[components.Position, components.Body, components.Obstruct]
	speechMap      *ecs.Map3[components.Position, components.Body, components.Speechlet]
	speechFilter   *ecs.Filter3[components.Position, components.Body, components.Speechlet]
	posMap         *ecs.Map[components.Position]

	// One grid per kind
	beingGrid    *systems.Grid
	foodGrid     *systems.Grid
	obstructGrid *systems.Grid
	speechGrid   *systems.Grid
	fov          []systems.Offset
	neighbours   []int

	// Models by being ID
	models   map[uint32]*neural.SumFx
	modelCfg neural.SumFxConfig

	tick          int32 // ticks since the run started
	age           int32 // ticks since the last reworld
	generation    int
	foodCeiling   int
	lastSurvivors []*neural.SumFx
	plantFoods    int

	nextBeingID    uint32
	nextFoodID     uint32
	nextObstructID uint32

	// Death and spawn queues, applied after queries close
	deadBeings    []deadBeing
	deadEntities  []ecs.Entity
	obstructQueue []components.Position
	speechQueue   []queuedSpeechlet

	pool *brainPool

	// Inspector capture
	captureID     uint32
	captureActive bool
	capture       *neural.Activations
	captureSenses [3]int

	// Telemetry
	collector *telemetry.Collector
	lifetime  *telemetry.LifetimeTracker
	hall      *telemetry.HallOfFame
	perf      *telemetry.PerfCollector
	gen       generationCounters

	// OnGeneration is called with the summary of every finished generation.
	OnGeneration func(telemetry.GenerationStats)
}

type deadBeing struct {
	entity ecs.Entity
	id     uint32
	cell   int
	x, y   float32
}

type queuedSpeechlet struct {
	pos components.Position
	vec [neural.SpeechletLen]float32
}

// New creates an empty world. Call Populate for the standard starting state.
func New(cfg *config.Config, seed int64) *World {
	mode, err := neural.ParseMode(cfg.Neural.Mode)
	if err != nil {
		panic(err)
	}

	w := ecs.NewWorld()
	n := cfg.World.Cells
	cell := cfg.Derived.CellSize32

	world := &World{
		cfg:  cfg,
		p:    newParams(cfg),
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
		ecs:  w,

		beingMap:    ecs.NewMap5[components.Position, components.Rotation, components.Body, components.Being, components.Senses](w),
		beingFilter: ecs.NewFilter5[components.Position, components.Rotation, components.Body, components.Being, components.Senses](w),

		foodMap:        ecs.NewMap3[components.Position, components.Body, components.Food](w),
		foodFilter:     ecs.NewFilter3[components.Position, components.Body, components.Food](w),
		obstructMap:    ecs.NewMap3[components.Position, components.Body, components.Obstruct](w),
		obstructFilter: ecs.NewFilter3[components.Position, components.Body, components.Obstruct](w),
		speechMap:      ecs.NewMap3[components.Position, components.Body, components.Speechlet](w),
		speechFilter:   ecs.NewFilter3[components.Position, components.Body, components.Speechlet](w),
		posMap:         ecs.NewMap[components.Position](w),

		beingGrid:    systems.NewGrid(n, cell),
		foodGrid:     systems.NewGrid(n, cell),
		obstructGrid: systems.NewGrid(n, cell),
		speechGrid:   systems.NewGrid(n, cell),
		fov:          systems.FOVOffsets(cfg.Being.FOVCells),

		models:      make(map[uint32]*neural.SumFx),
		modelCfg:    neural.StandardConfig(cfg.Being.GenomeLen, cfg.Neural.EncoderWidth, mode),
		foodCeiling: cfg.Evolution.MaxFood,

		collector: telemetry.NewCollector(cfg.Derived.StatsTicks, cfg.Physics.TickRate),
		lifetime:  telemetry.NewLifetimeTracker(),
	}
	world.pool = newBrainPool(cfg.Parallel.Workers, cfg.Parallel.Threshold)
	if cfg.HallOfFame.Enabled {
		world.hall = telemetry.NewHallOfFame(cfg.HallOfFame.Size, rand.New(rand.NewSource(seed+1)))
	}
	return world
}

// Populate fills the world with start_count beings with fresh models and the
// current food ceiling of plant foods.
func (w *World) Populate() {
	for i := 0; i < w.cfg.Being.StartCount; i++ {
		w.spawnBeing(neural.NewSumFx(w.modelCfg, w.rng))
	}
	w.spawnPlantFoods()
}

// spawnBeing adds a being with the given model at a random position.
func (w *World) spawnBeing(model *neural.SumFx) ecs.Entity {
	r := w.p.beingR
	x := r + w.rng.Float32()*(w.p.size-2*r)
	y := r + w.rng.Float32()*(w.p.size-2*r)
	heading := (w.rng.Float32()*2 - 1) * math.Pi
	return w.AddBeing(x, y, heading, w.p.startEnergy, make([]float32, w.cfg.Being.GenomeLen), model)
}

// spawnPlantFoods adds foodCeiling plant foods in [1, W-1).
func (w *World) spawnPlantFoods() {
	for i := 0; i < w.foodCeiling; i++ {
		x := 1 + w.rng.Float32()*(w.p.size-2)
		y := 1 + w.rng.Float32()*(w.p.size-2)
		w.AddFood(x, y, w.p.foodValue, false)
	}
}

// AddBeing creates a being and registers its model.
func (w *World) AddBeing(x, y, heading, energy float32, genome []float32, model *neural.SumFx) ecs.Entity {
	id := w.nextBeingID
	w.nextBeingID++
	return w.addBeingWithID(id, x, y, heading, energy, genome, model)
}

func (w *World) addBeingWithID(id uint32, x, y, heading, energy float32, genome []float32, model *neural.SumFx) ecs.Entity {
	cell := w.beingGrid.IndexOf(x, y)

	pos := components.Position{X: x, Y: y}
	rot := components.Rotation{Heading: heading}
	body := components.Body{Radius: w.p.beingR}
	being := components.Being{ID: id, Energy: energy, Genome: genome, Cell: cell}
	senses := components.Senses{}

	e := w.beingMap.NewEntity(&pos, &rot, &body, &being, &senses)
	w.beingGrid.Insert(e, cell)
	w.models[id] = model
	w.lifetime.Register(id, w.tick, w.generation)
	return e
}

// AddFood creates a food disc.
func (w *World) AddFood(x, y, value float32, flesh bool) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	body := components.Body{Radius: w.p.foodR}
	food := components.Food{ID: w.nextFoodID, Value: value, Flesh: flesh}
	w.nextFoodID++

	e := w.foodMap.NewEntity(&pos, &body, &food)
	w.foodGrid.Insert(e, w.foodGrid.IndexOf(x, y))
	if !flesh {
		w.plantFoods++
	}
	return e
}

// AddObstruct creates a wall at full health.
func (w *World) AddObstruct(x, y float32) ecs.Entity {
	return w.addObstruct(x, y, w.p.startHealth)
}

func (w *World) addObstruct(x, y, health float32) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	body := components.Body{Radius: w.p.obstructR}
	ob := components.Obstruct{ID: w.nextObstructID, Health: health}
	w.nextObstructID++

	e := w.obstructMap.NewEntity(&pos, &body, &ob)
	w.obstructGrid.Insert(e, w.obstructGrid.IndexOf(x, y))
	return e
}

// AddSpeechlet emits a sound vector at (x, y).
func (w *World) AddSpeechlet(x, y float32, vec [neural.SpeechletLen]float32) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	body := components.Body{Radius: w.p.speechletR}
	s := components.Speechlet{Vec: vec, Age: w.p.startAge}

	e := w.speechMap.NewEntity(&pos, &body, &s)
	w.speechGrid.Insert(e, w.speechGrid.IndexOf(x, y))
	return e
}

// Close stops the brain worker pool.
func (w *World) Close() {
	w.pool.stop()
}

// Config returns the config the world was built with.
func (w *World) Config() *config.Config { return w.cfg }

// Seed returns the RNG seed.
func (w *World) Seed() int64 { return w.seed }

// Tick returns the number of ticks since the run started.
func (w *World) Tick() int32 { return w.tick }

// Age returns the number of ticks since the last reworld.
func (w *World) Age() int32 { return w.age }

// Generation returns the number of reworlds so far.
func (w *World) Generation() int { return w.generation }

// FoodCeiling returns the current plant food ceiling.
func (w *World) FoodCeiling() int { return w.foodCeiling }

// NumBeings returns the number of living beings.
func (w *World) NumBeings() int { return len(w.models) }

// PlantFoods returns the number of non-flesh foods.
func (w *World) PlantFoods() int { return w.plantFoods }

// Collector returns the window event collector.
func (w *World) Collector() *telemetry.Collector { return w.collector }

// Lifetime returns the per-being lifetime tracker.
func (w *World) Lifetime() *telemetry.LifetimeTracker { return w.lifetime }

// HallOfFame returns the hall of fame, or nil when disabled.
func (w *World) HallOfFame() *telemetry.HallOfFame { return w.hall }

// SetHallOfFame replaces the hall of fame, e.g. with one loaded from disk.
func (w *World) SetHallOfFame(hof *telemetry.HallOfFame) { w.hall = hof }

// SetPerf enables per-phase timing.
func (w *World) SetPerf(p *telemetry.PerfCollector) { w.perf = p }

// Model returns the model of the being with the given ID.
func (w *World) Model(id uint32) *neural.SumFx { return w.models[id] }

// Counts samples entity counts for telemetry.
func (w *World) Counts() telemetry.Counts {
	c := telemetry.Counts{
		Beings:      len(w.models),
		Generation:  w.generation,
		FoodCeiling: w.foodCeiling,
	}
	fq := w.foodFilter.Query()
	for fq.Next() {
		_, _, f := fq.Get()
		c.Foods++
		if f.Flesh {
			c.FleshFoods++
		}
	}
	c.Obstructs = w.obstructGrid.Count()
	c.Speechlets = w.speechGrid.Count()
	return c
}

// Energies appends the energy of every being to dst.
func (w *World) Energies(dst []float64) []float64 {
	q := w.beingFilter.Query()
	for q.Next() {
		_, _, _, b, _ := q.Get()
		dst = append(dst, float64(b.Energy))
	}
	return dst
}

// SetCapture selects the being whose activations are captured on the next
// output pass. ok=false disables capture.
func (w *World) SetCapture(id uint32, ok bool) {
	w.captureID = id
	w.captureActive = ok
	if !ok {
		w.capture = nil
	}
}

// Capture returns the activations captured for the selected being.
func (w *World) Capture() *neural.Activations { return w.capture }

// phase starts timing a step phase when perf collection is enabled.
func (w *World) phase(ph telemetry.Phase) {
	if w.perf != nil {
		w.perf.StartPhase(ph)
	}
}
