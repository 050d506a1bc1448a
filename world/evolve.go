package world

import (
	"log/slog"

	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/telemetry"
)

// maybeReworld reworlds once the population falls below the threshold.
func (w *World) maybeReworld() {
	if len(w.models) < w.cfg.Evolution.ReworldThreshold {
		w.Reworld()
	}
}

// Reworld ends the current generation. Surviving models are kept and topped up
// to start_count with offspring bred by crossover and mutation; the food
// ceiling is tightened and the world is rebuilt from scratch.
//
// With no survivors the next population is the survivors of the last reworld,
// respawned as they are with no offspring. Without those it is sampled from
// the hall of fame, then made of fresh models. A short population is filled
// by the next threshold reworld.
func (w *World) Reworld() {
	evo := &w.cfg.Evolution
	if w.foodCeiling > evo.MinFood {
		w.foodCeiling -= evo.MaxFoodReduction
	}

	slog.Info("reworld", "generation", w.generation, "age", w.age, "beings", len(w.models))

	survivors := w.survivingModels()
	parents := survivors
	extinction := len(survivors) == 0
	if extinction {
		parents = w.extinctionParents()
		slog.Warn("extinction", "generation", w.generation, "parents", len(parents))
	} else {
		w.lastSurvivors = cloneModels(survivors)
	}

	next := append([]*neural.SumFx(nil), parents...)
	offspring := 0
	for !extinction && len(next) < w.cfg.Being.StartCount {
		m1 := parents[w.rng.Intn(len(parents))]
		m2 := parents[w.rng.Intn(len(parents))]
		child := neural.Mutate(neural.Crossover(m1, m2, float32(evo.CrossoverWeight)), float32(evo.MutationRate), w.rng)
		next = append(next, child)
		offspring++
	}

	summary := telemetry.GenerationStats{
		Generation:        w.generation,
		EndTick:           w.tick,
		Length:            w.tick - w.gen.startTick,
		Survivors:         len(survivors),
		Offspring:         offspring,
		Extinction:        extinction,
		FoodCeiling:       w.foodCeiling,
		SpeechletsEmitted: w.gen.speechletsEmitted,
		SpeechletsHeard:   w.gen.speechletsHeard,
		ObstructsBuilt:    w.gen.obstructsBuilt,
		FoodsEaten:        w.gen.foodsEaten,
	}

	w.retireAll()
	w.clear()
	w.generation++
	w.age = 0
	w.gen = generationCounters{startTick: w.tick}
	w.collector.RecordReworld()

	w.spawnPlantFoods()
	for _, m := range next {
		w.spawnBeing(m)
	}

	if w.OnGeneration != nil {
		w.OnGeneration(summary)
	}
}

// survivingModels returns clones of the living beings' models in entity order.
func (w *World) survivingModels() []*neural.SumFx {
	var out []*neural.SumFx
	q := w.beingFilter.Query()
	for q.Next() {
		_, _, _, b, _ := q.Get()
		out = append(out, w.models[b.ID].Clone())
	}
	return out
}

// extinctionParents picks the parent pool when no being survived.
func (w *World) extinctionParents() []*neural.SumFx {
	if len(w.lastSurvivors) > 0 {
		return cloneModels(w.lastSurvivors)
	}
	if w.hall != nil {
		if sampled := w.hall.SampleN(w.cfg.Being.StartCount); len(sampled) > 0 {
			return sampled
		}
	}
	fresh := make([]*neural.SumFx, w.cfg.Being.StartCount)
	for i := range fresh {
		fresh[i] = neural.NewSumFx(w.modelCfg, w.rng)
	}
	return fresh
}

// retireAll offers every living being to the hall of fame.
func (w *World) retireAll() {
	bq := w.beingFilter.Query()
	for bq.Next() {
		_, _, _, b, _ := bq.Get()
		w.deadBeings = append(w.deadBeings, deadBeing{entity: bq.Entity(), id: b.ID})
	}
	for _, dead := range w.deadBeings {
		w.retireBeing(dead.id)
	}
	w.deadBeings = w.deadBeings[:0]
}

// clear removes every entity, empties the grids and resets ID counters.
func (w *World) clear() {
	w.deadEntities = w.deadEntities[:0]
	bq := w.beingFilter.Query()
	for bq.Next() {
		w.deadEntities = append(w.deadEntities, bq.Entity())
	}
	fq := w.foodFilter.Query()
	for fq.Next() {
		w.deadEntities = append(w.deadEntities, fq.Entity())
	}
	oq := w.obstructFilter.Query()
	for oq.Next() {
		w.deadEntities = append(w.deadEntities, oq.Entity())
	}
	sq := w.speechFilter.Query()
	for sq.Next() {
		w.deadEntities = append(w.deadEntities, sq.Entity())
	}
	for _, e := range w.deadEntities {
		w.ecs.RemoveEntity(e)
	}
	w.deadEntities = w.deadEntities[:0]

	w.beingGrid.Clear()
	w.foodGrid.Clear()
	w.obstructGrid.Clear()
	w.speechGrid.Clear()

	clear(w.models)
	w.lifetime.Reset()
	w.plantFoods = 0
	w.nextBeingID = 0
	w.nextFoodID = 0
	w.nextObstructID = 0
	w.obstructQueue = w.obstructQueue[:0]
	w.speechQueue = w.speechQueue[:0]
	w.capture = nil
}

// LastSurvivors returns the models kept at the last reworld with survivors.
func (w *World) LastSurvivors() []*neural.SumFx { return w.lastSurvivors }

func cloneModels(models []*neural.SumFx) []*neural.SumFx {
	out := make([]*neural.SumFx, len(models))
	for i, m := range models {
		out[i] = m.Clone()
	}
	return out
}
