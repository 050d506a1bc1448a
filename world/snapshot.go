package world

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/telemetry"
)

// Snapshot captures the complete world state. Beings are listed in grid order.
func (w *World) Snapshot(runID string, bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       runID,
		RNGSeed:     w.seed,
		WorldSize:   w.p.size,
		Tick:        w.tick,
		Age:         w.age,
		Generation:  w.generation,
		FoodCeiling: w.foodCeiling,
		NextID:      w.nextBeingID,
		Bookmark:    bookmark,
	}

	for idx := 0; idx < w.beingGrid.Len(); idx++ {
		for _, e := range w.beingGrid.At(idx) {
			pos, rot, body, b, _ := w.beingMap.Get(e)
			weights := w.models[b.ID].MarshalWeights()
			snap.Entities = append(snap.Entities, telemetry.EntityState{
				ID:       b.ID,
				Kind:     components.KindBeing,
				X:        pos.X,
				Y:        pos.Y,
				Radius:   body.Radius,
				Heading:  rot.Heading,
				Energy:   b.Energy,
				Genome:   append([]float32(nil), b.Genome...),
				Model:    &weights,
				Output:   append([]float32(nil), b.Output[:]...),
				Pending:  []float32{b.PendingX, b.PendingY, b.PendingRotation, b.PendingEnergy},
				Lifetime: w.lifetime.Get(b.ID).ToJSON(),
			})
		}
	}

	fq := w.foodFilter.Query()
	for fq.Next() {
		pos, body, f := fq.Get()
		snap.Entities = append(snap.Entities, telemetry.EntityState{
			ID: f.ID, Kind: components.KindFood, X: pos.X, Y: pos.Y, Radius: body.Radius,
			Value: f.Value, Flesh: f.Flesh,
		})
	}

	oq := w.obstructFilter.Query()
	for oq.Next() {
		pos, body, o := oq.Get()
		snap.Entities = append(snap.Entities, telemetry.EntityState{
			ID: o.ID, Kind: components.KindObstruct, X: pos.X, Y: pos.Y, Radius: body.Radius,
			Health: o.Health,
		})
	}

	sq := w.speechFilter.Query()
	for sq.Next() {
		pos, body, sp := sq.Get()
		heard := make([]uint32, 0, len(sp.Heard))
		for id := range sp.Heard {
			heard = append(heard, id)
		}
		slices.Sort(heard)
		snap.Entities = append(snap.Entities, telemetry.EntityState{
			Kind: components.KindSpeechlet, X: pos.X, Y: pos.Y, Radius: body.Radius,
			Vec: append([]float32(nil), sp.Vec[:]...), Age: sp.Age, Heard: heard,
		})
	}

	for _, m := range w.lastSurvivors {
		snap.LastSurvivors = append(snap.LastSurvivors, m.MarshalWeights())
	}
	return snap
}

// Restore replaces the world state with a snapshot. The RNG is reseeded from
// the snapshot seed and tick.
func (w *World) Restore(snap *telemetry.Snapshot) error {
	if snap.WorldSize != w.p.size {
		return fmt.Errorf("snapshot world size %g does not match config %g", snap.WorldSize, w.p.size)
	}

	survivors := make([]*neural.SumFx, 0, len(snap.LastSurvivors))
	for i, sw := range snap.LastSurvivors {
		m, err := neural.UnmarshalWeights(sw)
		if err != nil {
			return fmt.Errorf("last survivor %d: %w", i, err)
		}
		survivors = append(survivors, m)
	}

	w.clear()
	w.seed = snap.RNGSeed
	w.rng = rand.New(rand.NewSource(snap.RNGSeed ^ int64(snap.Tick)))
	w.tick = snap.Tick
	w.age = snap.Age
	w.generation = snap.Generation
	w.foodCeiling = snap.FoodCeiling
	w.lastSurvivors = survivors
	w.gen = generationCounters{startTick: snap.Tick - snap.Age}

	for i := range snap.Entities {
		if err := w.restoreEntity(&snap.Entities[i]); err != nil {
			w.clear()
			return fmt.Errorf("entity %d (%s %d): %w", i, snap.Entities[i].Kind, snap.Entities[i].ID, err)
		}
	}
	w.nextBeingID = max(w.nextBeingID, snap.NextID)
	return nil
}

func (w *World) restoreEntity(es *telemetry.EntityState) error {
	switch es.Kind {
	case components.KindBeing:
		if es.Model == nil {
			return errors.New("being has no model")
		}
		m, err := neural.UnmarshalWeights(*es.Model)
		if err != nil {
			return err
		}
		if !m.Config().Equal(w.modelCfg) {
			return errors.New("model shape does not match config")
		}
		if _, taken := w.models[es.ID]; taken {
			return errors.New("duplicate being id")
		}
		genome := make([]float32, w.cfg.Being.GenomeLen)
		copy(genome, es.Genome)

		e := w.addBeingWithID(es.ID, es.X, es.Y, es.Heading, es.Energy, genome, m)
		_, _, body, b, _ := w.beingMap.Get(e)
		body.Radius = es.Radius
		copy(b.Output[:], es.Output)
		if len(es.Pending) == 4 {
			b.PendingX, b.PendingY, b.PendingRotation, b.PendingEnergy = es.Pending[0], es.Pending[1], es.Pending[2], es.Pending[3]
		}
		if es.Lifetime != nil {
			w.lifetime.Set(es.ID, es.Lifetime.FromJSON())
		}
		w.nextBeingID = max(w.nextBeingID, es.ID+1)

	case components.KindFood:
		e := w.AddFood(es.X, es.Y, es.Value, es.Flesh)
		_, body, f := w.foodMap.Get(e)
		body.Radius = es.Radius
		f.ID = es.ID
		w.nextFoodID = max(w.nextFoodID, es.ID+1)

	case components.KindObstruct:
		e := w.addObstruct(es.X, es.Y, es.Health)
		_, body, o := w.obstructMap.Get(e)
		body.Radius = es.Radius
		o.ID = es.ID
		w.nextObstructID = max(w.nextObstructID, es.ID+1)

	case components.KindSpeechlet:
		var vec [neural.SpeechletLen]float32
		copy(vec[:], es.Vec)
		e := w.AddSpeechlet(es.X, es.Y, vec)
		_, body, sp := w.speechMap.Get(e)
		body.Radius = es.Radius
		sp.Age = es.Age
		for _, id := range es.Heard {
			sp.MarkHeard(id)
		}

	default:
		return errors.New("unknown kind")
	}
	return nil
}
