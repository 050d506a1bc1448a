package world

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/neural"
	"github.com/pthm-cable/neuralang/systems"
	"github.com/pthm-cable/neuralang/telemetry"
)

// Step advances the world by one tick. Movement, collisions and cell updates
// run once per substep; everything else runs once per tick.
func (w *World) Step(substeps int) {
	if substeps < 1 {
		substeps = 1
	}
	s := float32(substeps)

	for i := 0; i < substeps; i++ {
		w.phase(telemetry.PhaseMove)
		w.moveBeings(s)

		w.phase(telemetry.PhaseCollide)
		w.checkCollisions(s)

		w.phase(telemetry.PhaseCells)
		w.updateCells()
	}

	w.phase(telemetry.PhaseOutputs)
	w.performOutputs()

	w.phase(telemetry.PhaseLifecycle)
	w.growSpeechlets()
	w.tireBeings()
	w.ageFoods()
	w.ageObstructs()
	w.softenSpeechlets()
	w.repopFoods()

	w.phase(telemetry.PhaseReworld)
	w.maybeReworld()

	w.age++
	w.tick++
}

// moveBeings accumulates each being's intended movement and its energy cost.
// A being whose next position would touch the border backs off instead and
// pays the OOB penalty.
func (w *World) moveBeings(s float32) {
	p := &w.p
	q := w.beingFilter.Query()
	for q.Next() {
		pos, rot, body, b, _ := q.Get()

		dirX, dirY := systems.Direction(rot.Heading)
		move := b.Output[neural.OutMove]
		scale := move * (1 - p.lowEnergyDamp) * (b.Energy / p.startEnergy) * p.speed
		nx, ny := pos.X+dirX*scale, pos.Y+dirY*scale

		if !systems.OOB(nx, ny, body.Radius, p.size, p.margin) {
			dx, dy := move*dirX/s, move*dirY/s
			drot := b.Output[neural.OutRotate] * math.Pi / s
			b.PendingX += dx
			b.PendingY += dy
			b.PendingRotation += drot
			b.PendingEnergy -= float32(math.Sqrt(float64(dx*dx+dy*dy))) / p.speed * p.moveTire
			b.PendingEnergy -= float32(math.Abs(float64(drot))) / math.Pi * p.rotTire
		} else {
			b.PendingX -= dirX * p.retreat / s
			b.PendingY -= dirY * p.retreat / s
			b.PendingEnergy -= p.oobPenalty
			w.collector.RecordOOB()
		}
	}
}

// checkCollisions gathers perception rows for every being over its field of
// view and resolves contacts with beings, foods, obstructs and speechlets.
// Beings are visited in cell order.
func (w *World) checkCollisions(s float32) {
	n := w.beingGrid.N()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for _, e := range w.beingGrid.At(w.beingGrid.Index(i, j)) {
				w.neighbours = w.beingGrid.NeighbourCells(w.neighbours[:0], i, j, w.fov)
				w.collideBeing(e, w.neighbours, s)
			}
		}
	}
}

func (w *World) collideBeing(e ecs.Entity, cells []int, s float32) {
	p := &w.p
	pos, rot, body, b, senses := w.beingMap.Get(e)
	dirX, dirY := systems.Direction(rot.Heading)

	for _, idx := range cells {
		for _, other := range w.beingGrid.At(idx) {
			if other == e {
				continue
			}
			opos, _, obody, ob, _ := w.beingMap.Get(other)
			pc := systems.Perceive(pos.X, pos.Y, rot.Heading, opos.X, opos.Y)
			senses.Beings = systems.AppendBeingRow(senses.Beings, pc, p.fov, ob.Energy/p.startEnergy, ob.Genome)

			c := systems.Collide(pos.X, pos.Y, body.Radius, opos.X, opos.Y, obody.Radius)
			if !c.Touching() {
				continue
			}
			w.collector.RecordCollision()
			px, py := c.Push(p.pushDiv)
			if !systems.OOB(pos.X-px, pos.Y-py, body.Radius, p.size, p.margin) {
				b.PendingX -= px
				b.PendingY -= py
			}
			b.PendingEnergy -= systems.ImpactDamage(c.Facing(dirX, dirY), p.headon, p.rear, s)
		}

		for _, fe := range w.foodGrid.At(idx) {
			fpos, fbody, f := w.foodMap.Get(fe)
			pc := systems.Perceive(pos.X, pos.Y, rot.Heading, fpos.X, fpos.Y)
			senses.FoodObstructs = systems.AppendFoodRow(senses.FoodObstructs, pc, p.fov, f.Value/p.foodValue)

			c := systems.Collide(pos.X, pos.Y, body.Radius, fpos.X, fpos.Y, fbody.Radius)
			if c.Touching() && !f.Eaten && b.Energy <= p.startEnergy {
				b.PendingEnergy += f.Value
				f.Eaten = true
				w.collector.RecordFoodEaten(f.Flesh)
				w.lifetime.RecordFood(b.ID, f.Flesh)
				w.gen.foodsEaten++
			}
		}

		for _, oe := range w.obstructGrid.At(idx) {
			opos, obody, o := w.obstructMap.Get(oe)
			pc := systems.Perceive(pos.X, pos.Y, rot.Heading, opos.X, opos.Y)
			senses.FoodObstructs = systems.AppendObstructRow(senses.FoodObstructs, pc, p.fov, o.Health/p.startHealth)

			c := systems.Collide(pos.X, pos.Y, body.Radius, opos.X, opos.Y, obody.Radius)
			if !c.Touching() {
				continue
			}
			px, py := c.Push(p.pushDiv)
			b.PendingX -= px
			b.PendingY -= py
			b.PendingEnergy -= systems.WallDamage(c.Facing(dirX, dirY), p.wallHeadon, s)
		}

		for _, se := range w.speechGrid.At(idx) {
			// Growth is visual; hearing uses the emitted radius.
			spos, _, sp := w.speechMap.Get(se)
			c := systems.Collide(pos.X, pos.Y, body.Radius, spos.X, spos.Y, p.speechletR)
			if !c.Touching() || sp.HeardBy(b.ID) {
				continue
			}
			senses.Speechlets = append(senses.Speechlets, sp.Vec[:]...)
			sp.MarkHeard(b.ID)
			w.collector.RecordSpeechletHeard()
			w.lifetime.RecordHeard(b.ID)
			w.gen.speechletsHeard++
		}
	}
}

// updateCells commits pending energy and rotation, and pending movement when
// it keeps the being inside the border. Beings that changed cell are
// re-bucketed. Peak energies are tracked at each commit.
func (w *World) updateCells() {
	p := &w.p
	q := w.beingFilter.Query()
	for q.Next() {
		e := q.Entity()
		pos, rot, body, b, _ := q.Get()

		b.Energy += b.PendingEnergy
		rot.Heading += b.PendingRotation
		b.PendingEnergy = 0
		b.PendingRotation = 0
		w.lifetime.UpdateEnergy(b.ID, b.Energy)

		nx, ny := pos.X+b.PendingX, pos.Y+b.PendingY
		if systems.OOB(nx, ny, body.Radius, p.size, p.margin) {
			continue
		}
		pos.X, pos.Y = nx, ny
		b.PendingX, b.PendingY = 0, 0

		if cell := w.beingGrid.IndexOf(nx, ny); cell != b.Cell {
			w.beingGrid.Move(e, b.Cell, cell)
			b.Cell = cell
		}
	}
}

// performOutputs runs every model on its gathered senses and acts on the
// outputs: building an obstruct in front of the being and speaking. Spawns
// are applied once all outputs are known.
func (w *World) performOutputs() {
	p := &w.p
	w.runBrains()

	for i := range w.pool.jobs {
		job := &w.pool.jobs[i]
		pos, rot, _, b, senses := w.beingMap.Get(job.entity)
		b.Output = w.pool.outputs[i]
		senses.Reset()

		if b.Output[neural.OutBuild] > 0 {
			b.PendingEnergy -= p.spawnObstruct
			dirX, dirY := systems.Direction(rot.Heading)
			w.obstructQueue = append(w.obstructQueue, components.Position{
				X: pos.X + dirX*p.obstructDist,
				Y: pos.Y + dirY*p.obstructDist,
			})
			w.collector.RecordObstructBuilt()
			w.lifetime.RecordObstruct(b.ID)
			w.gen.obstructsBuilt++
		}
		if b.Output[neural.OutSpeak] > 0 {
			b.PendingEnergy -= p.spawnSpeech
			var vec [neural.SpeechletLen]float32
			copy(vec[:], b.Output[neural.OutSpeechlet:])
			w.speechQueue = append(w.speechQueue, queuedSpeechlet{pos: *pos, vec: vec})
			w.collector.RecordSpeechletEmitted()
			w.lifetime.RecordSpoken(b.ID)
			w.gen.speechletsEmitted++
		}
	}

	for _, pos := range w.obstructQueue {
		w.AddObstruct(pos.X, pos.Y)
	}
	for _, sq := range w.speechQueue {
		w.AddSpeechlet(sq.pos.X, sq.pos.Y, sq.vec)
	}
	w.obstructQueue = w.obstructQueue[:0]
	w.speechQueue = w.speechQueue[:0]
}

// growSpeechlets widens every speechlet.
func (w *World) growSpeechlets() {
	q := w.speechFilter.Query()
	for q.Next() {
		_, body, _ := q.Get()
		body.Radius += w.p.grow
	}
}

// tireBeings applies the per-tick energy cost. Beings out of energy die and
// scatter flesh foods around where they fell.
func (w *World) tireBeings() {
	q := w.beingFilter.Query()
	for q.Next() {
		pos, _, _, b, _ := q.Get()
		b.Energy -= w.p.tireRate
		if b.Energy <= 0 {
			w.deadBeings = append(w.deadBeings, deadBeing{entity: q.Entity(), id: b.ID, cell: b.Cell, x: pos.X, y: pos.Y})
		}
	}

	for _, dead := range w.deadBeings {
		w.retireBeing(dead.id)
		w.beingGrid.Remove(dead.entity, dead.cell)
		w.ecs.RemoveEntity(dead.entity)
		w.collector.RecordDeath()
		w.scatterFlesh(dead.x, dead.y)
	}
	w.deadBeings = w.deadBeings[:0]
}

// retireBeing offers a departing being's model to the hall of fame and drops
// its model and lifetime record.
func (w *World) retireBeing(id uint32) {
	stats := w.lifetime.Get(id)
	if stats != nil {
		w.lifetime.UpdateSurvival(id, w.tick)
		if w.hall != nil {
			w.hall.Consider(w.models[id], stats, id)
		}
	}
	w.lifetime.Remove(id)
	delete(w.models, id)
}

// scatterFlesh drops scatter_count flesh foods around (x, y). Points whose
// food disc would touch the border are skipped.
func (w *World) scatterFlesh(x, y float32) {
	p := &w.p
	value := p.deathEnergy / p.scatterRadius
	for i := 0; i < w.cfg.Being.ScatterCount; i++ {
		theta := (w.rng.Float32()*2 - 1) * math.Pi
		dist := w.rng.Float32() * p.scatterRadius
		dx, dy := systems.Direction(theta)
		fx, fy := x+dx*dist, y+dy*dist
		if !systems.OOB(fx, fy, p.foodR, p.size, p.margin) {
			w.AddFood(fx, fy, value, true)
		}
	}
}

// ageFoods rots every food. Rotten and eaten foods are removed.
func (w *World) ageFoods() {
	q := w.foodFilter.Query()
	for q.Next() {
		_, _, f := q.Get()
		f.Value -= w.p.rotRate
		if f.Value < 0 || f.Eaten {
			w.deadEntities = append(w.deadEntities, q.Entity())
		}
	}
	for _, e := range w.deadEntities {
		pos, _, f := w.foodMap.Get(e)
		if !f.Flesh {
			w.plantFoods--
		}
		w.foodGrid.Remove(e, w.foodGrid.IndexOf(pos.X, pos.Y))
		w.ecs.RemoveEntity(e)
	}
	w.deadEntities = w.deadEntities[:0]
}

// ageObstructs decays every obstruct. Crumbled ones are removed.
func (w *World) ageObstructs() {
	q := w.obstructFilter.Query()
	for q.Next() {
		_, _, o := q.Get()
		o.Health -= w.p.ageRate
		if o.Health < w.p.minHealth {
			w.deadEntities = append(w.deadEntities, q.Entity())
		}
	}
	w.removeBucketed(w.obstructGrid, w.deadEntities)
	w.deadEntities = w.deadEntities[:0]
}

// softenSpeechlets quietens every speechlet. Silent ones are removed.
func (w *World) softenSpeechlets() {
	q := w.speechFilter.Query()
	for q.Next() {
		_, _, sp := q.Get()
		sp.Age -= w.p.softenRate
		if sp.Age <= 0 {
			w.deadEntities = append(w.deadEntities, q.Entity())
		}
	}
	w.removeBucketed(w.speechGrid, w.deadEntities)
	w.deadEntities = w.deadEntities[:0]
}

// removeBucketed removes static entities from their grid and the ECS world.
func (w *World) removeBucketed(grid *systems.Grid, entities []ecs.Entity) {
	for _, e := range entities {
		pos := w.posMap.Get(e)
		grid.Remove(e, grid.IndexOf(pos.X, pos.Y))
		w.ecs.RemoveEntity(e)
	}
}

// repopFoods tops plant food up toward the current ceiling.
func (w *World) repopFoods() {
	for i := 0; i < w.cfg.Food.SpawnPerStep; i++ {
		if w.plantFoods >= w.foodCeiling {
			return
		}
		x := 1 + w.rng.Float32()*(w.p.size-1)
		y := 1 + w.rng.Float32()*(w.p.size-1)
		w.AddFood(x, y, w.p.foodValue, false)
	}
}
