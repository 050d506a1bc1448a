package world

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/neural"
)

func genome(w *World) []float32 {
	return make([]float32, w.cfg.Being.GenomeLen)
}

func TestFoodEatenOnce(t *testing.T) {
	w := emptyWorld(t, nil)
	e1 := w.AddBeing(100, 100, 0, 10, genome(w), quietModel(w))
	e2 := w.AddBeing(100, 105, math.Pi/2, 10, genome(w), quietModel(w))
	w.AddFood(100, 102.5, 2, false)

	w.Step(1)

	eaten := 0
	for _, e := range []ecs.Entity{e1, e2} {
		_, _, _, b, _ := w.beingMap.Get(e)
		eaten += w.Lifetime().Get(b.ID).FoodsEaten
	}
	if eaten != 1 {
		t.Errorf("food eaten %d times, want 1", eaten)
	}
	if got := w.Counts().Foods; got != 0 {
		t.Errorf("eaten food was not removed: %d left", got)
	}
	if w.PlantFoods() != 0 {
		t.Errorf("PlantFoods() = %d, want 0", w.PlantFoods())
	}
}

func TestFoodEnergyCommittedAfterCollisions(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(100, 100, 0, 10, genome(w), quietModel(w))
	w.AddFood(100, 100, 2, false)
	w.AddFood(101, 100, 2, false)

	w.Step(1)

	// Energy is only committed after collisions, so both touching foods are
	// eaten even though the first lifts it above start energy.
	_, _, _, b, _ := w.beingMap.Get(e)
	if !near(b.Energy, 10+2+2-0.01) {
		t.Errorf("energy = %v, want %v", b.Energy, 10+2+2-0.01)
	}
	if got := w.Lifetime().Get(b.ID).FoodsEaten; got != 2 {
		t.Errorf("FoodsEaten = %d, want 2", got)
	}
}

func TestFoodSkippedWhenSated(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(100, 100, 0, 15, genome(w), quietModel(w))
	w.AddFood(100, 100, 2, false)

	w.Step(1)

	_, _, _, b, _ := w.beingMap.Get(e)
	if !near(b.Energy, 15-0.01) {
		t.Errorf("energy = %v, want %v", b.Energy, 15-0.01)
	}
	if got := w.Counts().Foods; got != 1 {
		t.Errorf("food count = %d, want 1", got)
	}
}

func TestSpeechletHeardOnce(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(200, 200, 0, 10, genome(w), quietModel(w))
	var vec [neural.SpeechletLen]float32
	vec[0] = 0.5
	w.AddSpeechlet(200, 200, vec)

	for i := 0; i < 3; i++ {
		w.Step(1)
	}

	_, _, _, b, _ := w.beingMap.Get(e)
	if got := w.Lifetime().Get(b.ID).SpeechletsHeard; got != 1 {
		t.Errorf("SpeechletsHeard = %d, want 1", got)
	}

	q := w.speechFilter.Query()
	for q.Next() {
		_, body, sp := q.Get()
		if !sp.HeardBy(b.ID) {
			t.Error("speechlet not marked as heard")
		}
		want := w.p.speechletR + 3*w.p.grow
		if !near(body.Radius, want) {
			t.Errorf("radius = %v, want %v", body.Radius, want)
		}
		if !near(sp.Age, w.p.startAge-3*w.p.softenRate) {
			t.Errorf("age = %v, want %v", sp.Age, w.p.startAge-3*w.p.softenRate)
		}
	}
}

func TestSpeechletHearingIgnoresGrowth(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(300, 300, 0, 10, genome(w), quietModel(w))
	w.AddSpeechlet(315, 300, [neural.SpeechletLen]float32{})
	w.AddSpeechlet(300, 340, [neural.SpeechletLen]float32{})

	// Both in view and grown far enough to cover the being.
	radii := map[float32]float32{315: 20, 300: 45}
	q := w.speechFilter.Query()
	for q.Next() {
		pos, body, _ := q.Get()
		body.Radius = radii[pos.X]
	}

	w.Step(1)

	_, _, _, b, _ := w.beingMap.Get(e)
	if got := w.Lifetime().Get(b.ID).SpeechletsHeard; got != 0 {
		t.Errorf("SpeechletsHeard = %d, want 0 beyond the emitted radius", got)
	}
	sq := w.speechFilter.Query()
	for sq.Next() {
		pos, _, sp := sq.Get()
		if sp.HeardBy(b.ID) {
			t.Errorf("speechlet at (%v, %v) marked as heard", pos.X, pos.Y)
		}
	}
}

func TestPeakEnergyTrackedOnCommit(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(100, 100, 0, 10, genome(w), quietModel(w))
	w.AddFood(100, 100, 2, false)
	w.AddFood(101, 100, 2, false)

	w.Step(1)
	w.Step(1)

	// Peak is the committed 14, before tiring, with no Energies call.
	_, _, _, b, _ := w.beingMap.Get(e)
	if got := w.Lifetime().Get(b.ID).PeakEnergy; !near(got, 14) {
		t.Errorf("PeakEnergy = %v, want 14", got)
	}

	before := *w.Lifetime().Get(b.ID)
	b.Energy = 50
	if got := w.Energies(nil); len(got) != 1 || got[0] != 50 {
		t.Errorf("Energies() = %v, want [50]", got)
	}
	if got := *w.Lifetime().Get(b.ID); got != before {
		t.Errorf("Energies changed lifetime stats: %+v, want %+v", got, before)
	}
}

func TestSpeechletSoftensAway(t *testing.T) {
	w := emptyWorld(t, func(c *config.Config) {
		c.Speechlet.StartAge = 0.25
	})
	w.AddSpeechlet(300, 300, [neural.SpeechletLen]float32{})

	w.Step(1)
	if got := w.Counts().Speechlets; got != 1 {
		t.Fatalf("speechlets after 1 tick = %d, want 1", got)
	}
	w.Step(1)
	w.Step(1)
	if got := w.Counts().Speechlets; got != 0 {
		t.Errorf("speechlets after 3 ticks = %d, want 0", got)
	}
}

func TestOOBRetreat(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(4.8, 300, math.Pi, 10, genome(w), quietModel(w))
	_, _, _, b, _ := w.beingMap.Get(e)
	b.Output[neural.OutMove] = 1

	w.Step(1)

	pos, _, _, b, _ := w.beingMap.Get(e)
	if !near(pos.X, 4.8+1.5) {
		t.Errorf("x = %v, want %v", pos.X, 4.8+1.5)
	}
	if !near(b.Energy, 10-0.25-0.01) {
		t.Errorf("energy = %v, want %v", b.Energy, 10-0.25-0.01)
	}
}

func TestMoveCommitted(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(300, 300, 0, 10, genome(w), quietModel(w))
	_, _, _, b, _ := w.beingMap.Get(e)
	b.Output[neural.OutMove] = 0.5
	b.Output[neural.OutRotate] = 0.25

	w.Step(1)

	pos, rot, _, b, _ := w.beingMap.Get(e)
	if !near(pos.X, 300.5) || !near(pos.Y, 300) {
		t.Errorf("position = (%v, %v), want (300.5, 300)", pos.X, pos.Y)
	}
	if !near(rot.Heading, math.Pi/4) {
		t.Errorf("heading = %v, want %v", rot.Heading, math.Pi/4)
	}
	// move 0.5/speed*0.01 + 0.25*0.01 + tire 0.01
	want := float32(10 - 0.01 - 0.0025 - 0.01)
	if !near(b.Energy, want) {
		t.Errorf("energy = %v, want %v", b.Energy, want)
	}
}

func TestBeingCollision(t *testing.T) {
	w := emptyWorld(t, nil)
	e1 := w.AddBeing(100, 100, 0, 10, genome(w), quietModel(w))
	e2 := w.AddBeing(104, 100, 0, 10, genome(w), quietModel(w))

	w.Step(1)

	tests := []struct {
		name   string
		e      ecs.Entity
		x      float32
		energy float32
	}{
		// overlap 3 over distance 4, halved by the push divisor
		{"rammer", e1, 98, 10 - 0.25 - 0.01},
		{"rammed", e2, 106, 10 - 1 - 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, _, _, b, _ := w.beingMap.Get(tt.e)
			if !near(pos.X, tt.x) {
				t.Errorf("x = %v, want %v", pos.X, tt.x)
			}
			if !near(b.Energy, tt.energy) {
				t.Errorf("energy = %v, want %v", b.Energy, tt.energy)
			}
		})
	}
}

func TestObstructCollision(t *testing.T) {
	w := emptyWorld(t, nil)
	e := w.AddBeing(100, 100, 0, 10, genome(w), quietModel(w))
	w.AddObstruct(104, 100)

	w.Step(1)

	pos, _, _, b, _ := w.beingMap.Get(e)
	if !near(pos.X, 98) {
		t.Errorf("x = %v, want 98", pos.X)
	}
	if !near(b.Energy, 10-0.1-0.01) {
		t.Errorf("energy = %v, want %v", b.Energy, 10-0.1-0.01)
	}
}

func TestDeathScattersFlesh(t *testing.T) {
	w := emptyWorld(t, nil)
	w.AddBeing(300, 300, 0, 0.005, genome(w), quietModel(w))

	w.Step(1)

	if w.NumBeings() != 0 {
		t.Fatalf("NumBeings() = %d, want 0", w.NumBeings())
	}
	c := w.Counts()
	if c.FleshFoods != w.cfg.Being.ScatterCount {
		t.Errorf("flesh foods = %d, want %d", c.FleshFoods, w.cfg.Being.ScatterCount)
	}
	if w.PlantFoods() != 0 {
		t.Errorf("flesh counted as plant food: %d", w.PlantFoods())
	}

	q := w.foodFilter.Query()
	for q.Next() {
		pos, _, f := q.Get()
		dx, dy := float64(pos.X-300), float64(pos.Y-300)
		if math.Hypot(dx, dy) > w.cfg.Being.ScatterRadius+1e-3 {
			t.Errorf("flesh at (%v, %v) outside scatter radius", pos.X, pos.Y)
		}
		want := w.p.deathEnergy/w.p.scatterRadius - w.p.rotRate
		if !near(f.Value, want) {
			t.Errorf("flesh value = %v, want %v", f.Value, want)
		}
	}
}

func TestBuildAndSpeak(t *testing.T) {
	w := emptyWorld(t, nil)
	m := quietModel(w)
	final := m.Final.Layers[len(m.Final.Layers)-1]
	final.B[neural.OutBuild] = 10
	final.B[neural.OutSpeak] = 10
	e := w.AddBeing(300, 300, 0, 10, genome(w), m)

	w.Step(1)

	c := w.Counts()
	if c.Obstructs != 1 || c.Speechlets != 1 {
		t.Fatalf("obstructs %d speechlets %d, want 1 and 1", c.Obstructs, c.Speechlets)
	}
	q := w.obstructFilter.Query()
	for q.Next() {
		pos, _, _ := q.Get()
		if !near(pos.X, 300+w.p.obstructDist) || !near(pos.Y, 300) {
			t.Errorf("obstruct at (%v, %v)", pos.X, pos.Y)
		}
	}

	// Costs are pending until the next commit.
	_, _, _, b, _ := w.beingMap.Get(e)
	if !near(b.PendingEnergy, -(w.p.spawnObstruct + w.p.spawnSpeech)) {
		t.Errorf("pending energy = %v, want %v", b.PendingEnergy, -(w.p.spawnObstruct + w.p.spawnSpeech))
	}
	stats := w.Lifetime().Get(b.ID)
	if stats.ObstructsBuilt != 1 || stats.SpeechletsEmitted != 1 {
		t.Errorf("lifetime built %d spoken %d", stats.ObstructsBuilt, stats.SpeechletsEmitted)
	}
}

func TestRepopFoods(t *testing.T) {
	w := emptyWorld(t, func(c *config.Config) {
		c.Food.SpawnPerStep = 3
		c.Evolution.MaxFood = 5
	})

	w.Step(1)
	if w.PlantFoods() != 3 {
		t.Errorf("after 1 tick PlantFoods() = %d, want 3", w.PlantFoods())
	}
	w.Step(1)
	w.Step(1)
	if w.PlantFoods() != 5 {
		t.Errorf("after 3 ticks PlantFoods() = %d, want ceiling 5", w.PlantFoods())
	}
}

func TestSubstepsSplitMove(t *testing.T) {
	for _, substeps := range []int{1, 2, 4} {
		w := emptyWorld(t, nil)
		e := w.AddBeing(300, 300, 0, 10, genome(w), quietModel(w))
		_, _, _, b, _ := w.beingMap.Get(e)
		b.Output[neural.OutMove] = 1

		w.Step(substeps)

		pos, _, _, _, _ := w.beingMap.Get(e)
		if !near(pos.X, 301) {
			t.Errorf("substeps %d: x = %v, want 301", substeps, pos.X)
		}
	}
}
