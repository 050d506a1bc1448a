package world

import (
	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/telemetry"
)

// BeingView is a read-only copy of one being for drawing.
type BeingView struct {
	ID      uint32
	X, Y    float32
	Heading float32
	Radius  float32
	Energy  float32
}

// DiscView is a read-only copy of a food, obstruct or speechlet.
// Level is the food value, the obstruct health or the speechlet age.
type DiscView struct {
	Kind   components.Kind
	X, Y   float32
	Radius float32
	Level  float32
	Flesh  bool
}

// BeingInfo is everything the inspector shows about one being.
type BeingInfo struct {
	Being    components.Being
	Position components.Position
	Rotation components.Rotation
	Body     components.Body
	Lifetime *telemetry.LifetimeStats
}

// EachBeing calls fn for every living being.
func (w *World) EachBeing(fn func(BeingView)) {
	q := w.beingFilter.Query()
	for q.Next() {
		pos, rot, body, b, _ := q.Get()
		fn(BeingView{ID: b.ID, X: pos.X, Y: pos.Y, Heading: rot.Heading, Radius: body.Radius, Energy: b.Energy})
	}
}

// EachDisc calls fn for every food, obstruct and speechlet, in that order.
func (w *World) EachDisc(fn func(DiscView)) {
	fq := w.foodFilter.Query()
	for fq.Next() {
		pos, body, f := fq.Get()
		fn(DiscView{Kind: components.KindFood, X: pos.X, Y: pos.Y, Radius: body.Radius, Level: f.Value, Flesh: f.Flesh})
	}
	oq := w.obstructFilter.Query()
	for oq.Next() {
		pos, body, o := oq.Get()
		fn(DiscView{Kind: components.KindObstruct, X: pos.X, Y: pos.Y, Radius: body.Radius, Level: o.Health})
	}
	sq := w.speechFilter.Query()
	for sq.Next() {
		pos, body, sp := sq.Get()
		fn(DiscView{Kind: components.KindSpeechlet, X: pos.X, Y: pos.Y, Radius: body.Radius, Level: sp.Age})
	}
}

// BeingAt returns the ID of the being whose body, grown by slack, contains
// (x, y). When bodies overlap the closest centre wins.
func (w *World) BeingAt(x, y, slack float32) (uint32, bool) {
	var (
		best  uint32
		bestD float32 = -1
	)
	q := w.beingFilter.Query()
	for q.Next() {
		pos, _, body, b, _ := q.Get()
		dx, dy := pos.X-x, pos.Y-y
		d := dx*dx + dy*dy
		r := body.Radius + slack
		if d <= r*r && (bestD < 0 || d < bestD) {
			best, bestD = b.ID, d
		}
	}
	return best, bestD >= 0
}

// Inspect returns a copy of the being with the given ID.
func (w *World) Inspect(id uint32) (BeingInfo, bool) {
	if _, ok := w.models[id]; !ok {
		return BeingInfo{}, false
	}
	q := w.beingFilter.Query()
	for q.Next() {
		pos, rot, body, b, _ := q.Get()
		if b.ID != id {
			continue
		}
		info := BeingInfo{Being: *b, Position: *pos, Rotation: *rot, Body: *body, Lifetime: w.lifetime.Get(id)}
		info.Being.Genome = append([]float32(nil), b.Genome...)
		q.Close()
		return info, true
	}
	return BeingInfo{}, false
}

// CaptureSenses returns the perception row counts of the captured being
// (beings, foods and obstructs, speechlets) from the last output pass.
func (w *World) CaptureSenses() [3]int { return w.captureSenses }
