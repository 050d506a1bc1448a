package systems

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestOOB(t *testing.T) {
	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{"centre", 300, 300, false},
		{"left band", 4.5, 300, true},
		{"just inside left", 4.6, 300, false},
		{"right band", 620.5, 300, true},
		{"top band", 300, 2, true},
		{"bottom band", 300, 621, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OOB(tt.x, tt.y, 3.5, 625, 1); got != tt.want {
				t.Errorf("OOB(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestBorderInSight(t *testing.T) {
	tests := []struct {
		name string
		x, y float32
		want [4]float32
	}{
		{"centre", 300, 300, [4]float32{1, 0, 1, 0}},
		{"near right", 600, 300, [4]float32{0.5, 0.7, 1, 0}},
		{"near left", 10, 300, [4]float32{0.2, -0.3, 1, 0}},
		{"near bottom", 300, 615, [4]float32{1, 0, 0.2, 1.2}},
		{"near top", 300, 25, [4]float32{1, 0, 0.5, 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BorderInSight(tt.x, tt.y, 0.2, 625, 50)
			for k := range got {
				if !near(got[k], tt.want[k]) {
					t.Errorf("BorderInSight = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestBearingIsHeadingRelative(t *testing.T) {
	tests := []struct {
		name    string
		dx, dy  float32
		heading float32
		want    float32
	}{
		{"ahead", 1, 0, 0, 0},
		{"left of east", 0, 1, 0, math.Pi / 2},
		{"ahead when facing north", 0, 1, math.Pi / 2, 0},
		{"wraps", -1, -0.0001, math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.dx, tt.dy, tt.heading)
			if math.Abs(float64(got-tt.want)) > 1e-3 {
				t.Errorf("Bearing = %v, want %v", got, tt.want)
			}
			if got < -math.Pi || got > math.Pi {
				t.Errorf("Bearing %v outside [-Pi, Pi]", got)
			}
		})
	}
}

func TestRows(t *testing.T) {
	p := Percept{Bearing: math.Pi / 2, Dist: 25}
	genome := []float32{0.1, 0.2}

	being := AppendBeingRow(nil, p, 50, 0.5, genome)
	if want := []float32{0.5, 0.5, 0.5, 0.1, 0.2}; !equalRows(being, want) {
		t.Errorf("being row = %v, want %v", being, want)
	}
	food := AppendFoodRow(nil, p, 50, 0.25)
	if want := []float32{1, 0.5, 0.5, 0.25}; !equalRows(food, want) {
		t.Errorf("food row = %v, want %v", food, want)
	}
	obs := AppendObstructRow(nil, p, 50, 1)
	if want := []float32{0, 0.5, 0.5, 1}; !equalRows(obs, want) {
		t.Errorf("obstruct row = %v, want %v", obs, want)
	}
	sent := AppendSentinel(food, 4)
	if len(sent) != 8 || sent[7] != -1 {
		t.Errorf("sentinel row = %v", sent)
	}
	self := SelfRow(make([]float32, 9), [4]float32{1, 0, 0.3, 1.2}, 0.7)
	if want := []float32{1, 0, 0.3, 1.2, 0.7}; !equalRows(self, want) {
		t.Errorf("self row = %v, want %v", self, want)
	}
}

func equalRows(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestCollidePush(t *testing.T) {
	c := Collide(100, 100, 3.5, 104, 100, 3.5)
	if !c.Touching() {
		t.Fatal("discs 4 apart with radii 3.5 should touch")
	}
	if !near(c.Overlap, 3) {
		t.Errorf("overlap = %v, want 3", c.Overlap)
	}
	px, py := c.Push(1.5)
	if !near(px, 2) || py != 0 {
		t.Errorf("push = (%v, %v), want (2, 0)", px, py)
	}

	apart := Collide(0, 0, 1, 10, 0, 1)
	if px, py := apart.Push(1.5); px != 0 || py != 0 {
		t.Errorf("non-touching push = (%v, %v)", px, py)
	}

	same := Collide(5, 5, 3.5, 5, 5, 3.5)
	if px, py := same.Push(1.5); px != 0 || py != 0 {
		t.Errorf("coincident push = (%v, %v)", px, py)
	}
	if a := same.Facing(1, 0); a != 0 {
		t.Errorf("coincident facing = %v", a)
	}
}

func TestImpactDamage(t *testing.T) {
	c := Collide(0, 0, 3.5, 5, 0, 3.5)
	tests := []struct {
		name     string
		dirX     float32
		headon   float32
		wantDmg  float32
		wantWall float32
	}{
		{"head on", 1, 0.25, 0.25, 0.1},
		{"rear", -1, 0.25, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := c.Facing(tt.dirX, 0)
			if got := ImpactDamage(a, tt.headon, 1, 1); !near(got, tt.wantDmg) {
				t.Errorf("ImpactDamage = %v, want %v", got, tt.wantDmg)
			}
			if got := WallDamage(a, 0.1, 1); !near(got, tt.wantWall) {
				t.Errorf("WallDamage = %v, want %v", got, tt.wantWall)
			}
		})
	}
	if got := ImpactDamage(1, 0.25, 1, 4); !near(got, 0.0625) {
		t.Errorf("substep damage = %v, want 0.0625", got)
	}
}
