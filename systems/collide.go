package systems

import "math"

// Contact describes two discs relative to the first.
type Contact struct {
	DX, DY  float32 // centre of the second minus centre of the first
	Dist    float32
	Overlap float32 // r1 + r2 - Dist, positive when touching
}

// Touching reports a positive overlap.
func (c Contact) Touching() bool { return c.Overlap > 0 }

// Collide computes the contact between two discs.
func Collide(x1, y1, r1, x2, y2, r2 float32) Contact {
	dx, dy := x2-x1, y2-y1
	d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	return Contact{DX: dx, DY: dy, Dist: d, Overlap: r1 + r2 - d}
}

// Push returns the displacement toward the other disc, (o/d) * c1c2 / divisor.
// Callers subtract it to separate the discs. Coincident centres give no push.
func (c Contact) Push(divisor float32) (px, py float32) {
	if c.Dist == 0 || !c.Touching() {
		return 0, 0
	}
	k := c.Overlap / c.Dist / divisor
	return c.DX * k, c.DY * k
}

// Facing returns dir . normalize(c1c2): 1 when heading straight at the other
// disc, -1 when it is directly behind.
func (c Contact) Facing(dirX, dirY float32) float32 {
	if c.Dist == 0 {
		return 0
	}
	return (dirX*c.DX + dirY*c.DY) / c.Dist
}

// ImpactDamage returns the energy lost by a being in contact. Facing into the
// contact costs headon*a; being hit from behind costs rear*|a|. The result is
// split across substeps.
func ImpactDamage(a, headon, rear, substeps float32) float32 {
	if a > 0 {
		return headon * a / substeps
	}
	return rear * abs32(a) / substeps
}

// WallDamage is like ImpactDamage but only head-on contact hurts.
func WallDamage(a, headon, substeps float32) float32 {
	if a > 0 {
		return headon * a / substeps
	}
	return 0
}
