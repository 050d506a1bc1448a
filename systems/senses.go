package systems

import "math"

// Bearing returns the angle to a target offset (dx, dy) relative to heading,
// wrapped to [-Pi, Pi].
func Bearing(dx, dy, heading float32) float32 {
	return normalizeAngle(float32(math.Atan2(float64(dy), float64(dx))) - heading)
}

// Percept holds the relative geometry of a perceived entity.
type Percept struct {
	Bearing float32 // radians, relative to heading
	Dist    float32 // centre distance
}

// Perceive computes the percept of a target at (tx, ty) seen from (x, y).
func Perceive(x, y, heading, tx, ty float32) Percept {
	dx, dy := tx-x, ty-y
	return Percept{
		Bearing: Bearing(dx, dy, heading),
		Dist:    float32(math.Sqrt(float64(dx*dx + dy*dy))),
	}
}

// AppendBeingRow appends [bearing/Pi, dist/fov, energyRatio, genome...].
func AppendBeingRow(dst []float32, p Percept, fov, energyRatio float32, genome []float32) []float32 {
	dst = append(dst, p.Bearing/math.Pi, p.Dist/fov, energyRatio)
	return append(dst, genome...)
}

// AppendFoodRow appends [1, dist/fov, bearing/Pi, valueRatio].
func AppendFoodRow(dst []float32, p Percept, fov, valueRatio float32) []float32 {
	return append(dst, 1, p.Dist/fov, p.Bearing/math.Pi, valueRatio)
}

// AppendObstructRow appends [0, dist/fov, bearing/Pi, healthRatio].
func AppendObstructRow(dst []float32, p Percept, fov, healthRatio float32) []float32 {
	return append(dst, 0, p.Dist/fov, p.Bearing/math.Pi, healthRatio)
}

// AppendSentinel appends one row of -1s so a set is never empty.
func AppendSentinel(dst []float32, width int) []float32 {
	for i := 0; i < width; i++ {
		dst = append(dst, -1)
	}
	return dst
}

// SelfRow writes the border sight followed by the energy ratio into dst.
func SelfRow(dst []float32, border [4]float32, energyRatio float32) []float32 {
	dst = append(dst[:0], border[:]...)
	return append(dst, energyRatio)
}
