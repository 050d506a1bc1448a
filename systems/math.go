package systems

import "math"

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// NormalizeAngle wraps an angle to [-Pi, Pi].
func NormalizeAngle(angle float32) float32 { return normalizeAngle(angle) }

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float32) float32 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float32) float32 {
	return float32(math.Sqrt(float64(distanceSq(x1, y1, x2, y2))))
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float32) float32 { return distance(x1, y1, x2, y2) }

// Direction returns the unit heading vector.
func Direction(heading float32) (dx, dy float32) {
	s, c := math.Sincos(float64(heading))
	return float32(c), float32(s)
}

func floorDiv(v, size float32) int {
	return int(math.Floor(float64(v / size)))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
