package systems

// OOB reports whether a disc at (x, y) with radius r touches the border band of
// width margin around a world of side w.
func OOB(x, y, r, w, margin float32) bool {
	return x-r <= margin || x+r >= w-margin || y-r <= margin || y+r >= w-margin
}

// BorderInSight returns how close the world border is on each axis as
// [xDist, xRot, yDist, yRot]. An axis with no border within fov reads [1, 0].
// Distances are fractions of fov; rotations are the heading with a fixed
// offset naming which border is seen.
func BorderInSight(x, y, heading, w, fov float32) [4]float32 {
	out := [4]float32{1, 0, 1, 0}
	switch {
	case x+fov > w:
		out[0] = (w - x) / fov
		out[1] = heading + 0.5
	case x-fov < 0:
		out[0] = x / fov
		out[1] = heading - 0.5
	}
	switch {
	case y+fov > w:
		out[2] = (w - y) / fov
		out[3] = heading + 1
	case y-fov < 0:
		out[2] = y / fov
		out[3] = heading
	}
	return out
}
