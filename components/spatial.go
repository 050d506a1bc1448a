package components

// Position represents an entity's world position.
type Position struct {
	X, Y float32 `inspect:"label,fmt:%.1f"`
}

// Rotation represents a being's heading in radians.
// Heading is not wrapped; consumers wrap it when they need an angle in [-pi, pi].
type Rotation struct {
	Heading float32 `inspect:"label,fmt:%+.2f"`
}
