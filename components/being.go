// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/neuralang/neural"

// Being holds an agent's state. Updates produced during a substep are
// accumulated in the Pending fields and committed by the cell update.
type Being struct {
	ID     uint32    `inspect:"label"`
	Energy float32   `inspect:"bar"`
	Genome []float32 `inspect:"skip"`
	Cell   int       `inspect:"label"` // Flat grid index holding this being

	PendingX        float32 `inspect:"skip"`
	PendingY        float32 `inspect:"skip"`
	PendingRotation float32 `inspect:"skip"`
	PendingEnergy   float32 `inspect:"skip"`

	Output [neural.NumOutputs]float32 `inspect:"skip"`
}

// Senses holds the perception sets gathered for a being during a tick.
// Each set is row-major: Beings has rows of BeingRow floats and so on.
type Senses struct {
	Beings        []float32
	FoodObstructs []float32
	Speechlets    []float32
}

// Reset clears all sets while keeping their capacity.
func (s *Senses) Reset() {
	s.Beings = s.Beings[:0]
	s.FoodObstructs = s.FoodObstructs[:0]
	s.Speechlets = s.Speechlets[:0]
}
