package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// GenerationStats summarises one generation, emitted on every reworld.
type GenerationStats struct {
	RunID             string `csv:"run_id"`
	Generation        int    `csv:"generation"`
	EndTick           int32  `csv:"end_tick"`
	Length            int32  `csv:"length"` // Ticks the generation lasted
	Survivors         int    `csv:"survivors"`
	Offspring         int    `csv:"offspring"`
	Extinction        bool   `csv:"extinction"`
	FoodCeiling       int    `csv:"food_ceiling"` // Ceiling for the next generation
	SpeechletsEmitted int    `csv:"speechlets_emitted"`
	SpeechletsHeard   int    `csv:"speechlets_heard"`
	ObstructsBuilt    int    `csv:"obstructs_built"`
	FoodsEaten        int    `csv:"foods_eaten"`
}

// LogValue implements slog.LogValuer for structured logging.
func (g GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", g.Generation),
		slog.Int("end_tick", int(g.EndTick)),
		slog.Int("length", int(g.Length)),
		slog.Int("survivors", g.Survivors),
		slog.Int("offspring", g.Offspring),
		slog.Bool("extinction", g.Extinction),
		slog.Int("food_ceiling", g.FoodCeiling),
		slog.Int("speechlets_emitted", g.SpeechletsEmitted),
		slog.Int("speechlets_heard", g.SpeechletsHeard),
		slog.Int("obstructs_built", g.ObstructsBuilt),
		slog.Int("foods_eaten", g.FoodsEaten),
	)
}

// LogStats logs the generation summary using slog.
func (g GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", g.Generation,
		"length", g.Length,
		"survivors", g.Survivors,
		"offspring", g.Offspring,
		"extinction", g.Extinction,
		"food_ceiling", g.FoodCeiling,
		"speechlets_heard", g.SpeechletsHeard,
	)
}

// GenerationHistory keeps every generation length seen in a run.
type GenerationHistory struct {
	lengths     []float64
	extinctions int
}

// Add records a finished generation.
func (h *GenerationHistory) Add(g GenerationStats) {
	h.lengths = append(h.lengths, float64(g.Length))
	if g.Extinction {
		h.extinctions++
	}
}

// Count returns the number of recorded generations.
func (h *GenerationHistory) Count() int { return len(h.lengths) }

// Extinctions returns how many generations ended with no survivors.
func (h *GenerationHistory) Extinctions() int { return h.extinctions }

// Lengths returns a copy of the recorded lengths in order.
func (h *GenerationHistory) Lengths() []float64 {
	return append([]float64(nil), h.lengths...)
}

// MeanLength returns the mean and sample standard deviation of generation
// lengths. The deviation is 0 with fewer than two generations.
func (h *GenerationHistory) MeanLength() (mean, std float64) {
	switch len(h.lengths) {
	case 0:
		return 0, 0
	case 1:
		return h.lengths[0], 0
	}
	return stat.MeanStdDev(h.lengths, nil)
}
