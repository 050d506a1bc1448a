package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a tick window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Counts at window end
	Generation  int `csv:"generation"`
	Beings      int `csv:"beings"`
	Foods       int `csv:"foods"`
	FleshFoods  int `csv:"flesh_foods"`
	Obstructs   int `csv:"obstructs"`
	Speechlets  int `csv:"speechlets"`
	FoodCeiling int `csv:"food_ceiling"`

	// Events during window
	Deaths            int     `csv:"deaths"`
	FoodsEaten        int     `csv:"foods_eaten"`
	FleshEaten        int     `csv:"flesh_eaten"`
	ObstructsBuilt    int     `csv:"obstructs_built"`
	SpeechletsEmitted int     `csv:"speechlets_emitted"`
	SpeechletsHeard   int     `csv:"speechlets_heard"`
	HeardPerSpoken    float64 `csv:"heard_per_spoken"`
	OOBHits           int     `csv:"oob_hits"`
	Collisions        int     `csv:"collisions"`
	Reworlds          int     `csv:"reworlds"`

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeEnergyStats calculates mean, population std and percentiles.
func ComputeEnergyStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("generation", s.Generation),
		slog.Int("beings", s.Beings),
		slog.Int("foods", s.Foods),
		slog.Int("flesh_foods", s.FleshFoods),
		slog.Int("obstructs", s.Obstructs),
		slog.Int("speechlets", s.Speechlets),
		slog.Int("food_ceiling", s.FoodCeiling),
		slog.Int("deaths", s.Deaths),
		slog.Int("foods_eaten", s.FoodsEaten),
		slog.Int("flesh_eaten", s.FleshEaten),
		slog.Int("obstructs_built", s.ObstructsBuilt),
		slog.Int("speechlets_emitted", s.SpeechletsEmitted),
		slog.Int("speechlets_heard", s.SpeechletsHeard),
		slog.Float64("heard_per_spoken", s.HeardPerSpoken),
		slog.Int("oob_hits", s.OOBHits),
		slog.Int("collisions", s.Collisions),
		slog.Int("reworlds", s.Reworlds),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_std", s.EnergyStd),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"generation", s.Generation,
		"beings", s.Beings,
		"foods", s.Foods,
		"flesh_foods", s.FleshFoods,
		"obstructs", s.Obstructs,
		"speechlets", s.Speechlets,
		"food_ceiling", s.FoodCeiling,
		"deaths", s.Deaths,
		"foods_eaten", s.FoodsEaten,
		"obstructs_built", s.ObstructsBuilt,
		"speechlets_emitted", s.SpeechletsEmitted,
		"speechlets_heard", s.SpeechletsHeard,
		"oob_hits", s.OOBHits,
		"collisions", s.Collisions,
		"energy_mean", s.EnergyMean,
		"energy_p50", s.EnergyP50,
	)
}
