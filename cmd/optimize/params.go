package main

import (
	"github.com/pthm-cable/neuralang/config"
)

// Economy is the set of energy and food parameters the tuner searches over.
// Field order matches economyBounds.
type Economy struct {
	TireRate            float64 `csv:"tire_rate"`
	MoveTireRate        float64 `csv:"move_tire_rate"`
	RotTireRate         float64 `csv:"rot_tire_rate"`
	HeadonDamage        float64 `csv:"headon_damage"`
	RearDamage          float64 `csv:"rear_damage"`
	SpawnObstructRatio  float64 `csv:"spawn_obstruct_ratio"`
	SpawnSpeechletRatio float64 `csv:"spawn_speechlet_ratio"`
	OOBPenalty          float64 `csv:"oob_penalty"`
	FoodValue           float64 `csv:"food_value"`
	FoodRotRate         float64 `csv:"food_rot_rate"`
	DeathEnergy         float64 `csv:"death_energy"`
	ObstructAgeRate     float64 `csv:"obstruct_age_rate"`
}

// bound is the search interval of one parameter.
type bound struct {
	Name     string
	Min, Max float64
}

var economyBounds = []bound{
	{"tire_rate", 0.001, 0.05},
	{"move_tire_rate", 0.001, 0.05},
	{"rot_tire_rate", 0.001, 0.05},
	{"headon_damage", 0.01, 0.5},
	{"rear_damage", 0.05, 2.0},
	{"spawn_obstruct_ratio", 0.01, 0.3},
	{"spawn_speechlet_ratio", 0.001, 0.1},
	{"oob_penalty", 0.0, 0.5},
	{"food_value", 0.5, 5.0},
	{"food_rot_rate", 0.0001, 0.01},
	{"death_energy", 0.1, 2.0},
	{"obstruct_age_rate", 0.0002, 0.01},
}

// Dim returns the number of searched parameters.
func Dim() int { return len(economyBounds) }

// fields returns pointers to e's fields in economyBounds order.
func (e *Economy) fields() []*float64 {
	return []*float64{
		&e.TireRate,
		&e.MoveTireRate,
		&e.RotTireRate,
		&e.HeadonDamage,
		&e.RearDamage,
		&e.SpawnObstructRatio,
		&e.SpawnSpeechletRatio,
		&e.OOBPenalty,
		&e.FoodValue,
		&e.FoodRotRate,
		&e.DeathEnergy,
		&e.ObstructAgeRate,
	}
}

// EconomyFromConfig reads the searched parameters out of cfg.
func EconomyFromConfig(cfg *config.Config) Economy {
	return Economy{
		TireRate:            cfg.Being.TireRate,
		MoveTireRate:        cfg.Being.MoveTireRate,
		RotTireRate:         cfg.Being.RotTireRate,
		HeadonDamage:        cfg.Being.HeadonDamage,
		RearDamage:          cfg.Being.RearDamage,
		SpawnObstructRatio:  cfg.Being.SpawnObstructRatio,
		SpawnSpeechletRatio: cfg.Being.SpawnSpeechletRatio,
		OOBPenalty:          cfg.Being.OOBPenalty,
		FoodValue:           cfg.Food.Value,
		FoodRotRate:         cfg.Food.RotRate,
		DeathEnergy:         cfg.Being.DeathEnergy,
		ObstructAgeRate:     cfg.Obstruct.AgeRate,
	}
}

// Apply returns a copy of cfg with e's values written in.
func (e Economy) Apply(cfg *config.Config) *config.Config {
	out := cfg.Clone()
	out.Being.TireRate = e.TireRate
	out.Being.MoveTireRate = e.MoveTireRate
	out.Being.RotTireRate = e.RotTireRate
	out.Being.HeadonDamage = e.HeadonDamage
	out.Being.RearDamage = e.RearDamage
	out.Being.SpawnObstructRatio = e.SpawnObstructRatio
	out.Being.SpawnSpeechletRatio = e.SpawnSpeechletRatio
	out.Being.OOBPenalty = e.OOBPenalty
	out.Food.Value = e.FoodValue
	out.Food.RotRate = e.FoodRotRate
	out.Being.DeathEnergy = e.DeathEnergy
	out.Obstruct.AgeRate = e.ObstructAgeRate
	out.Recompute()
	return out
}

// Normalize maps e into the unit cube, the space CMA-ES searches.
func (e Economy) Normalize() []float64 {
	x := make([]float64, Dim())
	for i, p := range e.fields() {
		b := economyBounds[i]
		x[i] = (*p - b.Min) / (b.Max - b.Min)
	}
	return x
}

// Denormalize maps a unit-cube point back to parameter values, clamped to
// their bounds.
func Denormalize(x []float64) Economy {
	var e Economy
	for i, p := range e.fields() {
		b := economyBounds[i]
		*p = min(b.Max, max(b.Min, b.Min+x[i]*(b.Max-b.Min)))
	}
	return e
}
