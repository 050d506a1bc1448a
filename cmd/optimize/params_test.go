package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm-cable/neuralang/config"
)

func init() {
	config.MustInit("")
}

func TestDefaultsInsideBounds(t *testing.T) {
	e := EconomyFromConfig(config.Cfg())
	for i, x := range e.Normalize() {
		if x < 0 || x > 1 {
			t.Errorf("%s: default normalizes to %v, outside [0,1]", economyBounds[i].Name, x)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	want := EconomyFromConfig(config.Cfg())
	got := Denormalize(want.Normalize())
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDenormalizeClamps(t *testing.T) {
	low := make([]float64, Dim())
	high := make([]float64, Dim())
	for i := range low {
		low[i], high[i] = -3, 7
	}
	lo, hi := Denormalize(low), Denormalize(high)
	for i, b := range economyBounds {
		if v := *lo.fields()[i]; v != b.Min {
			t.Errorf("%s: low = %v, want %v", b.Name, v, b.Min)
		}
		if v := *hi.fields()[i]; v != b.Max {
			t.Errorf("%s: high = %v, want %v", b.Name, v, b.Max)
		}
	}
}

func TestApplyLeavesBaseUntouched(t *testing.T) {
	base := config.Cfg()
	before := base.Food.Value

	e := EconomyFromConfig(base)
	e.FoodValue = 4
	e.TireRate = 0.02
	cfg := e.Apply(base)

	if base.Food.Value != before {
		t.Errorf("base food value changed to %v", base.Food.Value)
	}
	if cfg.Food.Value != 4 || cfg.Being.TireRate != 0.02 {
		t.Errorf("applied config = food %v tire %v, want 4 and 0.02", cfg.Food.Value, cfg.Being.TireRate)
	}
	if got := EconomyFromConfig(cfg); got != e {
		t.Errorf("EconomyFromConfig(Apply(e)) = %+v, want %+v", got, e)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		results []seedResult
		want    Evaluation
	}{
		{
			name: "no generations",
			want: Evaluation{},
		},
		{
			name: "no extinctions",
			results: []seedResult{
				{lengths: []float64{100, 300}},
				{lengths: []float64{200}},
			},
			want: Evaluation{Fitness: -200, MeanLength: 200, Generations: 3},
		},
		{
			name: "half extinctions",
			results: []seedResult{
				{lengths: []float64{100, 100}, extinctions: 1},
			},
			want: Evaluation{Fitness: -75, MeanLength: 100, Generations: 2, ExtinctionRate: 0.5},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := score(tc.results)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("score mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateShortRun(t *testing.T) {
	fe := NewFitnessEvaluator(config.Cfg(), 50, []int64{1, 2})
	fitness := fe.Evaluate(context.Background(), EconomyFromConfig(config.Cfg()))
	if math.IsNaN(fitness) || fitness > 0 {
		t.Fatalf("fitness = %v, want a finite value <= 0", fitness)
	}
	if ev := fe.Last(); ev.Fitness != fitness {
		t.Errorf("Last().Fitness = %v, want %v", ev.Fitness, fitness)
	}
}

func TestEvaluateInvalidConfig(t *testing.T) {
	fe := NewFitnessEvaluator(config.Cfg(), 50, []int64{1})
	e := EconomyFromConfig(config.Cfg())
	e.FoodValue = 0
	if got := fe.Evaluate(context.Background(), e); got != 0 {
		t.Errorf("fitness = %v, want 0 for an invalid config", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42s", "0m42s"},
		{"3m5s", "3m05s"},
		{"1h2m3s", "1h02m03s"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			d, err := time.ParseDuration(tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := formatDuration(d); got != tc.want {
				t.Errorf("formatDuration(%s) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
