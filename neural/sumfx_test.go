package neural

import (
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testGenomeLen = 10

func testInputs(rng *rand.Rand, beings, foods, speechlets int) Inputs {
	fill := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = rng.Float32()*2 - 1
		}
		return out
	}
	return Inputs{
		Beings:        fill(beings * NumBeingInputs(testGenomeLen)),
		FoodObstructs: fill(foods * NumFoodObstructInputs),
		Speechlets:    fill(speechlets * SpeechletLen),
		Self:          fill(NumSelfInputs),
	}
}

func TestStandardConfigShapes(t *testing.T) {
	tests := []struct {
		mode    Mode
		finalIn int
	}{
		{ModeConcat, 32},
		{ModeMean, 8},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			cfg := StandardConfig(testGenomeLen, 8, tt.mode)
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if cfg.Final.In() != tt.finalIn {
				t.Errorf("final in = %d, want %d", cfg.Final.In(), tt.finalIn)
			}
			if cfg.Final.Out() != NumOutputs {
				t.Errorf("final out = %d, want %d", cfg.Final.Out(), NumOutputs)
			}
			if cfg.Being.In() != 13 {
				t.Errorf("being in = %d, want 13", cfg.Being.In())
			}
		})
	}
}

func TestSumFxConfigValidateMismatch(t *testing.T) {
	cfg := StandardConfig(testGenomeLen, 8, ModeConcat)
	cfg.Final.Sizes[0] = 31
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "concat") {
		t.Errorf("Validate() = %v, want concat width error", err)
	}

	cfg = StandardConfig(testGenomeLen, 8, ModeMean)
	cfg.Self.Sizes[1] = 4
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unequal widths in mean mode")
	}
}

func TestNewSumFxPanicsOnInvalidConfig(t *testing.T) {
	cfg := StandardConfig(testGenomeLen, 8, ModeConcat)
	cfg.Final.Sizes[0] = 5
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewSumFx(cfg, rand.New(rand.NewSource(1)))
}

func TestSumFxForwardRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, mode := range []Mode{ModeConcat, ModeMean} {
		t.Run(mode.String(), func(t *testing.T) {
			m := NewSumFx(StandardConfig(testGenomeLen, 8, mode), rng)
			out := make([]float32, NumOutputs)
			var s SumFxScratch
			m.Forward(testInputs(rng, 5, 9, 2), out, &s)
			for i, v := range out {
				if v < -1 || v > 1 {
					t.Errorf("out[%d] = %f outside [-1,1]", i, v)
				}
			}
		})
	}
}

func TestSumFxForwardDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)
	in := testInputs(rng, 3, 4, 1)

	var s SumFxScratch
	a := make([]float32, NumOutputs)
	b := make([]float32, NumOutputs)
	m.Forward(in, a, &s)
	// Reuse the scratch with a larger input in between
	m.Forward(testInputs(rng, 20, 40, 10), b, &s)
	m.Forward(in, b, &s)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("forward differs on scratch reuse (-first +second):\n%s", diff)
	}
}

func TestSumFxForwardEmptySets(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)

	act := m.ForwardWithCapture(Inputs{Self: make([]float32, NumSelfInputs)})
	for k := 0; k < 3; k++ {
		for j, v := range act.Pooled[k] {
			if v != 0 {
				t.Errorf("pooled[%d][%d] = %f, want 0 for empty set", k, j, v)
			}
		}
	}
	if len(act.Outputs) != NumOutputs {
		t.Errorf("len(outputs) = %d, want %d", len(act.Outputs), NumOutputs)
	}
}

func TestSumFxMeanPoolOrderInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)

	in := testInputs(rng, 0, 3, 0)
	swapped := in
	swapped.FoodObstructs = append([]float32(nil), in.FoodObstructs[4:8]...)
	swapped.FoodObstructs = append(swapped.FoodObstructs, in.FoodObstructs[0:4]...)
	swapped.FoodObstructs = append(swapped.FoodObstructs, in.FoodObstructs[8:12]...)

	a := m.ForwardWithCapture(in)
	b := m.ForwardWithCapture(swapped)
	if !approxEqual(a.Outputs, b.Outputs, 1e-5) {
		t.Errorf("row order changed outputs: %v vs %v", a.Outputs, b.Outputs)
	}
}

func TestSumFxMeanModeAverages(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeMean), rng)
	act := m.ForwardWithCapture(testInputs(rng, 2, 2, 2))

	for j := range act.Intermediate {
		var sum float32
		for k := 0; k < 4; k++ {
			sum += act.Pooled[k][j]
		}
		if !approxEqual([]float32{act.Intermediate[j]}, []float32{sum / 4}, 1e-6) {
			t.Errorf("intermediate[%d] = %f, want %f", j, act.Intermediate[j], sum/4)
		}
	}
}

func TestCrossoverEndpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(19))
	cfg := StandardConfig(testGenomeLen, 8, ModeConcat)
	a := NewSumFx(cfg, rng)
	b := NewSumFx(cfg, rng)

	if diff := cmp.Diff(a.MarshalWeights(), Crossover(a, b, 1).MarshalWeights()); diff != "" {
		t.Errorf("Crossover(a, b, 1) != a:\n%s", diff)
	}
	if diff := cmp.Diff(b.MarshalWeights(), Crossover(a, b, 0).MarshalWeights()); diff != "" {
		t.Errorf("Crossover(a, b, 0) != b:\n%s", diff)
	}

	mid := Crossover(a, b, 0.5)
	want := 0.5*a.Final.Layers[0].W[0] + 0.5*b.Final.Layers[0].W[0]
	if !approxEqual([]float32{mid.Final.Layers[0].W[0]}, []float32{want}, 1e-6) {
		t.Errorf("midpoint weight = %f, want %f", mid.Final.Layers[0].W[0], want)
	}
}

func TestCrossoverDoesNotAliasParents(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	cfg := StandardConfig(testGenomeLen, 8, ModeConcat)
	a, b := NewSumFx(cfg, rng), NewSumFx(cfg, rng)
	before := b.Being.Layers[0].W[0]

	child := Crossover(a, b, 0.3)
	child.Being.Layers[0].W[0] = 42
	if b.Being.Layers[0].W[0] != before {
		t.Error("child aliases parent weights")
	}
}

func TestMutateRateZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)
	got := Mutate(m, 0, rng)
	if diff := cmp.Diff(m.MarshalWeights(), got.MarshalWeights()); diff != "" {
		t.Errorf("Mutate(m, 0) changed weights:\n%s", diff)
	}

	changed := Mutate(m, 0.05, rng)
	if cmp.Equal(m.MarshalWeights(), changed.MarshalWeights()) {
		t.Error("Mutate(m, 0.05) left weights unchanged")
	}
}

func TestMutateAddsScaledFreshWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(37))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)
	enc := m.encoders()
	for _, ff := range append(enc[:], m.Final) {
		for _, l := range ff.Layers {
			for i := range l.W {
				l.W[i] = 1
			}
			for i := range l.B {
				l.B[i] = 1
			}
		}
	}

	const rate = 0.05
	got := Mutate(m, rate, rng)
	genc := got.encoders()
	for k, ff := range append(genc[:], got.Final) {
		for li, l := range ff.Layers {
			// Fresh weights lie in [-1/sqrt(in), 1/sqrt(in)].
			bound := rate/math.Sqrt(float64(l.In)) + 1e-6
			for _, v := range append(append([]float32(nil), l.W...), l.B...) {
				if d := math.Abs(float64(v) - 1); d > bound {
					t.Fatalf("stack %d layer %d: weight %f drifted %f from 1, want <= %f", k, li, v, d, bound)
				}
			}
		}
	}
	if m.Final.Layers[0].W[0] != 1 {
		t.Errorf("Mutate modified its input: %f", m.Final.Layers[0].W[0])
	}
}

func TestSumFxOutputSquashedOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	for _, mode := range []Mode{ModeConcat, ModeMean} {
		t.Run(mode.String(), func(t *testing.T) {
			m := NewSumFx(StandardConfig(testGenomeLen, 8, mode), rng)
			final := m.Final.Layers[len(m.Final.Layers)-1]
			clear(final.W)
			for i := range final.B {
				final.B[i] = 1
			}

			out := make([]float32, NumOutputs)
			var s SumFxScratch
			m.Forward(testInputs(rng, 2, 3, 1), out, &s)

			want := make([]float32, NumOutputs)
			for i := range want {
				want[i] = float32(math.Tanh(1))
			}
			if !approxEqual(out, want, 1e-6) {
				t.Errorf("outputs = %v, want tanh(1) = %f everywhere", out, math.Tanh(1))
			}
		})
	}
}

func TestSumFxCloneIndependent(t *testing.T) {
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rand.New(rand.NewSource(31)))
	c := m.Clone()
	c.Speechlet.Layers[0].B[0] = 7
	if m.Speechlet.Layers[0].B[0] == 7 {
		t.Error("clone shares memory with original")
	}
	if c.NumParams() != m.NumParams() {
		t.Errorf("NumParams differ: %d vs %d", c.NumParams(), m.NumParams())
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	for _, mode := range []Mode{ModeConcat, ModeMean} {
		t.Run(mode.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(37))
			m := NewSumFx(StandardConfig(testGenomeLen, 8, mode), rng)

			data, err := json.Marshal(m.MarshalWeights())
			if err != nil {
				t.Fatal(err)
			}
			var w Weights
			if err := json.Unmarshal(data, &w); err != nil {
				t.Fatal(err)
			}
			back, err := UnmarshalWeights(w)
			if err != nil {
				t.Fatalf("UnmarshalWeights() = %v", err)
			}
			if diff := cmp.Diff(m.MarshalWeights(), back.MarshalWeights()); diff != "" {
				t.Errorf("round trip mismatch:\n%s", diff)
			}

			in := testInputs(rng, 2, 3, 1)
			if !approxEqual(m.ForwardWithCapture(in).Outputs, back.ForwardWithCapture(in).Outputs, 0) {
				t.Error("restored model produces different outputs")
			}
		})
	}
}

func TestUnmarshalWeightsRejectsBadShapes(t *testing.T) {
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rand.New(rand.NewSource(41)))
	w := m.MarshalWeights()
	w.Self.Layers[0].W = w.Self.Layers[0].W[:3]
	if _, err := UnmarshalWeights(w); err == nil || !strings.Contains(err.Error(), "self") {
		t.Errorf("UnmarshalWeights() = %v, want self layer error", err)
	}
}

func TestOutputDescriptors(t *testing.T) {
	descs := OutputDescriptors()
	if len(descs) != NumOutputs {
		t.Fatalf("len = %d, want %d", len(descs), NumOutputs)
	}
	if descs[OutSpeak].ID != "speak" {
		t.Errorf("OutSpeak descriptor = %q", descs[OutSpeak].ID)
	}
	if _, ok := OutputByID("s7"); !ok {
		t.Error("missing s7 descriptor")
	}
	if len(SelfInputDescriptors()) != NumSelfInputs {
		t.Errorf("self descriptors = %d, want %d", len(SelfInputDescriptors()), NumSelfInputs)
	}
}

func BenchmarkSumFxForward(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	m := NewSumFx(StandardConfig(testGenomeLen, 8, ModeConcat), rng)
	in := testInputs(rng, 8, 40, 4)
	out := make([]float32, NumOutputs)
	var s SumFxScratch

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Forward(in, out, &s)
	}
}
