package neural

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func naiveDense(d *Dense, x []float32, rows int) []float32 {
	out := make([]float32, rows*d.Out)
	for r := 0; r < rows; r++ {
		for o := 0; o < d.Out; o++ {
			sum := d.B[o]
			for i := 0; i < d.In; i++ {
				sum += d.W[o*d.In+i] * x[r*d.In+i]
			}
			out[r*d.Out+o] = sum
		}
	}
	return out
}

func approxEqual(a, b []float32, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return false
		}
	}
	return true
}

func TestNewDenseInitBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d := NewDense(16, 8, rng)

	if len(d.W) != 16*8 || len(d.B) != 8 {
		t.Fatalf("shape = %d weights, %d biases", len(d.W), len(d.B))
	}
	bound := float32(1 / math.Sqrt(16))
	for i, w := range d.W {
		if w < -bound || w > bound {
			t.Errorf("W[%d] = %f outside ±%f", i, w, bound)
		}
	}
	for i, b := range d.B {
		if b < -bound || b > bound {
			t.Errorf("B[%d] = %f outside ±%f", i, b, bound)
		}
	}
}

func TestDenseForwardMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := NewDense(5, 3, rng)

	for _, rows := range []int{1, 2, 7} {
		x := make([]float32, rows*5)
		for i := range x {
			x[i] = rng.Float32()*2 - 1
		}
		got := make([]float32, rows*3)
		d.Forward(got, x, rows)
		want := naiveDense(d, x, rows)
		if !approxEqual(got, want, 1e-5) {
			t.Errorf("rows=%d: got %v, want %v", rows, got, want)
		}
	}
}

func TestDenseForwardZeroRows(t *testing.T) {
	d := NewDense(4, 2, rand.New(rand.NewSource(1)))
	d.Forward(nil, nil, 0) // must not panic
}

func TestFFConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FFConfig
		wantErr bool
	}{
		{"valid", FFConfig{Sizes: []int{3, 4, 2}, Acts: []Activation{Tanh, ReLU, Tanh}}, false},
		{"too few sizes", FFConfig{Sizes: []int{3}, Acts: []Activation{Tanh}}, true},
		{"act count mismatch", FFConfig{Sizes: []int{3, 2}, Acts: []Activation{Tanh}}, true},
		{"zero size", FFConfig{Sizes: []int{3, 0}, Acts: []Activation{Tanh, Tanh}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewFFPanicsOnInvalidConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewFF(FFConfig{Sizes: []int{2}, Acts: []Activation{Tanh}}, rand.New(rand.NewSource(1)))
}

func TestFFForwardActivations(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := FFConfig{Sizes: []int{4, 6, 2}, Acts: []Activation{ReLU, Sigmoid, Tanh}}
	ff := NewFF(cfg, rng)

	x := []float32{1, -2, 0.5, 3, -1, 0, 2, 2}
	var s Scratch
	out := ff.Forward(x, 2, &s)
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	// Last activation applies to layer 1, which is sigmoid
	for i, v := range out {
		if v <= 0 || v >= 1 {
			t.Errorf("out[%d] = %f, want in (0,1)", i, v)
		}
	}
}

func TestFFForwardDeterministic(t *testing.T) {
	ff := NewFF(FFConfig{Sizes: []int{3, 5, 2}, Acts: []Activation{Tanh, Tanh, Tanh}}, rand.New(rand.NewSource(7)))
	x := []float32{0.1, 0.2, 0.3}

	var s1, s2 Scratch
	a := append([]float32(nil), ff.Forward(x, 1, &s1)...)
	b := append([]float32(nil), ff.Forward(x, 1, &s2)...)
	c := append([]float32(nil), ff.Forward(x, 1, &s1)...)
	if !approxEqual(a, b, 0) || !approxEqual(a, c, 0) {
		t.Errorf("forward not deterministic: %v %v %v", a, b, c)
	}
}

func TestFFCloneIndependent(t *testing.T) {
	ff := NewFF(FFConfig{Sizes: []int{2, 2}, Acts: []Activation{Tanh, Tanh}}, rand.New(rand.NewSource(9)))
	c := ff.Clone()
	c.Layers[0].W[0] = 99
	c.Config.Sizes[0] = 17
	if ff.Layers[0].W[0] == 99 || ff.Config.Sizes[0] == 17 {
		t.Error("clone shares memory with original")
	}
}

func TestFFNumParams(t *testing.T) {
	ff := NewFF(FFConfig{Sizes: []int{3, 4, 2}, Acts: []Activation{Tanh, Tanh, Tanh}}, rand.New(rand.NewSource(1)))
	if got, want := ff.NumParams(), 3*4+4+4*2+2; got != want {
		t.Errorf("NumParams() = %d, want %d", got, want)
	}
}

func TestActivationText(t *testing.T) {
	data, err := json.Marshal([]Activation{Tanh, ReLU, Identity})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["tanh","relu","identity"]` {
		t.Errorf("marshal = %s", data)
	}
	var back []Activation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 || back[1] != ReLU {
		t.Errorf("unmarshal = %v", back)
	}
	var bad Activation
	if err := bad.UnmarshalText([]byte("gelu")); err == nil {
		t.Error("expected error for unknown activation")
	}
}

func TestLerpDenseShapeMismatchPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	lerpDense(NewDense(2, 3, rng), NewDense(3, 2, rng), 0.5)
}

func BenchmarkDenseForwardBatch(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	d := NewDense(13, 8, rng)
	const rows = 32
	x := make([]float32, rows*13)
	for i := range x {
		x[i] = rng.Float32()
	}
	dst := make([]float32, rows*8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Forward(dst, x, rows)
	}
}
