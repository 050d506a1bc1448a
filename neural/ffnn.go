// Package neural provides the feedforward models that drive beings.
package neural

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Activation is an elementwise nonlinearity applied after a dense layer.
type Activation uint8

const (
	Tanh Activation = iota
	Sigmoid
	ReLU
	Identity
)

var activationNames = [...]string{"tanh", "sigmoid", "relu", "identity"}

// String returns the activation name.
func (a Activation) String() string {
	if int(a) < len(activationNames) {
		return activationNames[a]
	}
	return fmt.Sprintf("activation(%d)", a)
}

// MarshalText implements encoding.TextMarshaler.
func (a Activation) MarshalText() ([]byte, error) {
	if int(a) >= len(activationNames) {
		return nil, fmt.Errorf("unknown activation %d", a)
	}
	return []byte(activationNames[a]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Activation) UnmarshalText(text []byte) error {
	for i, name := range activationNames {
		if name == string(text) {
			*a = Activation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown activation %q", text)
}

// apply runs the activation in place.
func (a Activation) apply(x []float32) {
	switch a {
	case Tanh:
		for i, v := range x {
			x[i] = tanh(v)
		}
	case Sigmoid:
		for i, v := range x {
			x[i] = float32(1 / (1 + math.Exp(-float64(v))))
		}
	case ReLU:
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	case Identity:
	}
}

// tanh evaluates the hyperbolic tangent in float64 precision.
func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// Dense is a fully connected layer. W is Out×In, row-major.
type Dense struct {
	In, Out int
	W       []float32
	B       []float32
}

// NewDense creates a layer with weights and biases drawn uniformly from
// [-1/sqrt(in), 1/sqrt(in)].
func NewDense(in, out int, rng *rand.Rand) *Dense {
	d := &Dense{
		In:  in,
		Out: out,
		W:   make([]float32, in*out),
		B:   make([]float32, out),
	}
	bound := 1 / math.Sqrt(float64(in))
	for i := range d.W {
		d.W[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	for i := range d.B {
		d.B[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return d
}

// Forward computes dst = x·Wᵀ + b for rows of x. x holds rows*In floats and
// dst must hold rows*Out floats.
func (d *Dense) Forward(dst, x []float32, rows int) {
	if rows == 0 {
		return
	}
	for r := 0; r < rows; r++ {
		copy(dst[r*d.Out:(r+1)*d.Out], d.B)
	}
	w := blas32.General{Rows: d.Out, Cols: d.In, Stride: d.In, Data: d.W}
	if rows == 1 {
		blas32.Gemv(blas.NoTrans, 1, w,
			blas32.Vector{N: d.In, Inc: 1, Data: x[:d.In]},
			1, blas32.Vector{N: d.Out, Inc: 1, Data: dst[:d.Out]})
		return
	}
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		blas32.General{Rows: rows, Cols: d.In, Stride: d.In, Data: x[:rows*d.In]},
		w, 1,
		blas32.General{Rows: rows, Cols: d.Out, Stride: d.Out, Data: dst[:rows*d.Out]})
}

// Clone creates a deep copy of the layer.
func (d *Dense) Clone() *Dense {
	return &Dense{
		In:  d.In,
		Out: d.Out,
		W:   append([]float32(nil), d.W...),
		B:   append([]float32(nil), d.B...),
	}
}

// lerpDense returns w*a + (1-w)*b.
func lerpDense(a, b *Dense, w float32) *Dense {
	if a.In != b.In || a.Out != b.Out {
		panic(fmt.Sprintf("neural: layer shapes do not match (%dx%d vs %dx%d)", a.Out, a.In, b.Out, b.In))
	}
	out := b.Clone()
	lerpInto(out.W, a.W, w)
	lerpInto(out.B, a.B, w)
	return out
}

// lerpInto sets dst = w*src + (1-w)*dst.
func lerpInto(dst, src []float32, w float32) {
	n := len(dst)
	vd := blas32.Vector{N: n, Inc: 1, Data: dst}
	blas32.Scal(1-w, vd)
	blas32.Axpy(w, blas32.Vector{N: n, Inc: 1, Data: src}, vd)
}

// addScaledDense returns a + rate*b.
func addScaledDense(a, b *Dense, rate float32) *Dense {
	if a.In != b.In || a.Out != b.Out {
		panic(fmt.Sprintf("neural: layer shapes do not match (%dx%d vs %dx%d)", a.Out, a.In, b.Out, b.In))
	}
	out := a.Clone()
	blas32.Axpy(rate, blas32.Vector{N: len(b.W), Inc: 1, Data: b.W}, blas32.Vector{N: len(out.W), Inc: 1, Data: out.W})
	blas32.Axpy(rate, blas32.Vector{N: len(b.B), Inc: 1, Data: b.B}, blas32.Vector{N: len(out.B), Inc: 1, Data: out.B})
	return out
}

// FFConfig describes a stack of dense layers: Sizes[i] -> Sizes[i+1] with
// Acts[i] applied after layer i. Acts has the same length as Sizes, so the
// last activation is never applied.
type FFConfig struct {
	Sizes []int        `json:"sizes"`
	Acts  []Activation `json:"acts"`
}

// Validate checks the layer description.
func (c FFConfig) Validate() error {
	if len(c.Sizes) < 2 {
		return fmt.Errorf("need at least two sizes, got %d", len(c.Sizes))
	}
	if len(c.Sizes) != len(c.Acts) {
		return fmt.Errorf("%d sizes but %d activations", len(c.Sizes), len(c.Acts))
	}
	for _, s := range c.Sizes {
		if s <= 0 {
			return fmt.Errorf("layer size %d must be positive", s)
		}
	}
	return nil
}

// Equal reports whether two configs describe the same stack.
func (c FFConfig) Equal(o FFConfig) bool {
	return slices.Equal(c.Sizes, o.Sizes) && slices.Equal(c.Acts, o.Acts)
}

// In returns the input width.
func (c FFConfig) In() int { return c.Sizes[0] }

// Out returns the output width.
func (c FFConfig) Out() int { return c.Sizes[len(c.Sizes)-1] }

// FF is a feedforward stack of dense layers.
type FF struct {
	Config FFConfig
	Layers []*Dense
}

// NewFF builds a freshly initialised stack. Panics if cfg is invalid.
func NewFF(cfg FFConfig, rng *rand.Rand) *FF {
	if err := cfg.Validate(); err != nil {
		panic("neural: " + err.Error())
	}
	ff := &FF{Config: cfg, Layers: make([]*Dense, len(cfg.Sizes)-1)}
	for i := range ff.Layers {
		ff.Layers[i] = NewDense(cfg.Sizes[i], cfg.Sizes[i+1], rng)
	}
	return ff
}

// Forward runs rows of x through the stack. The returned slice aliases s.
func (f *FF) Forward(x []float32, rows int, s *Scratch) []float32 {
	cur := x
	for i, layer := range f.Layers {
		buf := s.next(rows * layer.Out)
		layer.Forward(buf, cur, rows)
		f.Config.Acts[i].apply(buf)
		cur = buf
	}
	return cur
}

// Clone creates a deep copy of the stack.
func (f *FF) Clone() *FF {
	out := &FF{
		Config: FFConfig{
			Sizes: append([]int(nil), f.Config.Sizes...),
			Acts:  append([]Activation(nil), f.Config.Acts...),
		},
		Layers: make([]*Dense, len(f.Layers)),
	}
	for i, l := range f.Layers {
		out.Layers[i] = l.Clone()
	}
	return out
}

// NumParams returns the number of weights and biases.
func (f *FF) NumParams() int {
	n := 0
	for _, l := range f.Layers {
		n += len(l.W) + len(l.B)
	}
	return n
}

func lerpFF(a, b *FF, w float32) *FF {
	if len(a.Layers) != len(b.Layers) {
		panic(fmt.Sprintf("neural: layer counts do not match (%d vs %d)", len(a.Layers), len(b.Layers)))
	}
	out := b.Clone()
	for i := range out.Layers {
		out.Layers[i] = lerpDense(a.Layers[i], b.Layers[i], w)
	}
	return out
}

func addScaledFF(a, b *FF, rate float32) *FF {
	if len(a.Layers) != len(b.Layers) {
		panic(fmt.Sprintf("neural: layer counts do not match (%d vs %d)", len(a.Layers), len(b.Layers)))
	}
	out := a.Clone()
	for i := range out.Layers {
		out.Layers[i] = addScaledDense(a.Layers[i], b.Layers[i], rate)
	}
	return out
}

// Scratch holds reusable ping-pong buffers for forward passes.
// A Scratch must not be shared between goroutines.
type Scratch struct {
	bufs [2][]float32
	turn int
}

// next returns a buffer of length n, alternating between two backing arrays
// so a layer never writes over its own input.
func (s *Scratch) next(n int) []float32 {
	i := s.turn
	s.turn ^= 1
	if cap(s.bufs[i]) < n {
		s.bufs[i] = make([]float32, n)
	}
	return s.bufs[i][:n]
}
