package neural

import (
	"errors"
	"fmt"
	"math/rand"
)

// Fixed model dimensions.
const (
	SpeechletLen          = 8                // Length of an emitted sound vector
	NumOutputs            = 4 + SpeechletLen // move, rotate, build, speak, speechlet...
	NumFoodObstructInputs = 4                // [is_food, dist, bearing, value]
	NumSelfInputs         = 5                // border sight (4) + energy
	numBeingRelInputs     = 3                // [bearing, dist, energy] before the genome
)

// Output indices.
const (
	OutMove = iota
	OutRotate
	OutBuild
	OutSpeak
	OutSpeechlet // first of SpeechletLen values
)

// NumBeingInputs returns the width of a being perception row for the given genome length.
func NumBeingInputs(genomeLen int) int {
	return numBeingRelInputs + genomeLen
}

// Mode selects how the four pooled encodings are combined.
type Mode uint8

const (
	ModeConcat Mode = iota // concatenate, final input = sum of widths
	ModeMean               // average, all widths equal the final input
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "concat", "":
		return ModeConcat, nil
	case "mean":
		return ModeMean, nil
	}
	return 0, fmt.Errorf("unknown model mode %q", s)
}

// String returns the config name of the mode.
func (m Mode) String() string {
	if m == ModeMean {
		return "mean"
	}
	return "concat"
}

// SumFxConfig describes the four set encoders and the final stack.
type SumFxConfig struct {
	Being        FFConfig `json:"being"`
	FoodObstruct FFConfig `json:"food_obstruct"`
	Speechlet    FFConfig `json:"speechlet"`
	Self         FFConfig `json:"self"`
	Final        FFConfig `json:"final"`
	Mode         Mode     `json:"mode"`
}

// StandardConfig returns the default model: one tanh layer per encoder of the
// given width and a single tanh layer to NumOutputs.
func StandardConfig(genomeLen, width int, mode Mode) SumFxConfig {
	enc := func(in int) FFConfig {
		return FFConfig{Sizes: []int{in, width}, Acts: []Activation{Tanh, Tanh}}
	}
	finalIn := 4 * width
	if mode == ModeMean {
		finalIn = width
	}
	return SumFxConfig{
		Being:        enc(NumBeingInputs(genomeLen)),
		FoodObstruct: enc(NumFoodObstructInputs),
		Speechlet:    enc(SpeechletLen),
		Self:         enc(NumSelfInputs),
		Final:        FFConfig{Sizes: []int{finalIn, NumOutputs}, Acts: []Activation{Tanh, Tanh}},
		Mode:         mode,
	}
}

// Validate checks that encoder widths line up with the final stack for the mode.
func (c SumFxConfig) Validate() error {
	for _, ff := range []struct {
		name string
		cfg  FFConfig
	}{
		{"being", c.Being}, {"food_obstruct", c.FoodObstruct}, {"speechlet", c.Speechlet},
		{"self", c.Self}, {"final", c.Final},
	} {
		if err := ff.cfg.Validate(); err != nil {
			return fmt.Errorf("%s encoder: %w", ff.name, err)
		}
	}
	b, f, s, self := c.Being.Out(), c.FoodObstruct.Out(), c.Speechlet.Out(), c.Self.Out()
	switch c.Mode {
	case ModeMean:
		if b != f || b != s || b != self {
			return errors.New("mean mode needs equal encoder output widths")
		}
		if c.Final.In() != b {
			return fmt.Errorf("mean mode needs final input %d, got %d", b, c.Final.In())
		}
	default:
		if c.Final.In() != b+f+s+self {
			return fmt.Errorf("concat mode needs final input %d, got %d", b+f+s+self, c.Final.In())
		}
	}
	return nil
}

// Equal reports whether two configs describe the same model shape.
func (c SumFxConfig) Equal(o SumFxConfig) bool {
	return c.Mode == o.Mode && c.Being.Equal(o.Being) && c.FoodObstruct.Equal(o.FoodObstruct) &&
		c.Speechlet.Equal(o.Speechlet) && c.Self.Equal(o.Self) && c.Final.Equal(o.Final)
}

// SumFx encodes each perception set row-wise, mean-pools every set, combines
// the four encodings and maps them to outputs.
type SumFx struct {
	Being        *FF
	FoodObstruct *FF
	Speechlet    *FF
	Self         *FF
	Final        *FF
	Mode         Mode
}

// NewSumFx creates a freshly initialised model. Panics if cfg is invalid.
func NewSumFx(cfg SumFxConfig, rng *rand.Rand) *SumFx {
	if err := cfg.Validate(); err != nil {
		panic("neural: " + err.Error())
	}
	return &SumFx{
		Being:        NewFF(cfg.Being, rng),
		FoodObstruct: NewFF(cfg.FoodObstruct, rng),
		Speechlet:    NewFF(cfg.Speechlet, rng),
		Self:         NewFF(cfg.Self, rng),
		Final:        NewFF(cfg.Final, rng),
		Mode:         cfg.Mode,
	}
}

// Config returns the shape description of the model.
func (m *SumFx) Config() SumFxConfig {
	return SumFxConfig{
		Being:        m.Being.Config,
		FoodObstruct: m.FoodObstruct.Config,
		Speechlet:    m.Speechlet.Config,
		Self:         m.Self.Config,
		Final:        m.Final.Config,
		Mode:         m.Mode,
	}
}

// Inputs holds one being's perception. Set slices are row-major.
type Inputs struct {
	Beings        []float32
	FoodObstructs []float32
	Speechlets    []float32
	Self          []float32
}

// SumFxScratch holds per-worker buffers for SumFx forward passes.
type SumFxScratch struct {
	ff           Scratch
	intermediate []float32
	pooled       [4][]float32
}

// encoders returns the set encoders in combination order.
func (m *SumFx) encoders() [4]*FF {
	return [4]*FF{m.Being, m.FoodObstruct, m.Speechlet, m.Self}
}

// Forward computes the model outputs into dst, which must hold Final.Out() floats.
// An empty set pools to zeros.
func (m *SumFx) Forward(in Inputs, dst []float32, s *SumFxScratch) {
	m.forward(in, dst, s, nil)
}

func (m *SumFx) forward(in Inputs, dst []float32, s *SumFxScratch, act *Activations) {
	sets := [4][]float32{in.Beings, in.FoodObstructs, in.Speechlets, in.Self}
	encs := m.encoders()

	width := m.Final.Config.In()
	if cap(s.intermediate) < width {
		s.intermediate = make([]float32, width)
	}
	inter := s.intermediate[:width]
	for i := range inter {
		inter[i] = 0
	}

	off := 0
	for k, enc := range encs {
		outW := enc.Config.Out()
		if cap(s.pooled[k]) < outW {
			s.pooled[k] = make([]float32, outW)
		}
		pooled := s.pooled[k][:outW]
		meanPool(pooled, enc, sets[k], &s.ff)
		if act != nil {
			act.Pooled[k] = append([]float32(nil), pooled...)
		}

		if m.Mode == ModeMean {
			for j, v := range pooled {
				inter[j] += v / 4
			}
		} else {
			copy(inter[off:off+outW], pooled)
			off += outW
		}
	}
	if act != nil {
		act.Intermediate = append([]float32(nil), inter...)
	}

	copy(dst, m.Final.Forward(inter, 1, &s.ff))
}

// meanPool encodes every row of set and writes the column mean to dst.
func meanPool(dst []float32, enc *FF, set []float32, s *Scratch) {
	for i := range dst {
		dst[i] = 0
	}
	rows := len(set) / enc.Config.In()
	if rows == 0 {
		return
	}
	out := enc.Forward(set, rows, s)
	w := len(dst)
	for r := 0; r < rows; r++ {
		row := out[r*w : (r+1)*w]
		for j, v := range row {
			dst[j] += v
		}
	}
	inv := 1 / float32(rows)
	for j := range dst {
		dst[j] *= inv
	}
}

// Activations holds captured intermediate values for the inspector.
type Activations struct {
	Pooled       [4][]float32 // being, food/obstruct, speechlet, self
	Intermediate []float32
	Outputs      []float32
}

// ForwardWithCapture computes the outputs and captures the pooled encodings.
func (m *SumFx) ForwardWithCapture(in Inputs) *Activations {
	act := &Activations{Outputs: make([]float32, m.Final.Config.Out())}
	var s SumFxScratch
	m.forward(in, act.Outputs, &s, act)
	return act
}

// Clone creates a deep copy of the model.
func (m *SumFx) Clone() *SumFx {
	return &SumFx{
		Being:        m.Being.Clone(),
		FoodObstruct: m.FoodObstruct.Clone(),
		Speechlet:    m.Speechlet.Clone(),
		Self:         m.Self.Clone(),
		Final:        m.Final.Clone(),
		Mode:         m.Mode,
	}
}

// NumParams returns the number of weights and biases.
func (m *SumFx) NumParams() int {
	n := m.Final.NumParams()
	for _, e := range m.encoders() {
		n += e.NumParams()
	}
	return n
}

// Crossover returns w*a + (1-w)*b for every layer, biases included.
// Panics if the models do not share a shape.
func Crossover(a, b *SumFx, w float32) *SumFx {
	return &SumFx{
		Being:        lerpFF(a.Being, b.Being, w),
		FoodObstruct: lerpFF(a.FoodObstruct, b.FoodObstruct, w),
		Speechlet:    lerpFF(a.Speechlet, b.Speechlet, w),
		Self:         lerpFF(a.Self, b.Self, w),
		Final:        lerpFF(a.Final, b.Final, w),
		Mode:         a.Mode,
	}
}

// Mutate adds rate times a freshly initialised model of the same shape to m:
// m + rate*fresh. m itself is left untouched.
func Mutate(m *SumFx, rate float32, rng *rand.Rand) *SumFx {
	fresh := NewSumFx(m.Config(), rng)
	return &SumFx{
		Being:        addScaledFF(m.Being, fresh.Being, rate),
		FoodObstruct: addScaledFF(m.FoodObstruct, fresh.FoodObstruct, rate),
		Speechlet:    addScaledFF(m.Speechlet, fresh.Speechlet, rate),
		Self:         addScaledFF(m.Self, fresh.Self, rate),
		Final:        addScaledFF(m.Final, fresh.Final, rate),
		Mode:         m.Mode,
	}
}
