package neural

import "fmt"

// LayerWeights holds one dense layer's parameters.
type LayerWeights struct {
	W []float32 `json:"w"` // [Out * In]
	B []float32 `json:"b"` // [Out]
}

// FFWeights holds a stack's shape and parameters.
type FFWeights struct {
	Sizes  []int          `json:"sizes"`
	Acts   []Activation   `json:"acts"`
	Layers []LayerWeights `json:"layers"`
}

// Weights holds a full model for JSON serialization.
type Weights struct {
	Mode         Mode      `json:"mode"`
	Being        FFWeights `json:"being"`
	FoodObstruct FFWeights `json:"food_obstruct"`
	Speechlet    FFWeights `json:"speechlet"`
	Self         FFWeights `json:"self"`
	Final        FFWeights `json:"final"`
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (f *FF) marshalWeights() FFWeights {
	fw := FFWeights{
		Sizes:  append([]int(nil), f.Config.Sizes...),
		Acts:   append([]Activation(nil), f.Config.Acts...),
		Layers: make([]LayerWeights, len(f.Layers)),
	}
	for i, l := range f.Layers {
		fw.Layers[i] = LayerWeights{
			W: append([]float32(nil), l.W...),
			B: append([]float32(nil), l.B...),
		}
	}
	return fw
}

func ffFromWeights(fw FFWeights) (*FF, error) {
	cfg := FFConfig{Sizes: fw.Sizes, Acts: fw.Acts}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(fw.Layers) != len(fw.Sizes)-1 {
		return nil, fmt.Errorf("%d layers for %d sizes", len(fw.Layers), len(fw.Sizes))
	}
	ff := &FF{
		Config: FFConfig{
			Sizes: append([]int(nil), fw.Sizes...),
			Acts:  append([]Activation(nil), fw.Acts...),
		},
		Layers: make([]*Dense, len(fw.Layers)),
	}
	for i, lw := range fw.Layers {
		in, out := fw.Sizes[i], fw.Sizes[i+1]
		if len(lw.W) != in*out || len(lw.B) != out {
			return nil, fmt.Errorf("layer %d: want %d weights and %d biases, got %d and %d",
				i, in*out, out, len(lw.W), len(lw.B))
		}
		ff.Layers[i] = &Dense{
			In:  in,
			Out: out,
			W:   append([]float32(nil), lw.W...),
			B:   append([]float32(nil), lw.B...),
		}
	}
	return ff, nil
}

// MarshalWeights flattens the model for JSON serialization.
func (m *SumFx) MarshalWeights() Weights {
	return Weights{
		Mode:         m.Mode,
		Being:        m.Being.marshalWeights(),
		FoodObstruct: m.FoodObstruct.marshalWeights(),
		Speechlet:    m.Speechlet.marshalWeights(),
		Self:         m.Self.marshalWeights(),
		Final:        m.Final.marshalWeights(),
	}
}

// UnmarshalWeights rebuilds a model from its serialized form.
func UnmarshalWeights(w Weights) (*SumFx, error) {
	m := &SumFx{Mode: w.Mode}
	parts := []struct {
		name string
		dst  **FF
		src  FFWeights
	}{
		{"being", &m.Being, w.Being},
		{"food_obstruct", &m.FoodObstruct, w.FoodObstruct},
		{"speechlet", &m.Speechlet, w.Speechlet},
		{"self", &m.Self, w.Self},
		{"final", &m.Final, w.Final},
	}
	for _, p := range parts {
		ff, err := ffFromWeights(p.src)
		if err != nil {
			return nil, fmt.Errorf("%s encoder: %w", p.name, err)
		}
		*p.dst = ff
	}
	if err := m.Config().Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
