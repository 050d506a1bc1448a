package components

import (
	"fmt"

	"github.com/pthm-cable/neuralang/neural"
)

// Kind identifies the entity kind in snapshots and the viewer.
type Kind uint8

const (
	KindBeing Kind = iota
	KindFood
	KindObstruct
	KindSpeechlet
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBeing:
		return "being"
	case KindFood:
		return "food"
	case KindObstruct:
		return "obstruct"
	case KindSpeechlet:
		return "speechlet"
	default:
		return "unknown"
	}
}

// Food is a consumable disc. Flesh food is scattered where beings die.
type Food struct {
	ID    uint32
	Value float32
	Eaten bool
	Flesh bool
}

// Obstruct is a wall built by a being.
type Obstruct struct {
	ID     uint32
	Health float32
}

// Speechlet is an emitted sound vector. Heard records the IDs of beings
// that already received it.
type Speechlet struct {
	Vec   [neural.SpeechletLen]float32
	Age   float32
	Heard map[uint32]struct{}
}

// HeardBy reports whether the being with the given ID has heard this speechlet.
func (s *Speechlet) HeardBy(id uint32) bool {
	_, ok := s.Heard[id]
	return ok
}

// MarkHeard records that the being with the given ID heard this speechlet.
func (s *Speechlet) MarkHeard(id uint32) {
	if s.Heard == nil {
		s.Heard = make(map[uint32]struct{})
	}
	s.Heard[id] = struct{}{}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k > KindSpeechlet {
		return nil, fmt.Errorf("unknown kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindBeing; c <= KindSpeechlet; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", text)
}
