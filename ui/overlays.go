package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// OverlayID uniquely identifies an overlay.
type OverlayID string

const (
	OverlaySpeechlets OverlayID = "speechlets"
	OverlayHeadings   OverlayID = "headings"
	OverlayGrid       OverlayID = "grid"
	OverlayFOV        OverlayID = "fov"
	OverlayPerception OverlayID = "perception"
	OverlayPerf       OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // Toggle key, 0 for none
	KeyLabel string // Key label for display
	Category string
	Default  bool
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the viewer overlays.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	r.Register(OverlayDescriptor{ID: OverlaySpeechlets, Name: "Speech rings", Key: rl.KeyS, KeyLabel: "S", Category: "world", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayHeadings, Name: "Headings", Key: rl.KeyH, KeyLabel: "H", Category: "world", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayGrid, Name: "Cell grid", Key: rl.KeyG, KeyLabel: "G", Category: "world"})
	r.Register(OverlayDescriptor{ID: OverlayFOV, Name: "Field of view", Key: rl.KeyV, KeyLabel: "V", Category: "selection", Default: true})
	r.Register(OverlayDescriptor{ID: OverlayPerception, Name: "Perception", Key: rl.KeyP, KeyLabel: "P", Category: "selection"})
	r.Register(OverlayDescriptor{ID: OverlayPerf, Name: "Step timing", Key: rl.KeyF, KeyLabel: "F", Category: "debug"})
	return r
}

// Register adds an overlay in its default state.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.enabled[id]; !ok {
		return false
	}
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns the overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
