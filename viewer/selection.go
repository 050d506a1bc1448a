package viewer

import (
	"github.com/pthm-cable/neuralang/inspector"
	"github.com/pthm-cable/neuralang/ui"
)

// clickSlack is the click tolerance in screen pixels around a being.
const clickSlack = 6

// selectAt selects the being under the screen point, or clears the selection.
func (v *Viewer) selectAt(sx, sy float32) {
	wx, wy := v.cam.ScreenToWorld(sx, sy)
	id, ok := v.world.BeingAt(wx, wy, clickSlack/v.cam.Zoom)
	if !ok {
		v.clearSelection()
		return
	}
	v.selected = id
	v.hasSelection = true
	v.world.SetCapture(id, true)
}

func (v *Viewer) clearSelection() {
	v.hasSelection = false
	v.world.SetCapture(0, false)
}

// checkSelection drops the selection once the being is gone.
func (v *Viewer) checkSelection() {
	if v.hasSelection && v.world.Model(v.selected) == nil {
		v.clearSelection()
	}
}

// inspectorData gathers the selected being's state for the inspector panel.
func (v *Viewer) inspectorData() ui.InspectorData {
	info, ok := v.world.Inspect(v.selected)
	if !ok {
		return ui.InspectorData{}
	}
	maxEnergy := v.cfg.Derived.StartEnergy32

	var fields []inspector.Field
	fields = append(fields, inspector.ExtractFields(&info.Being, maxEnergy)...)
	fields = append(fields, inspector.ExtractFields(&info.Position, v.cfg.Derived.WorldSize32)...)
	fields = append(fields, inspector.ExtractFields(&info.Rotation, 1)...)
	fields = append(fields, inspector.ExtractFields(&info.Body, 1)...)

	return ui.InspectorData{
		Fields:      fields,
		Senses:      v.world.CaptureSenses(),
		Output:      info.Being.Output[:],
		Activations: v.world.Capture(),
		Lifetime:    info.Lifetime,
	}
}
