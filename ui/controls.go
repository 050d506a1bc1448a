package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/telemetry"
)

// ControlsState is the simulation state the controls panel displays.
type ControlsState struct {
	Paused         bool
	StepsPerUpdate int
	MaxSteps       int
	History        []telemetry.GenerationStats // oldest first
}

// ControlsAction reports what the user asked for this frame.
type ControlsAction struct {
	TogglePause    bool
	Step           bool
	Reworld        bool
	ResetCamera    bool
	StepsPerUpdate int
}

// ControlsPanel renders the side panel with simulation controls, overlay
// toggles and recent generation lengths.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Draw renders the panel and returns the requested actions and the Y below it.
func (c *ControlsPanel) Draw(state ControlsState, overlays *OverlayRegistry) (ControlsAction, int32) {
	r := c.renderer
	pad := r.Theme.Padding
	inner := c.width - 2*pad
	x := float32(c.x + pad)
	y := c.y + pad
	action := ControlsAction{StepsPerUpdate: state.StepsPerUpdate}

	y = r.DrawSectionHeader(c.x+pad, y, "Simulation")

	half := float32(inner-6) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, toggleText(state.Paused, "Resume", "Pause")) {
		action.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 24}, "Step") {
		action.Step = true
	}
	y += 30
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Reworld") {
		action.Reworld = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: 24}, "Fit view") {
		action.ResetCamera = true
	}
	y += 32

	rl.DrawText(fmt.Sprintf("Steps per frame: %d", state.StepsPerUpdate), c.x+pad, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += r.Theme.LineHeight
	steps := gui.SliderBar(
		rl.Rectangle{X: x + 14, Y: float32(y), Width: float32(inner - 40), Height: 16},
		"1", fmt.Sprint(state.MaxSteps),
		float32(state.StepsPerUpdate), 1, float32(state.MaxSteps),
	)
	action.StepsPerUpdate = max(1, int(steps+0.5))
	y += 28

	y = r.DrawSectionHeader(c.x+pad, y, "Overlays")
	for _, desc := range overlays.All() {
		label := fmt.Sprintf("[%s] %s", desc.KeyLabel, desc.Name)
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: float32(inner), Height: 18}, toggleText(overlays.IsEnabled(desc.ID), "* "+label, label)) {
			overlays.Toggle(desc.ID)
		}
		y += 21
	}
	y += 6

	y = r.DrawSectionHeader(c.x+pad, y, "Generations")
	y = c.drawHistory(c.x+pad, y, inner, state.History)

	return action, y
}

// drawHistory draws recent generation lengths as bars, newest on the right.
func (c *ControlsPanel) drawHistory(x, y, width int32, history []telemetry.GenerationStats) int32 {
	const height = 48
	r := c.renderer
	rl.DrawRectangle(x, y, width, height, r.Theme.BarBg)
	if len(history) == 0 {
		return y + height + 4
	}

	var longest int32 = 1
	for _, g := range history {
		longest = max(longest, g.Length)
	}
	barW := max(2, width/int32(len(history)))
	for i, g := range history {
		h := int32(float32(height) * float32(g.Length) / float32(longest))
		color := r.Theme.BarFill
		if g.Extinction {
			color = r.Theme.BarFillLow
		}
		rl.DrawRectangle(x+int32(i)*barW, y+height-h, barW-1, h, color)
	}
	last := history[len(history)-1]
	rl.DrawText(fmt.Sprintf("last: %d ticks, %d survivors", last.Length, last.Survivors), x, y+height+3, r.Theme.FontSize, r.Theme.LabelColor)
	return y + height + 4 + r.Theme.LineHeight
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}
