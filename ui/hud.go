package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/telemetry"
)

// HUDData holds the values shown in the top-left HUD.
type HUDData struct {
	Title          string
	Tick           int32
	Age            int32
	Generation     int
	Beings         int
	Foods          int
	FleshFoods     int
	Obstructs      int
	Speechlets     int
	FoodCeiling    int
	StepsPerUpdate int
	FPS            int32
	Paused         bool
}

// HUD renders the heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Gen %d | Age %d | Beings %d", data.Generation, data.Age, data.Beings),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Food %d/%d (+%d flesh) | Walls %d | Speech %d",
			data.Foods-data.FleshFoods, data.FoodCeiling, data.FleshFoods, data.Obstructs, data.Speechlets),
		10, 55, 14, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick %d | x%d | FPS %d", data.Tick, data.StepsPerUpdate, data.FPS),
		10, 73, 14, rl.LightGray,
	)
	if data.Paused {
		rl.DrawText("PAUSED", 10, 91, 16, rl.Yellow)
	}
}

// DrawControls renders the key legend along the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-22, 12, rl.Gray)
}

// PerfPanel renders the average time per step phase.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x, p.y = x, y
}

// Draw renders the phase breakdown.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y
	rl.DrawText("Step phases", x, y, 14, rl.White)
	y += 18
	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f TPS)",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 12, rl.Yellow)
	y += 15

	for ph := telemetry.Phase(0); ph < telemetry.NumPhases; ph++ {
		d := stats.PhaseAvg[ph]
		pct := stats.PhasePct[ph]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-10s %8s %5.1f%%", ph, d.Round(time.Microsecond), pct), x, y, 12, color)
		y += 14
	}
}
