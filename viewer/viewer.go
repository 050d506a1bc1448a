// Package viewer shows a running game in a raylib window with a raygui
// control panel and a being inspector.
package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/camera"
	"github.com/pthm-cable/neuralang/config"
	"github.com/pthm-cable/neuralang/game"
	"github.com/pthm-cable/neuralang/ui"
	"github.com/pthm-cable/neuralang/world"
)

const (
	maxStepsPerUpdate = 50
	controlsLegend    = "Space pause | N step | R reworld | , . speed | arrows pan | wheel zoom | Home fit | click select"
)

// Viewer draws a game and feeds user input back into it.
type Viewer struct {
	game  *game.Game
	world *world.World
	cfg   *config.Config

	cam       *camera.Camera
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	controls  *ui.ControlsPanel
	inspector *ui.Inspector
	overlays  *ui.OverlayRegistry

	screenW, screenH float32 // whole window
	panelW           int32

	selected     uint32
	hasSelection bool
	stepOnce     bool
}

// New creates a viewer for g. The raylib window must already be open.
func New(g *game.Game) *Viewer {
	cfg := g.Config()
	panelW := int32(cfg.Screen.PanelW)
	sw := float32(rl.GetScreenWidth())
	sh := float32(rl.GetScreenHeight())

	v := &Viewer{
		game:      g,
		world:     g.World(),
		cfg:       cfg,
		cam:       camera.New(sw-float32(panelW), sh, cfg.Derived.WorldSize32),
		hud:       ui.NewHUD(),
		perfPanel: ui.NewPerfPanel(10, 120),
		controls:  ui.NewControlsPanel(int32(sw)-panelW, 0, panelW),
		inspector: ui.NewInspector(int32(sw)-panelW, 0, panelW),
		overlays:  ui.NewOverlayRegistry(),
		screenW:   sw,
		screenH:   sh,
		panelW:    panelW,
	}
	return v
}

// Update handles input and advances the simulation.
func (v *Viewer) Update() {
	v.handleInput()

	if v.stepOnce {
		v.game.StepOnce()
		v.stepOnce = false
	} else {
		v.game.UpdateHeadless()
	}
	v.checkSelection()
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 14, G: 16, B: 22, A: 255})

	viewW := int32(v.screenW) - v.panelW
	rl.BeginScissorMode(0, 0, viewW, int32(v.screenH))
	v.drawWorld()
	v.drawOverlays()
	rl.EndScissorMode()

	v.drawHUD()
	v.drawPanel()

	rl.EndDrawing()
	v.game.RecordFrame()
}

// viewWidth is the width of the world view left of the panel.
func (v *Viewer) viewWidth() float32 {
	return v.screenW - float32(v.panelW)
}

func (v *Viewer) drawHUD() {
	c := v.world.Counts()
	v.hud.Draw(ui.HUDData{
		Title:          "neuralang",
		Tick:           v.world.Tick(),
		Age:            v.world.Age(),
		Generation:     c.Generation,
		Beings:         c.Beings,
		Foods:          c.Foods,
		FleshFoods:     c.FleshFoods,
		Obstructs:      c.Obstructs,
		Speechlets:     c.Speechlets,
		FoodCeiling:    c.FoodCeiling,
		StepsPerUpdate: v.game.StepsPerUpdate(),
		FPS:            rl.GetFPS(),
		Paused:         v.game.Paused(),
	})
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.Draw(v.game.PerfStats())
	}
	v.hud.DrawControls(int32(v.screenH), controlsLegend)
}

// drawPanel draws the controls and, below them, the inspector, then applies
// whatever the user clicked.
func (v *Viewer) drawPanel() {
	x := int32(v.viewWidth())
	rl.DrawRectangle(x, 0, v.panelW, int32(v.screenH), rl.Color{R: 24, G: 26, B: 34, A: 255})

	v.controls.SetPosition(x, 0)
	action, y := v.controls.Draw(ui.ControlsState{
		Paused:         v.game.Paused(),
		StepsPerUpdate: v.game.StepsPerUpdate(),
		MaxSteps:       maxStepsPerUpdate,
		History:        v.game.History(),
	}, v.overlays)

	if v.hasSelection {
		v.inspector.SetPosition(x, y+6)
		v.inspector.Draw(v.inspectorData())
	}

	v.apply(action)
}

func (v *Viewer) apply(a ui.ControlsAction) {
	if a.TogglePause {
		v.game.SetPaused(!v.game.Paused())
	}
	if a.Step {
		v.stepOnce = true
	}
	if a.Reworld {
		v.game.Reworld()
		v.clearSelection()
	}
	if a.ResetCamera {
		v.cam.Reset()
	}
	v.game.SetStepsPerUpdate(a.StepsPerUpdate)
}
