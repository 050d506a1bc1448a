package viewer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/ui"
	"github.com/pthm-cable/neuralang/world"
)

var (
	beingColor     = rl.Color{R: 90, G: 170, B: 255, A: 255}
	plantColor     = rl.Color{R: 70, G: 200, B: 90, A: 255}
	fleshColor     = rl.Color{R: 220, G: 60, B: 60, A: 255}
	obstructColor  = rl.White
	speechletColor = rl.Color{R: 250, G: 210, B: 90, A: 255}
	borderColor    = rl.Color{R: 60, G: 64, B: 80, A: 255}
)

// minAlpha keeps faded entities visible.
const minAlpha = 0.15

// drawWorld draws the border, speechlets, foods, obstructs and beings.
func (v *Viewer) drawWorld() {
	size := v.cfg.Derived.WorldSize32
	x0, y0 := v.cam.WorldToScreen(0, 0)
	x1, y1 := v.cam.WorldToScreen(size, size)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, borderColor)

	foodValue := float32(v.cfg.Food.Value)
	startHealth := float32(v.cfg.Obstruct.StartHealth)
	startAge := float32(v.cfg.Speechlet.StartAge)
	rings := v.overlays.IsEnabled(ui.OverlaySpeechlets)

	v.world.EachDisc(func(d world.DiscView) {
		if !v.cam.IsVisible(d.X, d.Y, d.Radius) {
			return
		}
		sx, sy := v.cam.WorldToScreen(d.X, d.Y)
		r := max(1, d.Radius*v.cam.Zoom)

		switch d.Kind {
		case components.KindSpeechlet:
			if rings {
				rl.DrawCircleLines(int32(sx), int32(sy), r, rl.Fade(speechletColor, fade(d.Level/startAge)))
			}
		case components.KindFood:
			color := plantColor
			if d.Flesh {
				color = fleshColor
			}
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rl.Fade(color, fade(d.Level/foodValue)))
		case components.KindObstruct:
			rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rl.Fade(obstructColor, fade(d.Level/startHealth)))
		}
	})

	startEnergy := v.cfg.Derived.StartEnergy32
	headings := v.overlays.IsEnabled(ui.OverlayHeadings)
	v.world.EachBeing(func(b world.BeingView) {
		if !v.cam.IsVisible(b.X, b.Y, b.Radius) {
			return
		}
		sx, sy := v.cam.WorldToScreen(b.X, b.Y)
		r := max(1.5, b.Radius*v.cam.Zoom)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r, rl.Fade(beingColor, fade(b.Energy/startEnergy)))

		if headings {
			dx := float32(math.Cos(float64(b.Heading)))
			dy := float32(math.Sin(float64(b.Heading)))
			rl.DrawLineEx(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: sx + dx*r*1.8, Y: sy + dy*r*1.8}, 1, rl.White)
		}
		if v.hasSelection && b.ID == v.selected {
			ui.DrawSelection(sx, sy, r)
		}
	})
}

// fade maps a level ratio to an alpha in [minAlpha, 1].
func fade(ratio float32) float32 {
	return min(1, max(minAlpha, ratio))
}
