package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/neuralang/components"
	"github.com/pthm-cable/neuralang/ui"
	"github.com/pthm-cable/neuralang/world"
)

// minGridPixels is the smallest on-screen cell size the grid overlay draws.
const minGridPixels = 6

// drawOverlays renders the enabled world-space overlays.
func (v *Viewer) drawOverlays() {
	if v.overlays.IsEnabled(ui.OverlayGrid) {
		v.drawGrid()
	}
	if !v.hasSelection {
		return
	}
	info, ok := v.world.Inspect(v.selected)
	if !ok {
		return
	}
	if v.overlays.IsEnabled(ui.OverlayFOV) {
		v.drawFOV(info.Position)
	}
	if v.overlays.IsEnabled(ui.OverlayPerception) {
		v.drawPerception(info.Position)
	}
}

// drawGrid draws the partition cell lines when they are far enough apart.
func (v *Viewer) drawGrid() {
	cell := v.cfg.Derived.CellSize32
	if cell*v.cam.Zoom < minGridPixels {
		return
	}
	color := rl.Color{R: 40, G: 44, B: 58, A: 255}
	size := v.cfg.Derived.WorldSize32
	minX, minY, maxX, maxY := v.cam.VisibleWorldBounds()

	for i := 0; i <= v.cfg.World.Cells; i++ {
		p := float32(i) * cell
		if p >= minX && p <= maxX {
			x0, y0 := v.cam.WorldToScreen(p, 0)
			_, y1 := v.cam.WorldToScreen(p, size)
			rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x0, Y: y1}, color)
		}
		if p >= minY && p <= maxY {
			x0, y0 := v.cam.WorldToScreen(0, p)
			x1, _ := v.cam.WorldToScreen(size, p)
			rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y0}, color)
		}
	}
}

// drawFOV outlines the selected being's field of view.
func (v *Viewer) drawFOV(pos components.Position) {
	sx, sy := v.cam.WorldToScreen(pos.X, pos.Y)
	rl.DrawCircleLines(int32(sx), int32(sy), v.cfg.Derived.FOV32*v.cam.Zoom, rl.Fade(rl.SkyBlue, 0.6))
}

// drawPerception draws a line from the selected being to everything inside
// its field of view.
func (v *Viewer) drawPerception(pos components.Position) {
	fov := v.cfg.Derived.FOV32
	sx, sy := v.cam.WorldToScreen(pos.X, pos.Y)
	from := rl.Vector2{X: sx, Y: sy}

	line := func(x, y float32, color rl.Color) {
		dx, dy := x-pos.X, y-pos.Y
		if dx*dx+dy*dy > fov*fov || (dx == 0 && dy == 0) {
			return
		}
		tx, ty := v.cam.WorldToScreen(x, y)
		rl.DrawLineV(from, rl.Vector2{X: tx, Y: ty}, color)
	}

	v.world.EachBeing(func(b world.BeingView) {
		line(b.X, b.Y, rl.Fade(beingColor, 0.5))
	})
	v.world.EachDisc(func(d world.DiscView) {
		switch d.Kind {
		case components.KindFood:
			line(d.X, d.Y, rl.Fade(plantColor, 0.4))
		case components.KindObstruct:
			line(d.X, d.Y, rl.Fade(obstructColor, 0.4))
		}
	})
}
