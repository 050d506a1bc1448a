package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(800, 600, 1200)

	if cam.X != 600 || cam.Y != 600 {
		t.Errorf("expected camera at (600, 600), got (%f, %f)", cam.X, cam.Y)
	}
	// The smaller viewport side limits the fit: 600/1200
	if !near(cam.Zoom, 0.5) || !near(cam.MinZoom, 0.5) {
		t.Errorf("expected fit zoom 0.5, got zoom %f min %f", cam.Zoom, cam.MinZoom)
	}
}

func TestWorldToScreenCentred(t *testing.T) {
	cam := New(625, 625, 625)

	sx, sy := cam.WorldToScreen(312.5, 312.5)
	if !near(sx, 312.5) || !near(sy, 312.5) {
		t.Errorf("expected screen centre (312.5, 312.5), got (%f, %f)", sx, sy)
	}
	sx, sy = cam.WorldToScreen(0, 625)
	if !near(sx, 0) || !near(sy, 625) {
		t.Errorf("expected world corner at screen corner, got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(625, 625, 625)
	cam.SetZoom(2.5)
	cam.Pan(40, -25)

	for _, tc := range []struct{ sx, sy float32 }{
		{312, 312},
		{10, 10},
		{600, 500},
	} {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClamped(t *testing.T) {
	tests := []struct {
		name   string
		zoom   float32
		dx, dy float32
		wantX  float32
		wantY  float32
	}{
		{"fitted view cannot pan", 1, 200, 200, 312.5, 312.5},
		{"zoomed pan left stops at border", 2, -2000, 0, 156.25, 312.5},
		{"zoomed pan down stops at border", 2, 0, 2000, 312.5, 468.75},
		{"zoomed pan inside", 2, 50, 0, 337.5, 312.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(625, 625, 625)
			cam.SetZoom(tt.zoom)
			cam.Pan(tt.dx, tt.dy)
			if !near(cam.X, tt.wantX) || !near(cam.Y, tt.wantY) {
				t.Errorf("centre = (%f, %f), want (%f, %f)", cam.X, cam.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(625, 625, 625)

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsCursorPoint(t *testing.T) {
	cam := New(625, 625, 625)
	cam.SetZoom(2)

	sx, sy := float32(400), float32(300)
	wx, wy := cam.ScreenToWorld(sx, sy)
	cam.ZoomAt(1.5, sx, sy)

	gx, gy := cam.ScreenToWorld(sx, sy)
	if !near(gx, wx) || !near(gy, wy) {
		t.Errorf("point under cursor moved from (%f, %f) to (%f, %f)", wx, wy, gx, gy)
	}
}

func TestResizeRaisesMinZoom(t *testing.T) {
	cam := New(625, 625, 625)
	cam.Resize(1250, 1250)

	if !near(cam.MinZoom, 2) || !near(cam.Zoom, 2) {
		t.Errorf("expected min zoom and zoom 2 after resize, got %f and %f", cam.MinZoom, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(625, 625, 625)
	cam.SetZoom(4)
	cam.Pan(0, 0)

	if !cam.IsVisible(312.5, 312.5, 1) {
		t.Error("centre should be visible")
	}
	if cam.IsVisible(10, 10, 3) {
		t.Error("corner should not be visible at zoom 4")
	}
	if !cam.IsVisible(230, 312.5, 5) {
		t.Error("edge point with radius reaching the view should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(625, 625, 625)
	cam.SetZoom(3)
	cam.Pan(100, 100)

	cam.Reset()

	if cam.X != 312.5 || cam.Y != 312.5 {
		t.Errorf("expected position (312.5, 312.5), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}
