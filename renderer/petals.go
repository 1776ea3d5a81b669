// Package renderer draws the page into the raylib window.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// RaylibSurface draws petals straight into the raylib back buffer.
// Must be used between rl.BeginDrawing and rl.EndDrawing.
type RaylibSurface struct{}

// NewRaylibSurface creates a surface bound to the current raylib window.
func NewRaylibSurface() *RaylibSurface {
	return &RaylibSurface{}
}

// Size returns the current window size.
func (s *RaylibSurface) Size() (int, int) {
	if !rl.IsWindowReady() {
		return 0, 0
	}
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

// Clear is a no-op: the window is cleared once per frame by the host, which
// paints the page gradient underneath the petals.
func (s *RaylibSurface) Clear() {}

// FillEllipse draws a rotated filled ellipse.
func (s *RaylibSurface) FillEllipse(cx, cy, rx, ry, rotation float32, c color.NRGBA) {
	rl.PushMatrix()
	rl.Translatef(cx, cy, 0)
	rl.Rotatef(rotation*rl.Rad2deg, 0, 0, 1)
	rl.DrawEllipse(0, 0, rx, ry, rl.NewColor(c.R, c.G, c.B, c.A))
	rl.PopMatrix()
}

// DrawGradient fills the window with a vertical gradient through stops.
func DrawGradient(w, h int32, stops []color.RGBA) {
	if len(stops) < 2 {
		if len(stops) == 1 {
			rl.ClearBackground(stops[0])
		}
		return
	}
	bands := int32(len(stops) - 1)
	bandH := h / bands
	for i := int32(0); i < bands; i++ {
		y := i * bandH
		height := bandH
		if i == bands-1 {
			height = h - y
		}
		rl.DrawRectangleGradientV(0, y, w, height, stops[i], stops[i+1])
	}
}
