package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/koileo/sakura/telemetry"
)

// HUDData holds what the perf overlay shows.
type HUDData struct {
	FPS    int32
	Frames uint64
	Petals int
	Width  int
	Height int
	Stats  telemetry.PerfStats
}

// HUD draws the perf overlay in the bottom-left corner.
type HUD struct {
	Visible bool
}

var hudPhases = []string{
	telemetry.PhaseResize,
	telemetry.PhaseWidgets,
	telemetry.PhaseStep,
	telemetry.PhasePresent,
}

// Draw renders the overlay when visible.
func (h *HUD) Draw(screenH int32, data HUDData) {
	if !h.Visible {
		return
	}
	const (
		x        = 10
		lineH    = 14
		fontSize = 12
		width    = 240
	)
	lines := int32(3 + len(hudPhases))
	y := screenH - 10 - lines*lineH - 8
	rl.DrawRectangle(x-4, y-4, width, lines*lineH+12, rl.Color{R: 20, G: 25, B: 30, A: 200})
	rl.DrawRectangleLines(x-4, y-4, width, lines*lineH+12, rl.Color{R: 60, G: 70, B: 80, A: 255})

	rl.DrawText(fmt.Sprintf("FPS: %d | Frame: %d", data.FPS, data.Frames), x, y, fontSize, rl.White)
	y += lineH
	rl.DrawText(fmt.Sprintf("Petals: %d | %dx%d", data.Petals, data.Width, data.Height), x, y, fontSize, rl.LightGray)
	y += lineH
	rl.DrawText(fmt.Sprintf("Avg %s  p90 %s",
		data.Stats.AvgFrame.Round(time.Microsecond), data.Stats.P90Frame.Round(time.Microsecond)),
		x, y, fontSize, rl.Yellow)
	y += lineH

	for _, phase := range hudPhases {
		pct := data.Stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(fmt.Sprintf("%-8s %5.1f%%", phase, pct), x, y, fontSize, color)
		rl.DrawRectangle(x+110, y+3, int32(pct), 8, color)
		y += lineH
	}
}
