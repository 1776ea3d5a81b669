// Package desktop hosts the landing page in a raylib window.
package desktop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/koileo/sakura/background"
	"github.com/koileo/sakura/canvas"
	"github.com/koileo/sakura/landing"
	"github.com/koileo/sakura/renderer"
	"github.com/koileo/sakura/telemetry"
	"github.com/koileo/sakura/ui"
)

// Run opens the window and drives the page until the window is closed or
// ctx is cancelled.
func Run(ctx context.Context, page *landing.Page) error {
	cfg := page.Config()

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	engine := page.Engine()
	surface := renderer.NewRaylibSurface()
	panel := ui.NewPanel(cfg.Profile, cfg.Device.MaxAge)
	hud := &ui.HUD{}
	perf := page.Perf()

	attached := false
	var w, h int

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			break
		}
		now := time.Now()
		perf.StartFrame()

		perf.StartPhase(telemetry.PhaseResize)
		if !attached {
			// The window can report a zero size while minimised.
			switch err := engine.Attach(surface); {
			case err == nil:
				attached = true
				w, h = surface.Size()
			case !errors.Is(err, background.ErrSurfaceUnavailable):
				return err
			}
		} else if rl.IsWindowResized() {
			if nw, nh := surface.Size(); nw != w || nh != h {
				w, h = nw, nh
				engine.Resize(w, h)
			}
		}

		if rl.IsKeyPressed(rl.KeyF3) {
			hud.Visible = !hud.Visible
		}

		perf.StartPhase(telemetry.PhaseWidgets)
		if page.RefreshDue(now) {
			page.RefreshAsync(ctx)
		}

		rl.BeginDrawing()
		sw, sh := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
		renderer.DrawGradient(sw, sh, canvas.PageGradient)

		perf.StartPhase(telemetry.PhaseStep)
		engine.Step()

		perf.StartPhase(telemetry.PhasePresent)
		if panel.Draw(sw, sh, page.Snapshot(), page.Loading(), now) {
			slog.Info("widget refresh requested")
			page.RefreshAsync(ctx)
		}
		if hud.Visible {
			hud.Draw(sh, ui.HUDData{
				FPS:    rl.GetFPS(),
				Frames: engine.Frames(),
				Petals: engine.Field().Len(),
				Width:  w,
				Height: h,
				Stats:  perf.Stats(),
			})
		}
		rl.EndDrawing()

		page.EndFrame(now)
	}
	return nil
}
