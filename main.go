package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/desktop"
	"github.com/koileo/sakura/landing"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Render into an image instead of a window")
	frames := flag.Int("frames", 600, "Frames to render in headless mode")
	realtime := flag.Bool("realtime", false, "Pace headless frames at the target FPS")
	offline := flag.Bool("offline", false, "Do not contact the widget sources")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and frame.png")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := landing.New(cfg, landing.Options{
		Seed:      *seed,
		OutputDir: *outputDir,
		Frames:    *frames,
		Realtime:  *realtime,
		Offline:   *offline,
	})
	if err != nil {
		slog.Error("failed to create page", "error", err)
		os.Exit(1)
	}

	if *headless {
		err = page.RunHeadless(ctx)
	} else {
		err = desktop.Run(ctx, page)
	}
	page.Unload()

	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}
