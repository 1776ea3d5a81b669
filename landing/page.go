// Package landing assembles the page: petal background, widget board and
// telemetry. Window hosting lives in package desktop; this package also runs
// the page headless into an image.
package landing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koileo/sakura/background"
	"github.com/koileo/sakura/bangumi"
	"github.com/koileo/sakura/canvas"
	"github.com/koileo/sakura/codeforces"
	"github.com/koileo/sakura/config"
	"github.com/koileo/sakura/ctxlog"
	"github.com/koileo/sakura/device"
	"github.com/koileo/sakura/petals"
	"github.com/koileo/sakura/telemetry"
	"github.com/koileo/sakura/widgets"
)

// Options configures a Page.
type Options struct {
	Seed      int64  // 0 = time-based
	OutputDir string // CSV, config and PNG output (empty = off)
	Frames    int    // Headless frame count
	Realtime  bool   // Headless frames paced by the engine's own loop
	Offline   bool   // Skip the widget sources
}

// Page is the landing page model shared by the window and headless hosts.
type Page struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	field  *petals.Field
	engine *background.Engine
	board  *widgets.Board

	perf    *telemetry.PerfCollector
	output  *telemetry.OutputManager
	closers []io.Closer
	lastLog time.Time

	snapMu      sync.Mutex
	snap        widgets.Snapshot
	loading     atomic.Bool
	lastRefresh time.Time
	refreshes   sync.WaitGroup
}

// New builds a page from cfg. The widget clients are created here but no
// request is made until the first refresh.
func New(cfg *config.Config, opts Options) (*Page, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := slog.Default().With("component", "landing")

	p := &Page{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
		field:  petals.NewField(petals.ParamsFromConfig(cfg), rand.New(rand.NewSource(seed))),
		perf:   telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}
	engineOpts := []background.Option{
		background.WithFPS(cfg.Screen.TargetFPS),
		background.WithLogger(slog.Default().With("component", "background")),
	}
	if opts.Realtime {
		engineOpts = append(engineOpts, background.WithFrameHook(p.onPacedFrame))
	}
	p.engine = background.New(p.field, engineOpts...)

	if !opts.Offline {
		cf := codeforces.NewClient(cfg.Codeforces, cfg.HTTP, logger)
		bgm := bangumi.NewClient(cfg.Bangumi, cfg.HTTP, logger)
		dev := device.NewClient(cfg.Device, cfg.HTTP, logger)
		p.closers = append(p.closers, cf, bgm, dev)
		p.board = widgets.NewBoard(cf, bgm, dev)
	} else {
		p.board = widgets.NewBoard(nil, nil, nil)
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		p.Unload()
		return nil, err
	}
	p.output = out
	if err := out.WriteConfig(cfg); err != nil {
		p.Unload()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	logger.Info("page created", "seed", seed, "offline", opts.Offline, "output_dir", opts.OutputDir)
	return p, nil
}

// Config returns the page configuration.
func (p *Page) Config() *config.Config { return p.cfg }

// Engine returns the background engine.
func (p *Page) Engine() *background.Engine { return p.engine }

// Perf returns the frame timing collector. Only the frame loop may use it.
func (p *Page) Perf() *telemetry.PerfCollector { return p.perf }

// Snapshot returns the latest widget snapshot.
func (p *Page) Snapshot() widgets.Snapshot {
	p.snapMu.Lock()
	defer p.snapMu.Unlock()
	return p.snap
}

// Loading reports whether a refresh is in flight.
func (p *Page) Loading() bool {
	return p.loading.Load()
}

// Refresh reloads the widget board and waits for it. Concurrent calls while
// a refresh is in flight return immediately.
func (p *Page) Refresh(ctx context.Context) {
	if !p.loading.CompareAndSwap(false, true) {
		return
	}
	defer p.loading.Store(false)

	ctx = ctxlog.WithLogger(ctx, p.logger)
	snap := p.board.Refresh(ctx)

	p.snapMu.Lock()
	p.snap = snap
	p.lastRefresh = time.Now()
	p.snapMu.Unlock()

	if err := p.output.WriteSnapshot(snap); err != nil {
		p.logger.Warn("failed to write widget snapshot", "error", err)
	}
}

// RefreshAsync starts a refresh in the background unless one is running.
func (p *Page) RefreshAsync(ctx context.Context) {
	if p.Loading() {
		return
	}
	p.refreshes.Add(1)
	go func() {
		defer p.refreshes.Done()
		p.Refresh(ctx)
	}()
}

// RefreshDue reports whether the configured refresh interval has elapsed
// since the last refresh, or no refresh has happened yet.
func (p *Page) RefreshDue(now time.Time) bool {
	p.snapMu.Lock()
	last := p.lastRefresh
	p.snapMu.Unlock()

	if last.IsZero() {
		return true
	}
	interval := p.cfg.Widgets.RefreshInterval
	return interval > 0 && now.Sub(last) >= interval
}

// EndFrame closes the current perf frame and, every log interval, logs and
// records the window statistics.
func (p *Page) EndFrame(now time.Time) {
	p.perf.EndFrame()

	interval := time.Duration(p.cfg.Telemetry.LogInterval * float64(time.Second))
	if interval <= 0 {
		return
	}
	if p.lastLog.IsZero() {
		p.lastLog = now
		return
	}
	if now.Sub(p.lastLog) < interval {
		return
	}
	p.lastLog = now
	p.recordPerf()
}

func (p *Page) recordPerf() {
	stats := p.perf.Stats()
	p.logger.Info("perf", "frame", p.perf.Frames(), "stats", stats)
	if err := p.output.WritePerf(stats, p.perf.Frames()); err != nil {
		p.logger.Warn("failed to write perf", "error", err)
	}
}

// RunHeadless renders opts.Frames frames into an in-memory canvas, loads the
// widgets once and, with an output directory, writes the last frame to
// frame.png.
func (p *Page) RunHeadless(ctx context.Context) error {
	surface := canvas.New(p.cfg.Screen.Width, p.cfg.Screen.Height)
	if err := p.engine.Attach(surface); err != nil {
		return fmt.Errorf("attaching canvas: %w", err)
	}

	p.perf.StartFrame()
	p.perf.StartPhase(telemetry.PhaseWidgets)
	if !p.opts.Offline {
		p.Refresh(ctx)
	}
	p.perf.EndFrame()

	frames := p.opts.Frames
	if frames <= 0 {
		frames = 1
	}
	p.logger.Info("starting headless run", "frames", frames, "realtime", p.opts.Realtime,
		"width", p.cfg.Screen.Width, "height", p.cfg.Screen.Height, "petals", p.field.Len())

	var err error
	if p.opts.Realtime {
		err = p.runPaced(ctx, frames)
	} else {
		err = p.runFast(ctx, frames)
	}
	if err != nil {
		return err
	}
	p.recordPerf()

	if p.output == nil {
		return nil
	}
	frame := surface.Composite(canvas.VerticalGradient(p.cfg.Screen.Width, p.cfg.Screen.Height, canvas.PageGradient...))
	path := filepath.Join(p.output.Dir(), "frame.png")
	if err := canvas.SavePNG(path, frame); err != nil {
		return err
	}
	p.logger.Info("frame written", "path", path, "frames", p.engine.Frames())
	return nil
}

func (p *Page) runFast(ctx context.Context, frames int) error {
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.perf.StartFrame()
		p.perf.StartPhase(telemetry.PhaseStep)
		p.engine.Step()
		p.EndFrame(time.Now())
	}
	return nil
}

// runPaced lets the engine drive itself at the target frame rate until the
// requested number of frames has been drawn. Perf samples then cover whole
// frame periods, idle time included.
func (p *Page) runPaced(ctx context.Context, frames int) error {
	target := p.engine.Frames() + uint64(frames)
	p.perf.StartFrame()
	p.perf.StartPhase(telemetry.PhaseStep)
	if err := p.engine.Start(ctx); err != nil {
		return err
	}
	defer p.engine.Teardown()

	tick := time.NewTicker(p.cfg.Derived.FrameTime)
	defer tick.Stop()
	for p.engine.Frames() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

// onPacedFrame runs on the engine goroutine after each self-driven frame.
func (p *Page) onPacedFrame(background.Frame) {
	p.EndFrame(time.Now())
	p.perf.StartFrame()
	p.perf.StartPhase(telemetry.PhaseStep)
}

// Unload stops the engine, waits for background refreshes and releases every
// client and output file.
func (p *Page) Unload() {
	p.engine.Teardown()
	p.refreshes.Wait()

	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	errs = append(errs, p.output.Close())
	if err := errors.Join(errs...); err != nil {
		p.logger.Warn("unload", "error", err)
	}
}
