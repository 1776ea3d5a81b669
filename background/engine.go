// Package background drives the petal field frame by frame.
//
// An Engine owns the field, the surface it draws into and the frame loop.
// Hosts that own their own frame loop (the raylib window) call Step once per
// frame; headless hosts call Start and let the engine tick itself. Either way
// exactly one goroutine advances the petals, and Teardown stops everything.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koileo/sakura/petals"
)

// ErrSurfaceUnavailable is returned by Attach when there is nothing to draw
// into yet. It is not fatal: the host attaches again once the surface exists.
var ErrSurfaceUnavailable = errors.New("background: surface unavailable")

// Resizer is implemented by surfaces that own their pixel buffer.
type Resizer interface {
	Resize(w, h int)
}

// Frame describes a completed frame.
type Frame struct {
	Index  uint64
	Petals int
	Width  int
	Height int
}

type size struct{ w, h int }

// Engine owns the petal field and its frame loop.
type Engine struct {
	field   *petals.Field
	fps     int
	logger  *slog.Logger
	onFrame func(Frame)

	// stepMu serializes frames; only the holder touches field and surface.
	stepMu  sync.Mutex
	surface petals.Surface
	frames  atomic.Uint64

	mu      sync.Mutex
	pending *size
	torn    bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithFPS sets the self-driven frame rate used by Start.
func WithFPS(fps int) Option {
	return func(e *Engine) {
		if fps > 0 {
			e.fps = fps
		}
	}
}

// WithLogger sets the logger for engine diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithFrameHook registers a callback invoked after every frame, on the
// goroutine that ran the frame. The hook must not call Teardown.
func WithFrameHook(fn func(Frame)) Option {
	return func(e *Engine) {
		e.onFrame = fn
	}
}

// New creates an engine for the field. Nothing is drawn until a surface is attached.
func New(field *petals.Field, opts ...Option) *Engine {
	e := &Engine{
		field:  field,
		fps:    60,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attach binds the engine to a surface and sizes the field to it.
// A nil or zero-sized surface leaves the engine idle and returns ErrSurfaceUnavailable.
func (e *Engine) Attach(s petals.Surface) error {
	if s == nil {
		return ErrSurfaceUnavailable
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return ErrSurfaceUnavailable
	}

	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	if err := e.field.Init(w, h); err != nil {
		return fmt.Errorf("initializing field: %w", err)
	}
	e.surface = s

	e.mu.Lock()
	e.pending = nil
	e.mu.Unlock()

	e.logger.Debug("background attached", "width", w, "height", h, "petals", e.field.Len())
	return nil
}

// Resize records a new viewport size. It never blocks; the latest size wins
// and is applied at the start of the next frame.
func (e *Engine) Resize(w, h int) {
	e.mu.Lock()
	e.pending = &size{w: w, h: h}
	e.mu.Unlock()
}

// Step runs one frame: apply any pending resize, then draw and advance the
// field. It returns false without drawing when no surface is attached or the
// engine has been torn down.
func (e *Engine) Step() bool {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	e.mu.Lock()
	torn := e.torn
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	if torn || e.surface == nil {
		return false
	}

	if pending != nil {
		e.applyResize(*pending)
	}

	e.field.Step(e.surface)
	n := e.frames.Add(1)

	if e.onFrame != nil {
		w, h := e.field.Size()
		e.onFrame(Frame{Index: n, Petals: e.field.Len(), Width: w, Height: h})
	}
	return true
}

func (e *Engine) applyResize(sz size) {
	if err := e.field.Resize(sz.w, sz.h); err != nil {
		e.logger.Debug("ignoring resize", "width", sz.w, "height", sz.h, "error", err)
		return
	}
	if r, ok := e.surface.(Resizer); ok {
		r.Resize(sz.w, sz.h)
	}
	e.logger.Debug("background resized", "width", sz.w, "height", sz.h, "petals", e.field.Len())
}

// Start runs the frame loop on its own goroutine until ctx is cancelled or
// Teardown is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.torn {
		return fmt.Errorf("background: engine torn down")
	}
	if e.cancel != nil {
		return fmt.Errorf("background: engine already started")
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.run(ctx, e.done)
	return nil
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(e.fps))
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.Step() && e.tornDown() {
				return
			}
		}
	}
}

// Teardown stops the frame loop and waits for it to exit. It is safe to call
// more than once and on an engine that was never started.
func (e *Engine) Teardown() {
	e.mu.Lock()
	e.torn = true
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		e.logger.Debug("background loop stopped", "frames", e.frames.Load())
	}
}

// Running reports whether the self-driven loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Frames returns the number of frames drawn so far.
func (e *Engine) Frames() uint64 {
	return e.frames.Load()
}

// Field returns the engine's petal field.
func (e *Engine) Field() *petals.Field {
	return e.field
}

func (e *Engine) tornDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.torn
}
