// Package petals holds the falling petal field: a fixed-size set of petals
// sized to the viewport that is advanced and drawn once per frame.
package petals

import (
	"errors"
	"image/color"
	"math"
	"math/rand"

	"github.com/koileo/sakura/config"
)

// ErrInvalidViewport is returned when a field is sized to a non-positive viewport.
var ErrInvalidViewport = errors.New("petals: viewport dimensions must be positive")

// Petal is a single falling petal.
type Petal struct {
	X, Y    float32
	R       float32
	Speed   float32 // Vertical pixels per frame
	Drift   float32 // Horizontal pixels per frame
	Opacity float32
}

// Surface is a 2-D drawable the field renders into.
type Surface interface {
	Size() (w, h int)
	Clear()
	FillEllipse(cx, cy, rx, ry, rotation float32, c color.NRGBA)
}

// Params holds the sampling ranges and appearance of a field.
type Params struct {
	AreaPerPetal float32 // 0 selects FixedCount
	FixedCount   int

	RadiusMin, RadiusMax   float32
	SpeedMin, SpeedMax     float32
	DriftMin, DriftMax     float32
	OpacityMin, OpacityMax float32

	Aspect   float32 // Minor/major axis ratio
	Rotation float32 // Radians
	Color    color.RGBA

	WrapX       bool
	RespawnBand float32 // 0 = respawn anywhere in (-H, 0]
}

// DefaultParams returns the look of the original page: 60 pink petals.
func DefaultParams() Params {
	return Params{
		FixedCount: 60,
		RadiusMin:  4,
		RadiusMax:  10,
		SpeedMin:   1,
		SpeedMax:   3,
		DriftMin:   -1,
		DriftMax:   1,
		OpacityMin: 0.8,
		OpacityMax: 0.8,
		Aspect:     0.6,
		Rotation:   math.Pi / 4,
		Color:      color.RGBA{R: 255, G: 182, B: 193, A: 255},
	}
}

// ParamsFromConfig builds field parameters from the petals config section.
func ParamsFromConfig(cfg *config.Config) Params {
	pc := cfg.Petals
	return Params{
		AreaPerPetal: float32(pc.AreaPerPetal),
		FixedCount:   pc.FixedCount,
		RadiusMin:    float32(pc.RadiusMin),
		RadiusMax:    float32(pc.RadiusMax),
		SpeedMin:     float32(pc.SpeedMin),
		SpeedMax:     float32(pc.SpeedMax),
		DriftMin:     float32(pc.DriftMin),
		DriftMax:     float32(pc.DriftMax),
		OpacityMin:   float32(pc.OpacityMin),
		OpacityMax:   float32(pc.OpacityMax),
		Aspect:       float32(pc.Aspect),
		Rotation:     cfg.Derived.RotationRad,
		Color:        color.RGBA{R: pc.Color[0], G: pc.Color[1], B: pc.Color[2], A: 255},
		WrapX:        pc.WrapX,
		RespawnBand:  float32(pc.RespawnBand),
	}
}

// Count returns the number of petals a field of the given size holds.
func Count(w, h int, p Params) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	if p.AreaPerPetal > 0 {
		return int(math.Floor(float64(w) * float64(h) / float64(p.AreaPerPetal)))
	}
	return p.FixedCount
}

// Field owns the petals and advances them.
type Field struct {
	Params Params

	petals []Petal
	width  float32
	height float32
	rng    *rand.Rand
}

// NewField creates an empty field. Call Init before Step.
func NewField(params Params, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Field{Params: params, rng: rng}
}

// Init sizes the field to the viewport and samples every petal afresh.
// Prior petals are discarded.
func (f *Field) Init(w, h int) error {
	if w <= 0 || h <= 0 {
		return ErrInvalidViewport
	}

	f.width = float32(w)
	f.height = float32(h)

	petals := make([]Petal, Count(w, h, f.Params))
	for i := range petals {
		f.sample(&petals[i], -f.height)
	}
	f.petals = petals
	return nil
}

// Resize rebuilds the field for a new viewport size.
func (f *Field) Resize(w, h int) error {
	return f.Init(w, h)
}

// Step clears the surface, draws every petal and advances it by one frame.
// Petals that fall below the viewport (or leave it sideways when WrapX is set)
// are resampled in place.
func (f *Field) Step(s Surface) {
	if len(f.petals) == 0 {
		return
	}

	s.Clear()

	p := f.Params
	for i := range f.petals {
		pt := &f.petals[i]

		s.FillEllipse(pt.X, pt.Y, pt.R, pt.R*p.Aspect, p.Rotation, f.fill(pt.Opacity))

		pt.X += pt.Drift
		pt.Y += pt.Speed

		if pt.Y > f.height || (p.WrapX && (pt.X < 0 || pt.X >= f.width)) {
			f.recycle(pt)
		}
	}
}

// Len returns the number of petals.
func (f *Field) Len() int {
	return len(f.petals)
}

// Size returns the viewport the field was last sized to.
func (f *Field) Size() (w, h int) {
	return int(f.width), int(f.height)
}

// Petals returns a copy of the current petal state.
func (f *Field) Petals() []Petal {
	out := make([]Petal, len(f.petals))
	copy(out, f.petals)
	return out
}

func (f *Field) recycle(pt *Petal) {
	top := -f.height
	if f.Params.RespawnBand > 0 {
		top = -f.Params.RespawnBand
	}
	f.sample(pt, top)
}

// sample overwrites pt with fresh values; y lands in (top, 0].
func (f *Field) sample(pt *Petal, top float32) {
	p := f.Params
	pt.X = f.rng.Float32() * f.width
	pt.Y = top * f.rng.Float32()
	pt.R = f.between(p.RadiusMin, p.RadiusMax)
	pt.Speed = f.between(p.SpeedMin, p.SpeedMax)
	pt.Drift = f.between(p.DriftMin, p.DriftMax)
	pt.Opacity = f.between(p.OpacityMin, p.OpacityMax)
}

func (f *Field) between(lo, hi float32) float32 {
	return lo + f.rng.Float32()*(hi-lo)
}

func (f *Field) fill(opacity float32) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	c := f.Params.Color
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity * 255)}
}
