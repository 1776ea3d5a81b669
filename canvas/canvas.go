// Package canvas provides an in-memory RGBA pixel buffer that petals are drawn into.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/vector"
)

// ellipseSegments is the polygon resolution used for petals.
const ellipseSegments = 24

// PageGradient is the pink to white page background.
var PageGradient = []color.RGBA{
	{R: 251, G: 207, B: 232, A: 255}, // pink-200
	{R: 255, G: 228, B: 230, A: 255}, // rose-100
	{R: 255, G: 255, B: 255, A: 255},
}

// Surface draws petals into an in-memory RGBA pixel buffer.
type Surface struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	mask *image.Alpha
}

// New creates a transparent w x h buffer.
func New(w, h int) *Surface {
	return &Surface{
		img:  image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0))),
		z:    vector.NewRasterizer(1, 1),
		mask: image.NewAlpha(image.Rect(0, 0, 1, 1)),
	}
}

// Size returns the buffer dimensions.
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the buffer.
func (s *Surface) Resize(w, h int) {
	s.img = image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// FillEllipse composites a filled, rotated ellipse centred on (cx, cy).
// Parts outside the buffer are clipped.
func (s *Surface) FillEllipse(cx, cy, rx, ry, rotation float32, c color.NRGBA) {
	if rx <= 0 || ry <= 0 || c.A == 0 {
		return
	}

	extent := float64(max(rx, ry))
	x0 := int(math.Floor(float64(cx) - extent))
	y0 := int(math.Floor(float64(cy) - extent))
	side := int(math.Ceil(2*extent)) + 2

	dr := image.Rect(x0, y0, x0+side, y0+side)
	if !dr.Overlaps(s.img.Bounds()) {
		return
	}

	// Rasterize in local coordinates so the path never leaves the mask.
	ox := cx - float32(x0)
	oy := cy - float32(y0)
	sin, cos := math.Sincos(float64(rotation))

	s.z.Reset(side, side)
	for i := 0; i < ellipseSegments; i++ {
		t := 2 * math.Pi * float64(i) / ellipseSegments
		ex := float64(rx) * math.Cos(t)
		ey := float64(ry) * math.Sin(t)
		px := ox + float32(ex*cos-ey*sin)
		py := oy + float32(ex*sin+ey*cos)
		if i == 0 {
			s.z.MoveTo(px, py)
		} else {
			s.z.LineTo(px, py)
		}
	}
	s.z.ClosePath()

	if s.mask.Rect.Dx() != side {
		s.mask = image.NewAlpha(image.Rect(0, 0, side, side))
	} else {
		clear(s.mask.Pix)
	}
	s.z.Draw(s.mask, s.mask.Bounds(), image.Opaque, image.Point{})

	draw.DrawMask(s.img, dr, image.NewUniform(c), image.Point{}, s.mask, image.Point{}, draw.Over)
}

// Image returns the pixel buffer. It is reused between frames.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Composite draws the petal layer over a copy of bg.
func (s *Surface) Composite(bg image.Image) *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	draw.Draw(out, out.Bounds(), bg, bg.Bounds().Min, draw.Src)
	draw.Draw(out, out.Bounds(), s.img, image.Point{}, draw.Over)
	return out
}

// VerticalGradient renders a top-to-bottom gradient through the given stops.
func VerticalGradient(w, h int, stops ...color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(stops) == 0 || h <= 0 {
		return img
	}
	for y := 0; y < h; y++ {
		c := gradientAt(stops, float64(y)/float64(max(h-1, 1)))
		draw.Draw(img, image.Rect(0, y, w, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
	return img
}

func gradientAt(stops []color.RGBA, t float64) color.RGBA {
	if len(stops) == 1 {
		return stops[0]
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	if i >= len(stops)-1 {
		return stops[len(stops)-1]
	}
	f := pos - float64(i)
	a, b := stops[i], stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return color.RGBA{R: lerp(a.R, b.R), G: lerp(a.G, b.G), B: lerp(a.B, b.B), A: lerp(a.A, b.A)}
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding png: %w", err)
	}
	return f.Close()
}
