package canvas

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/koileo/sakura/petals"
)

var pink = color.NRGBA{R: 255, G: 182, B: 193, A: 255}

func TestFillEllipseCoversCentre(t *testing.T) {
	s := New(64, 64)
	s.FillEllipse(32, 32, 10, 6, math.Pi/4, pink)

	c := s.Image().RGBAAt(32, 32)
	if c.A != 255 || c.R != 255 || c.G != 182 {
		t.Errorf("expected opaque pink at centre, got %v", c)
	}
	if corner := s.Image().RGBAAt(0, 0); corner.A != 0 {
		t.Errorf("expected transparent corner, got %v", corner)
	}
	// Outside the major radius along x there is nothing.
	if c := s.Image().RGBAAt(44, 32); c.A != 0 {
		t.Errorf("expected transparent pixel outside ellipse, got %v", c)
	}
}

func TestFillEllipseHonoursRotation(t *testing.T) {
	flat := New(64, 64)
	flat.FillEllipse(32, 32, 12, 3, 0, pink)
	upright := New(64, 64)
	upright.FillEllipse(32, 32, 12, 3, math.Pi/2, pink)

	if flat.Image().RGBAAt(42, 32).A == 0 {
		t.Error("expected unrotated ellipse to reach along x")
	}
	if flat.Image().RGBAAt(32, 42).A != 0 {
		t.Error("expected unrotated ellipse to be thin along y")
	}
	if upright.Image().RGBAAt(32, 42).A == 0 {
		t.Error("expected rotated ellipse to reach along y")
	}
}

func TestFillEllipseClipsAtEdges(t *testing.T) {
	s := New(32, 32)

	// Partly above the top edge, like a petal entering the viewport.
	s.FillEllipse(16, -2, 8, 8, 0, pink)
	if s.Image().RGBAAt(16, 2).A == 0 {
		t.Error("expected visible part of ellipse to be drawn")
	}

	// Entirely off-surface in every direction.
	for _, pt := range [][2]float32{{-50, 10}, {100, 10}, {10, -50}, {10, 100}} {
		s.FillEllipse(pt[0], pt[1], 8, 8, 0, pink)
	}
	if s.Image().RGBAAt(0, 31).A != 0 || s.Image().RGBAAt(31, 31).A != 0 {
		t.Error("off-surface ellipses must not touch the buffer")
	}
}

func TestFillEllipseBlendsOpacity(t *testing.T) {
	s := New(16, 16)
	half := pink
	half.A = 128
	s.FillEllipse(8, 8, 6, 6, 0, half)

	c := s.Image().RGBAAt(8, 8)
	if c.A < 126 || c.A > 130 {
		t.Errorf("expected ~50%% alpha, got %d", c.A)
	}
}

func TestClear(t *testing.T) {
	s := New(16, 16)
	s.FillEllipse(8, 8, 6, 6, 0, pink)
	s.Clear()

	for _, v := range s.Image().Pix {
		if v != 0 {
			t.Fatal("expected every byte cleared")
		}
	}
}

func TestResize(t *testing.T) {
	s := New(10, 10)
	s.Resize(30, 20)
	if w, h := s.Size(); w != 30 || h != 20 {
		t.Errorf("expected 30x20, got %dx%d", w, h)
	}
}

func TestDrivesPetalField(t *testing.T) {
	s := New(320, 240)
	f := petals.NewField(petals.DefaultParams(), rand.New(rand.NewSource(3)))
	if err := f.Init(s.Size()); err != nil {
		t.Fatal(err)
	}

	// After enough frames some petals have fallen into view.
	for i := 0; i < 300; i++ {
		f.Step(s)
	}

	var painted int
	for i := 3; i < len(s.Image().Pix); i += 4 {
		if s.Image().Pix[i] != 0 {
			painted++
		}
	}
	if painted == 0 {
		t.Error("expected petals in the pixel buffer")
	}
}

func TestVerticalGradient(t *testing.T) {
	img := VerticalGradient(4, 11, PageGradient...)

	if got := img.RGBAAt(0, 0); got != PageGradient[0] {
		t.Errorf("top: got %v want %v", got, PageGradient[0])
	}
	if got := img.RGBAAt(3, 5); got != PageGradient[1] {
		t.Errorf("middle: got %v want %v", got, PageGradient[1])
	}
	if got := img.RGBAAt(2, 10); got != PageGradient[2] {
		t.Errorf("bottom: got %v want %v", got, PageGradient[2])
	}
}

func TestCompositeAndSavePNG(t *testing.T) {
	s := New(20, 20)
	s.FillEllipse(10, 10, 5, 5, 0, pink)
	bg := VerticalGradient(20, 20, color.RGBA{A: 255})

	out := s.Composite(bg)
	if out.RGBAAt(0, 0) != (color.RGBA{A: 255}) {
		t.Errorf("expected background at corner, got %v", out.RGBAAt(0, 0))
	}
	if out.RGBAAt(10, 10).G != 182 {
		t.Errorf("expected petal over background, got %v", out.RGBAAt(10, 10))
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := SavePNG(path, out); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if decoded.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Errorf("unexpected bounds %v", decoded.Bounds())
	}
}
