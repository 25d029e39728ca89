package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/tubeauto/internal/config"
	"github.com/ivlev/tubeauto/internal/effects"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestFitToCanvasAlwaysTargetSize(t *testing.T) {
	k, _ := Kernel("bilinear")
	sizes := []image.Point{{800, 600}, {1920, 1080}, {300, 1200}, {4000, 500}, {1, 1}, {191, 107}}

	for _, mode := range []string{config.FitCover, config.FitContain} {
		for _, sz := range sizes {
			out := FitToCanvas(gradient(sz.X, sz.Y), 192, 108, mode, k)
			if out.Bounds() != image.Rect(0, 0, 192, 108) {
				t.Errorf("%s %v: got bounds %v", mode, sz, out.Bounds())
			}
		}
	}
}

func TestFitRectRule(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		mode       string
		want       image.Rectangle
	}{
		// 4:3 is narrower than 16:9 -> scale by width, overflow cropped vertically.
		{"cover narrow", 800, 600, config.FitCover, image.Rect(0, -180, 1920, 1260)},
		// 32:9 is wider -> scale by height.
		{"cover wide", 3200, 900, config.FitCover, image.Rect(-960, 0, 2880, 1080)},
		{"contain narrow", 800, 600, config.FitContain, image.Rect(240, 0, 1680, 1080)},
		{"contain wide", 3200, 900, config.FitContain, image.Rect(0, 270, 1920, 810)},
		{"exact", 1920, 1080, config.FitCover, image.Rect(0, 0, 1920, 1080)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitRect(tt.srcW, tt.srcH, 1920, 1080, tt.mode)
			if got != tt.want {
				t.Errorf("FitRect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFitToCanvasIdempotentAtTargetSize(t *testing.T) {
	k, _ := Kernel("catmullrom")
	src := gradient(64, 36)
	out := FitToCanvas(src, 64, 36, config.FitCover, k)

	for i := range src.Pix {
		if d := absDiff(src.Pix[i], out.Pix[i]); d > 1 {
			t.Fatalf("pixel byte %d differs by %d", i, d)
		}
	}
}

func TestFitToCanvasContainLetterboxIsBlack(t *testing.T) {
	k, _ := Kernel("bilinear")
	src := solid(100, 100, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	out := FitToCanvas(src, 160, 90, config.FitContain, k)

	if c := out.RGBAAt(2, 45); c != (color.RGBA{A: 255}) {
		t.Errorf("expected black pillar, got %v", c)
	}
	if c := out.RGBAAt(80, 45); c.R < 190 {
		t.Errorf("expected image in the middle, got %v", c)
	}
}

func TestZoomCropIdentity(t *testing.T) {
	k, _ := Kernel("catmullrom")
	canvas := gradient(48, 27)
	dst := image.NewRGBA(canvas.Bounds())
	ZoomCrop(dst, canvas, 1.0, k)

	for i := range canvas.Pix {
		if canvas.Pix[i] != dst.Pix[i] {
			t.Fatalf("zoom 1.0 changed byte %d", i)
		}
	}
}

func TestZoomCropEnlargesCenter(t *testing.T) {
	k, _ := Kernel("nearest")
	// Left half red, right half blue, with a green 20x20 square in the middle.
	canvas := solid(100, 100, color.RGBA{R: 255, A: 255})
	for y := 0; y < 100; y++ {
		for x := 50; x < 100; x++ {
			canvas.SetRGBA(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			canvas.SetRGBA(x, y, color.RGBA{G: 255, A: 255})
		}
	}

	dst := image.NewRGBA(canvas.Bounds())
	ZoomCrop(dst, canvas, 2.0, k)

	// The 20px square becomes 40px: rows/cols 30..69 are green.
	if c := dst.RGBAAt(31, 50); c.G != 255 {
		t.Errorf("expected green at (31,50), got %v", c)
	}
	if c := dst.RGBAAt(25, 50); c.R != 255 {
		t.Errorf("expected red at (25,50), got %v", c)
	}
	if c := dst.RGBAAt(75, 50); c.B != 255 {
		t.Errorf("expected blue at (75,50), got %v", c)
	}
	if canvas.RGBAAt(31, 50).G == 255 {
		t.Error("canvas was mutated")
	}
}

func TestApplyFade(t *testing.T) {
	img := solid(4, 4, color.RGBA{R: 200, G: 101, B: 0, A: 255})
	ApplyFade(img, 0.5)
	if c := img.RGBAAt(0, 0); c != (color.RGBA{R: 100, G: 51, B: 0, A: 255}) {
		t.Errorf("unexpected faded pixel %v", c)
	}

	ApplyFade(img, 0)
	if c := img.RGBAAt(3, 3); c != (color.RGBA{A: 255}) {
		t.Errorf("expected black, got %v", c)
	}
}

func TestBlendBandBottomRowsOnly(t *testing.T) {
	frame := solid(10, 10, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	band := image.NewRGBA(image.Rect(0, 0, 10, 3))
	band.SetRGBA(5, 1, color.RGBA{R: 200, G: 200, B: 200, A: 255})

	BlendBand(frame, band, 0.7)

	if c := frame.RGBAAt(0, 6); c.R != 100 {
		t.Errorf("row above band changed: %v", c)
	}
	// Transparent band pixel: 100*0.3 = 30.
	if c := frame.RGBAAt(0, 7); c.R != 30 || c.A != 255 {
		t.Errorf("expected darkened 30, got %v", c)
	}
	// Opaque band pixel: 100*0.3 + 200*0.7 = 170.
	if c := frame.RGBAAt(5, 8); c.R != 170 {
		t.Errorf("expected 170, got %v", c)
	}
}

func TestRenderFrameDoesNotMutateCanvas(t *testing.T) {
	k, _ := Kernel("bilinear")
	canvas := gradient(32, 18)
	before := append([]uint8(nil), canvas.Pix...)
	band := image.NewRGBA(image.Rect(0, 0, 32, 4))
	dst := image.NewRGBA(canvas.Bounds())

	RenderFrame(dst, canvas, band, effects.FrameState{Zoom: 1.1, Fade: 0.4}, 0.7, k)

	for i := range before {
		if before[i] != canvas.Pix[i] {
			t.Fatal("canvas mutated by RenderFrame")
		}
	}
}

func TestKernel(t *testing.T) {
	for _, name := range []string{"", "catmullrom", "bilinear", "approxbilinear", "nearest"} {
		if _, err := Kernel(name); err != nil {
			t.Errorf("Kernel(%q): %v", name, err)
		}
	}
	if _, err := Kernel("lanczos"); err == nil {
		t.Error("expected error for unknown kernel")
	}
}
