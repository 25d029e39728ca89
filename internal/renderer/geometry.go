package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ivlev/tubeauto/internal/config"
)

var black = image.NewUniform(color.RGBA{A: 255})

// Kernel maps a configured interpolation name to a resampler.
func Kernel(name string) (xdraw.Interpolator, error) {
	switch name {
	case "catmullrom", "":
		return xdraw.CatmullRom, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
}

// FitRect computes where a srcW×srcH image lands on a w×h canvas.
// The rectangle may extend past the canvas; drawing clips it.
func FitRect(srcW, srcH, w, h int, mode string) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return image.Rectangle{}
	}
	// Integer math: 4:3 and 16:9 sources must land on exact pixel sizes.
	sw, sh, tw, th := int64(srcW), int64(srcH), int64(w), int64(h)

	// Cover: wider images are scaled by height, taller ones by width.
	byHeight := sw*th > tw*sh
	if mode == config.FitContain {
		byHeight = !byHeight
	}

	var newW, newH int
	if byHeight {
		newH = h
		newW = int(th * sw / sh)
	} else {
		newW = w
		newH = int(tw * sh / sw)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	x0 := (w - newW) / 2
	y0 := (h - newH) / 2
	return image.Rect(x0, y0, x0+newW, y0+newH)
}

// FitToCanvas scales src onto a black w×h canvas, preserving aspect ratio.
func FitToCanvas(src image.Image, w, h int, mode string, k xdraw.Interpolator) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), black, image.Point{}, draw.Src)

	sb := src.Bounds()
	dr := FitRect(sb.Dx(), sb.Dy(), w, h, mode)
	if dr.Empty() {
		return canvas
	}

	if dr.Size() == sb.Size() {
		draw.Draw(canvas, dr, src, sb.Min, draw.Over)
	} else {
		k.Scale(canvas, dr, src, sb, xdraw.Over, nil)
	}
	opaque(canvas)
	return canvas
}

// ZoomCrop writes into dst the centered dst-sized window of canvas enlarged by zoom.
// It is the single-pass equivalent of "resize by zoom, then crop the middle".
func ZoomCrop(dst, canvas *image.RGBA, zoom float64, k xdraw.Interpolator) {
	if zoom < 1 {
		zoom = 1
	}
	if zoom == 1 && dst.Bounds().Size() == canvas.Bounds().Size() {
		copy(dst.Pix, canvas.Pix)
		return
	}

	cb := canvas.Bounds()
	db := dst.Bounds()
	scx := float64(cb.Min.X) + float64(cb.Dx())/2
	scy := float64(cb.Min.Y) + float64(cb.Dy())/2
	dcx := float64(db.Min.X) + float64(db.Dx())/2
	dcy := float64(db.Min.Y) + float64(db.Dy())/2

	// dst = zoom*(src - srcCenter) + dstCenter
	s2d := f64.Aff3{
		zoom, 0, dcx - zoom*scx,
		0, zoom, dcy - zoom*scy,
	}
	draw.Draw(dst, db, black, image.Point{}, draw.Src)
	k.Transform(dst, s2d, canvas, cb, xdraw.Src, nil)
	opaque(dst)
}

func opaque(img *image.RGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
