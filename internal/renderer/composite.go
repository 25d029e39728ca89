package renderer

import (
	"image"
	"math"
)

// ApplyFade scales RGB by fade in place; alpha is left opaque.
func ApplyFade(img *image.RGBA, fade float64) {
	if fade >= 1 {
		return
	}
	if fade < 0 || math.IsNaN(fade) {
		fade = 0
	}

	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp8(math.Round(float64(v) * fade))
	}

	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = lut[pix[i]]
		pix[i+1] = lut[pix[i+1]]
		pix[i+2] = lut[pix[i+2]]
	}
}

// BlendBand mixes band into the bottom rows of frame with a fixed weight:
// out = frame*(1-opacity) + band*opacity. The band's stored RGB is used as is,
// so its transparent areas darken the frame instead of leaving it untouched.
func BlendBand(frame, band *image.RGBA, opacity float64) {
	if band == nil || opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	fb := frame.Bounds()
	bb := band.Bounds()
	w := min(fb.Dx(), bb.Dx())
	h := min(fb.Dy(), bb.Dy())
	top := fb.Max.Y - h

	keep := 1 - opacity
	for y := 0; y < h; y++ {
		fo := frame.PixOffset(fb.Min.X, top+y)
		bo := band.PixOffset(bb.Min.X, bb.Min.Y+y)
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float64(frame.Pix[fo+c])*keep + float64(band.Pix[bo+c])*opacity
				frame.Pix[fo+c] = clamp8(math.Round(v))
			}
			frame.Pix[fo+3] = 0xff
			fo += 4
			bo += 4
		}
	}
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
