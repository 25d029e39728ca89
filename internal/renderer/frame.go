package renderer

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/tubeauto/internal/effects"
)

// RenderFrame produces one output frame into dst: zoom-crop of the canvas,
// fade, then the subtitle band blended over the bottom rows.
// canvas and band are only read.
func RenderFrame(dst, canvas, band *image.RGBA, st effects.FrameState, opacity float64, k xdraw.Interpolator) {
	ZoomCrop(dst, canvas, st.Zoom, k)
	ApplyFade(dst, st.Fade)
	BlendBand(dst, band, opacity)
}
