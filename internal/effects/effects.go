package effects

import "math"

// FrameState is the animation state of a single frame within a section.
type FrameState struct {
	Progress float64 // 0.0 at the first frame, 1.0 at the last
	Zoom     float64 // 1.0 = no zoom
	Fade     float64 // brightness multiplier in [0, 1]
}

// Effect maps a frame index to its animation state.
type Effect interface {
	State(frame, frameCount int) FrameState
}

// KenBurns is a continuous centered push-in with a symmetric fade.
type KenBurns struct {
	ZoomRange float64
}

func NewKenBurns(zoomRange float64) *KenBurns {
	return &KenBurns{ZoomRange: zoomRange}
}

func (k *KenBurns) State(frame, frameCount int) FrameState {
	p := Progress(frame, frameCount)
	return FrameState{
		Progress: p,
		Zoom:     Zoom(p, k.ZoomRange),
		Fade:     Fade(p),
	}
}

// FrameCount converts a duration into a whole number of frames, never below one.
func FrameCount(duration float64, fps int) int {
	if fps <= 0 || math.IsNaN(duration) || duration <= 0 {
		return 1
	}
	n := int(math.Round(duration * float64(fps)))
	if n < 1 {
		return 1
	}
	return n
}

// Progress is f / max(n-1, 1).
func Progress(frame, frameCount int) float64 {
	den := frameCount - 1
	if den < 1 {
		den = 1
	}
	return float64(frame) / float64(den)
}

func Zoom(progress, zoomRange float64) float64 {
	return 1.0 + zoomRange*progress
}

// Fade ramps 0→1 over the first half and 1→0 over the second.
func Fade(progress float64) float64 {
	fadeIn := 1.0
	if progress < 0.5 {
		fadeIn = math.Min(progress*2, 1.0)
	}
	fadeOut := 1.0
	if progress > 0.5 {
		fadeOut = math.Min((1.0-progress)*2, 1.0)
	}
	return math.Max(math.Min(fadeIn, fadeOut), 0)
}
