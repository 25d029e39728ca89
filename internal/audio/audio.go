package audio

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Clip is interleaved 16-bit PCM. Six minutes of 44.1 kHz stereo take
// about 64 MB.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Frames is the number of sample frames (one sample per channel).
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.SampleRate)
}

// DecodeError reports an audio file that could not be read as audio.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode audio %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Concat appends clips in order. Clips that differ from the first in
// sample rate or channel count are converted to its format.
func Concat(clips ...*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, errors.New("no clips to concatenate")
	}
	first := clips[0]
	if first.SampleRate <= 0 || first.Channels <= 0 {
		return nil, errors.Errorf("invalid clip format %d Hz / %d ch", first.SampleRate, first.Channels)
	}

	total := 0
	for _, c := range clips {
		total += len(c.Samples)
	}
	out := &Clip{
		SampleRate: first.SampleRate,
		Channels:   first.Channels,
		Samples:    make([]int16, 0, total),
	}

	for i, c := range clips {
		if c.SampleRate <= 0 || c.Channels <= 0 {
			return nil, errors.Errorf("clip %d: invalid format %d Hz / %d ch", i, c.SampleRate, c.Channels)
		}
		conv := remix(c, out.Channels)
		conv = resample(conv, out.SampleRate)
		out.Samples = append(out.Samples, conv.Samples...)
	}
	return out, nil
}

// remix converts channel count. Mono is duplicated on upmix; downmix
// averages the source channels.
func remix(c *Clip, channels int) *Clip {
	if c.Channels == channels {
		return c
	}
	n := c.Frames()
	out := &Clip{SampleRate: c.SampleRate, Channels: channels, Samples: make([]int16, n*channels)}
	for f := 0; f < n; f++ {
		src := c.Samples[f*c.Channels : (f+1)*c.Channels]
		if channels < c.Channels {
			sum := 0
			for _, s := range src {
				sum += int(s)
			}
			avg := int16(sum / len(src))
			for ch := 0; ch < channels; ch++ {
				out.Samples[f*channels+ch] = avg
			}
			continue
		}
		for ch := 0; ch < channels; ch++ {
			out.Samples[f*channels+ch] = src[ch%c.Channels]
		}
	}
	return out
}

// resample converts sample rate with linear interpolation.
func resample(c *Clip, rate int) *Clip {
	if c.SampleRate == rate {
		return c
	}
	n := c.Frames()
	outFrames := int(math.Round(float64(n) * float64(rate) / float64(c.SampleRate)))
	out := &Clip{SampleRate: rate, Channels: c.Channels, Samples: make([]int16, outFrames*c.Channels)}
	if n == 0 {
		return out
	}

	step := float64(c.SampleRate) / float64(rate)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * step
		i := int(pos)
		frac := pos - float64(i)
		j := i + 1
		if i >= n-1 {
			i, j, frac = n-1, n-1, 0
		}
		for ch := 0; ch < c.Channels; ch++ {
			a := float64(c.Samples[i*c.Channels+ch])
			b := float64(c.Samples[j*c.Channels+ch])
			out.Samples[f*c.Channels+ch] = clamp16(int(math.Round(a + (b-a)*frac)))
		}
	}
	return out
}

func clamp16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
