package audio

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WriteWAV exports clip as 16-bit PCM WAV.
func WriteWAV(path string, clip *Clip) error {
	if clip == nil || clip.SampleRate <= 0 || clip.Channels <= 0 {
		return errors.New("invalid clip")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create wav")
	}

	enc := wav.NewEncoder(f, clip.SampleRate, 16, clip.Channels, 1)
	format := &goaudio.Format{NumChannels: clip.Channels, SampleRate: clip.SampleRate}

	// Whole frames per chunk so the encoder never splits one.
	step := max(pcmChunkSamples-pcmChunkSamples%clip.Channels, clip.Channels)
	buf := &goaudio.IntBuffer{Format: format, Data: make([]int, step), SourceBitDepth: 16}
	// An empty clip still gets its header and data chunk.
	for off := 0; off == 0 || off < len(clip.Samples); off += step {
		chunk := clip.Samples[off:min(off+step, len(clip.Samples))]
		buf.Data = buf.Data[:len(chunk)]
		for i, v := range chunk {
			buf.Data[i] = int(v)
		}
		if err := enc.Write(buf); err != nil {
			f.Close()
			return errors.Wrap(err, "write wav samples")
		}
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "finalize wav")
	}
	return f.Close()
}
