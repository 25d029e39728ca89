package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func tone(rate, channels int, seconds float64) *Clip {
	frames := int(math.Round(float64(rate) * seconds))
	c := &Clip{SampleRate: rate, Channels: channels, Samples: make([]int16, frames*channels)}
	for f := 0; f < frames; f++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(f)/float64(rate)))
		for ch := 0; ch < channels; ch++ {
			c.Samples[f*channels+ch] = v
		}
	}
	return c
}

func TestWriteWAVDurationAndDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteWAV(path, tone(8000, 1, 1.5)); err != nil {
		t.Fatal(err)
	}

	d, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-1.5) > 1e-3 {
		t.Errorf("Probe = %v, want 1.5", d)
	}

	clip, err := Decode(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 8000 || clip.Channels != 1 {
		t.Errorf("format %d Hz / %d ch", clip.SampleRate, clip.Channels)
	}
	if math.Abs(clip.Duration()-1.5) > 1e-3 {
		t.Errorf("Duration = %v", clip.Duration())
	}
}

func TestConcatDurationIsSum(t *testing.T) {
	a := tone(16000, 1, 1.0)
	b := tone(16000, 1, 2.5)

	out, err := Concat(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Duration(); math.Abs(got-3.5) > 1e-9 {
		t.Errorf("Duration = %v, want 3.5", got)
	}

	path := filepath.Join(t.TempDir(), "joined.wav")
	if err := WriteWAV(path, out); err != nil {
		t.Fatal(err)
	}
	d, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-3.5) > 1e-3 {
		t.Errorf("exported duration = %v, want 3.5", d)
	}
}

func TestConcatConvertsFormat(t *testing.T) {
	first := tone(22050, 2, 1.0)
	other := tone(11025, 1, 2.0)

	out, err := Concat(first, other)
	if err != nil {
		t.Fatal(err)
	}
	if out.SampleRate != 22050 || out.Channels != 2 {
		t.Fatalf("format %d/%d", out.SampleRate, out.Channels)
	}
	if math.Abs(out.Duration()-3.0) > 2.0/22050 {
		t.Errorf("Duration = %v, want 3.0", out.Duration())
	}
}

func TestRemixDownmixAverages(t *testing.T) {
	c := &Clip{SampleRate: 100, Channels: 2, Samples: []int16{100, 300, -50, 50}}
	m := remix(c, 1)
	if len(m.Samples) != 2 || m.Samples[0] != 200 || m.Samples[1] != 0 {
		t.Errorf("downmix = %v", m.Samples)
	}
}

func TestConcatRejectsEmpty(t *testing.T) {
	if _, err := Concat(); err == nil {
		t.Error("expected error")
	}
	if _, err := Concat(&Clip{}); err == nil {
		t.Error("expected error for zero format")
	}
}

func TestInvalidAudioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bad.wav", "bad.mp3"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("not audio at all"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Probe(p)
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%s: want DecodeError, got %v", name, err)
		}
	}

	_, err := Probe(filepath.Join(dir, "missing.wav"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Errorf("missing file: want DecodeError, got %v", err)
	}
}

func TestWriteWAVKeepsSamplesAcrossChunks(t *testing.T) {
	frames := pcmChunkSamples + 1001
	c := &Clip{SampleRate: 16000, Channels: 2, Samples: make([]int16, frames*2)}
	for i := range c.Samples {
		c.Samples[i] = int16(i*37 - 30000)
	}
	c.Samples[0], c.Samples[1] = math.MinInt16, math.MaxInt16

	path := filepath.Join(t.TempDir(), "long.wav")
	if err := WriteWAV(path, c); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 2 || got.SampleRate != 16000 || len(got.Samples) != len(c.Samples) {
		t.Fatalf("got %d Hz / %d ch / %d samples", got.SampleRate, got.Channels, len(got.Samples))
	}
	for i := range c.Samples {
		if got.Samples[i] != c.Samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, got.Samples[i], c.Samples[i])
		}
	}
}

func TestWriteWAVEmptyClip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, &Clip{SampleRate: 8000, Channels: 1}); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil || fi.Size() < 44 {
		t.Errorf("expected a bare WAV header, got %v %v", fi, err)
	}
}

// testdata/narration.mp3 is the opening of the MPEG-2 sample shipped with
// go-mp3: 120 frames of 22.05 kHz mono speech.
func TestMP3DurationMatchesDecode(t *testing.T) {
	path := filepath.Join("testdata", "narration.mp3")

	d, err := Probe(path)
	if err != nil {
		t.Fatal(err)
	}
	clip, err := Decode(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 22050 || clip.Channels != 2 {
		t.Errorf("format %d Hz / %d ch, want 22050 / 2", clip.SampleRate, clip.Channels)
	}
	if math.Abs(d-clip.Duration()) > 1e-3 {
		t.Errorf("Probe = %v, decoded duration = %v", d, clip.Duration())
	}
	if d < 2.9 || d > 3.3 {
		t.Errorf("Probe = %v, want about 3.13", d)
	}

	nonZero := 0
	for _, s := range clip.Samples {
		if s != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("decoded mp3 is silent")
	}
}

func TestFFprobePath(t *testing.T) {
	tests := []struct {
		ffmpeg string
		want   string
	}{
		{"", "ffprobe"},
		{"ffmpeg", "ffprobe"},
		{"/opt/ff/bin/ffmpeg", "/opt/ff/bin/ffprobe"},
		{"/opt/ff/ffmpeg-6.1", "/opt/ff/ffprobe-6.1"},
		{"/usr/local/bin/avconv", "/usr/local/bin/ffprobe"},
	}
	for _, tt := range tests {
		d := &Decoder{FFmpegPath: tt.ffmpeg}
		if got := d.ffprobePath(); got != tt.want {
			t.Errorf("ffprobePath(%q) = %q, want %q", tt.ffmpeg, got, tt.want)
		}
	}
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestDurationUsesConfiguredFFprobe(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	dir := t.TempDir()
	writeScript(t, filepath.Join(dir, "ffmpeg"), "exit 0\n")
	writeScript(t, filepath.Join(dir, "ffprobe"), "echo '{\"format\":{\"duration\":\"12.5\"}}'\n")

	in := filepath.Join(dir, "voice.ogg")
	if err := os.WriteFile(in, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := &Decoder{FFmpegPath: filepath.Join(dir, "ffmpeg"), TempDir: dir}
	got, err := d.Duration(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12.5 {
		t.Errorf("Duration = %v, want 12.5", got)
	}
}

func TestTranscodedGarbageNamesSourceOnce(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh")
	}
	dir := t.TempDir()
	// Writes junk where the WAV should go.
	writeScript(t, filepath.Join(dir, "ffmpeg"), `for a; do case "$a" in *.wav) out="$a";; esac; done
echo junk > "$out"
`)

	in := filepath.Join(dir, "voice.ogg")
	if err := os.WriteFile(in, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := &Decoder{FFmpegPath: filepath.Join(dir, "ffmpeg"), TempDir: dir}
	_, err := d.Decode(context.Background(), in)
	var de *DecodeError
	if !errors.As(err, &de) || de.Path != in {
		t.Fatalf("want DecodeError for %s, got %v", in, err)
	}
	if n := strings.Count(err.Error(), "decode audio"); n != 1 {
		t.Errorf("%q repeats its prefix %d times", err.Error(), n)
	}
}
