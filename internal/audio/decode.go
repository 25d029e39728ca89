package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/tubeauto/internal/system"
)

// Decoder reads audio files into clips. Formats other than WAV and MP3
// are transcoded to WAV with ffmpeg first.
type Decoder struct {
	FFmpegPath string
	TempDir    string
}

// Decode reads path with the default ffmpeg lookup.
func Decode(ctx context.Context, path string) (*Clip, error) {
	return (&Decoder{FFmpegPath: "ffmpeg"}).Decode(ctx, path)
}

func (d *Decoder) Decode(ctx context.Context, path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		tmp, err := d.transcode(ctx, path)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		defer os.Remove(tmp)

		clip, err := decodeWAV(tmp)
		if err != nil {
			// Report the caller's file, not the temporary transcode.
			var de *DecodeError
			if errors.As(err, &de) {
				return nil, &DecodeError{Path: path, Err: de.Err}
			}
			return nil, err
		}
		return clip, nil
	}
}

func (d *Decoder) transcode(ctx context.Context, path string) (string, error) {
	ffmpegPath := d.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	bin, err := system.LookupTool(ffmpegPath)
	if err != nil {
		return "", err
	}

	out := filepath.Join(d.TempDir, uuid.NewString()+".wav")
	if d.TempDir == "" {
		out = filepath.Join(os.TempDir(), uuid.NewString()+".wav")
	}
	args := ffmpeg.Input(path).
		Output(out, ffmpeg.KwArgs{"acodec": "pcm_s16le"}).
		OverWriteOutput().
		GetArgs()
	if err := system.RunTool(ctx, bin, args...); err != nil {
		os.Remove(out)
		return "", errors.Wrap(err, "transcode to wav")
	}
	return out, nil
}

// pcmChunkSamples bounds the scratch buffer used while reading WAV data.
const pcmChunkSamples = 16384

func decodeWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &DecodeError{Path: path, Err: errors.New("not a valid WAV file")}
	}
	if dec.SampleRate == 0 || dec.NumChans == 0 {
		return nil, &DecodeError{Path: path, Err: errors.New("missing format chunk")}
	}
	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, &DecodeError{Path: path, Err: errors.New("no PCM data")}
	}

	depth := int(dec.BitDepth)
	channels := int(dec.NumChans)
	samples := make([]int16, 0, max(dec.PCMSize/max(depth/8, 1), 0))
	buf := &goaudio.IntBuffer{Data: make([]int, pcmChunkSamples), Format: dec.Format()}
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		if n == 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			samples = append(samples, to16(v, depth))
		}
	}
	samples = samples[:len(samples)-len(samples)%channels]

	return &Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		Samples:    samples,
	}, nil
}

// to16 rescales a decoded WAV sample to signed 16-bit.
func to16(s, depth int) int16 {
	switch depth {
	case 8:
		return int16((s - 128) << 8)
	case 24:
		return int16(s >> 8)
	case 32:
		return int16(s >> 16)
	default:
		return int16(s)
	}
}

// go-mp3 always yields 16-bit little-endian stereo.
const mp3FrameBytes = 4

func decodeMP3(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	samples := make([]int16, 0, max(dec.Length()/2, 0))
	raw := make([]byte, pcmChunkSamples*2)
	for {
		n, err := io.ReadFull(dec, raw)
		n -= n % mp3FrameBytes
		for i := 0; i < n; i += 2 {
			samples = append(samples, int16(binary.LittleEndian.Uint16(raw[i:])))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
	}
	return &Clip{SampleRate: dec.SampleRate(), Channels: 2, Samples: samples}, nil
}

// Probe returns the duration of an audio file in seconds without decoding
// the samples where the container allows it.
func Probe(path string) (float64, error) {
	return (&Decoder{FFmpegPath: "ffmpeg"}).Duration(context.Background(), path)
}

// Duration is Probe with the decoder's ffmpeg installation. Containers other
// than WAV and MP3 are measured with the ffprobe next to FFmpegPath.
func (d *Decoder) Duration(ctx context.Context, path string) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		f, err := os.Open(path)
		if err != nil {
			return 0, &DecodeError{Path: path, Err: err}
		}
		defer f.Close()

		dec := wav.NewDecoder(f)
		if !dec.IsValidFile() {
			return 0, &DecodeError{Path: path, Err: errors.New("not a valid WAV file")}
		}
		dur, err := dec.Duration()
		if err != nil {
			return 0, &DecodeError{Path: path, Err: err}
		}
		return dur.Seconds(), nil

	case ".mp3":
		f, err := os.Open(path)
		if err != nil {
			return 0, &DecodeError{Path: path, Err: err}
		}
		defer f.Close()

		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return 0, &DecodeError{Path: path, Err: err}
		}
		if dec.SampleRate() <= 0 || dec.Length() < 0 {
			return 0, &DecodeError{Path: path, Err: errors.New("unknown mp3 length")}
		}
		return float64(dec.Length()) / float64(mp3FrameBytes*dec.SampleRate()), nil

	default:
		return d.durationFFprobe(ctx, path)
	}
}

// ffprobePath returns the ffprobe that ships with FFmpegPath.
func (d *Decoder) ffprobePath() string {
	if d.FFmpegPath == "" {
		return "ffprobe"
	}
	dir, base := filepath.Split(d.FFmpegPath)
	name := strings.Replace(base, "ffmpeg", "ffprobe", 1)
	if name == base {
		name = "ffprobe"
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

func (d *Decoder) durationFFprobe(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}
	bin, err := system.LookupTool(d.ffprobePath())
	if err != nil {
		return 0, &DecodeError{Path: path, Err: err}
	}

	args := ffmpeg.ConvertKwargsToCmdLineArgs(ffmpeg.KwArgs{
		"v":            "error",
		"show_format":  "",
		"show_streams": "",
		"of":           "json",
	})
	out, err := system.OutputTool(ctx, bin, append(args, path)...)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: errors.Wrap(err, "ffprobe")}
	}

	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &data); err != nil {
		return 0, &DecodeError{Path: path, Err: errors.WithStack(err)}
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(data.Format.Duration), 64)
	if err != nil {
		return 0, &DecodeError{Path: path, Err: errors.Wrap(err, "parse duration")}
	}
	return dur, nil
}
