package video

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/tubeauto/internal/system"
)

// MuxOutcome says whether the final file carries the narration.
type MuxOutcome int

const (
	MuxedWithAudio MuxOutcome = iota
	VideoOnlyFallback
)

func (o MuxOutcome) String() string {
	switch o {
	case MuxedWithAudio:
		return "muxed-with-audio"
	case VideoOnlyFallback:
		return "video-only-fallback"
	default:
		return "unknown"
	}
}

// MuxResult is returned for both outcomes; Reason is set on fallback.
type MuxResult struct {
	Path    string
	Outcome MuxOutcome
	Reason  error
}

// Muxer combines a video-only file with an audio file using ffmpeg.
type Muxer struct {
	FFmpegPath string
	AudioCodec string
	Log        zerolog.Logger
}

func NewMuxer(ffmpegPath, audioCodec string, log zerolog.Logger) *Muxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if audioCodec == "" {
		audioCodec = "aac"
	}
	return &Muxer{FFmpegPath: ffmpegPath, AudioCodec: audioCodec, Log: log}
}

// TempVideoPath is "<name>_temp<ext>" next to output.
func TempVideoPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "_temp" + ext
}

// Mux writes outputPath from videoPath and audioPath. When ffmpeg is
// missing or fails the video is kept without sound and the result says so.
// Only failing to move the video file itself is an error.
func (m *Muxer) Mux(ctx context.Context, videoPath, audioPath, outputPath string) (MuxResult, error) {
	tempVideo := TempVideoPath(outputPath)
	if videoPath != tempVideo {
		os.Remove(tempVideo)
		if err := os.Rename(videoPath, tempVideo); err != nil {
			return MuxResult{}, errors.Wrap(err, "move video to temp path")
		}
	}

	reason := m.mux(ctx, tempVideo, audioPath, outputPath)
	if reason == nil {
		os.Remove(tempVideo)
		os.Remove(audioPath)
		m.Log.Debug().Str("output", outputPath).Msg("audio muxed")
		return MuxResult{Path: outputPath, Outcome: MuxedWithAudio}, nil
	}

	os.Remove(outputPath)
	if err := os.Rename(tempVideo, outputPath); err != nil {
		return MuxResult{}, errors.Wrap(err, "restore video-only output")
	}
	os.Remove(audioPath)

	m.Log.Warn().Err(reason).Str("output", outputPath).Msg("muxing failed, output has no audio track")
	return MuxResult{Path: outputPath, Outcome: VideoOnlyFallback, Reason: reason}, nil
}

func (m *Muxer) mux(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if err := system.DetectTool(ctx, m.FFmpegPath); err != nil {
		return err
	}
	bin, err := system.LookupTool(m.FFmpegPath)
	if err != nil {
		return err
	}

	args := ffmpeg.Output(
		[]*ffmpeg.Stream{ffmpeg.Input(videoPath), ffmpeg.Input(audioPath)},
		outputPath,
		ffmpeg.KwArgs{"c:v": "copy", "c:a": m.AudioCodec, "strict": "experimental"},
	).OverWriteOutput().GetArgs()

	if err := system.RunTool(ctx, bin, args...); err != nil {
		return err
	}
	if !system.FileNonEmpty(outputPath) {
		return errors.Errorf("ffmpeg produced no output at %s", outputPath)
	}
	return nil
}
