package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ivlev/tubeauto/internal/config"
	"github.com/ivlev/tubeauto/internal/system"
)

// StreamParams fixes the geometry and rate of an output stream.
type StreamParams struct {
	Width, Height int
	FPS           int
}

// Stream accepts frames in playback order.
type Stream interface {
	WriteFrame(img *image.RGBA) error
	Close() error
}

// Encoder opens video-only streams on disk.
type Encoder interface {
	Open(ctx context.Context, path string, p StreamParams) (Stream, error)
	Name() string
}

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	FFmpegPath string
	Codec      string
	Quality    int
	Log        zerolog.Logger
}

func (e *FFmpegEncoder) Name() string { return e.Codec }

func (e *FFmpegEncoder) Open(ctx context.Context, path string, p StreamParams) (Stream, error) {
	bin, err := system.LookupTool(e.FFmpegPath)
	if err != nil {
		return nil, err
	}

	quality := e.Quality
	if quality <= 0 {
		quality = config.DefaultQuality(e.Codec)
	}
	args := buildFFmpegArgs(p, path, e.Codec, quality)
	cmd := exec.CommandContext(ctx, bin, args...)

	s := &ffmpegStream{cmd: cmd, path: bin, args: args, width: p.Width, height: p.Height}
	cmd.Stderr = &s.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdin pipe")
	}
	s.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, system.AsToolError(err, bin, args, "")
	}
	e.Log.Debug().Str("codec", e.Codec).Int("quality", quality).Str("path", path).Msg("ffmpeg stream opened")
	return s, nil
}

func buildFFmpegArgs(p StreamParams, videoPath, encoderName string, quality int) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-an",
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	switch encoderName {
	case "h264_videotoolbox":
		bitrate := quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", quality), "-preset", "medium")
	}

	args = append(args, videoPath)
	return args
}

type ffmpegStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	path   string
	args   []string
	width  int
	height int
	closed bool
}

func (s *ffmpegStream) WriteFrame(img *image.RGBA) error {
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return errors.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		// A broken pipe means ffmpeg already exited; its stderr says why.
		if toolErr := s.finish(); toolErr != nil {
			return errors.Wrapf(toolErr, "write raw frame: %v", err)
		}
		return errors.Wrap(err, "write raw frame")
	}
	return nil
}

func (s *ffmpegStream) Close() error {
	if s.closed {
		return nil
	}
	return s.finish()
}

func (s *ffmpegStream) finish() error {
	s.closed = true
	s.stdin.Close()
	return system.AsToolError(s.cmd.Wait(), s.path, s.args, s.stderr.String())
}

func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	rgba := img
	if rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
