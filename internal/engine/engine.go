package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/ivlev/tubeauto/internal/audio"
	"github.com/ivlev/tubeauto/internal/config"
	"github.com/ivlev/tubeauto/internal/effects"
	"github.com/ivlev/tubeauto/internal/renderer"
	"github.com/ivlev/tubeauto/internal/script"
	"github.com/ivlev/tubeauto/internal/source"
	"github.com/ivlev/tubeauto/internal/subtitle"
	"github.com/ivlev/tubeauto/internal/system"
	"github.com/ivlev/tubeauto/internal/video"
)

// Muxer attaches the narration track to the rendered video.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath, outputPath string) (video.MuxResult, error)
}

// Assembler turns an ordered list of sections into one narrated video.
type Assembler struct {
	Config  config.Config
	Encoder video.Encoder
	Muxer   Muxer
	Log     zerolog.Logger

	// Optional hooks.
	Progress func(done, total int)
	Face     font.Face
	Decoder  *audio.Decoder

	pool *system.FramePool
}

func NewAssembler(cfg config.Config, enc video.Encoder, mux Muxer, log zerolog.Logger) *Assembler {
	return &Assembler{
		Config:  cfg,
		Encoder: enc,
		Muxer:   mux,
		Log:     log,
		Decoder: &audio.Decoder{FFmpegPath: cfg.FFmpegPath, TempDir: cfg.TempDir},
		pool:    system.NewFramePool(),
	}
}

// Result describes a finished run.
type Result struct {
	OutputPath string
	Mux        video.MuxResult
	Frames     int
	Duration   float64
	Sections   int
	Timings    Timings
}

// Timings splits the wall time of a run by phase.
type Timings struct {
	Prepare time.Duration
	Render  time.Duration
	Audio   time.Duration
	Mux     time.Duration
	Total   time.Duration
}

// Run validates every section, streams all frames into one video, exports
// the concatenated narration and muxes the two. Nothing is written until
// every section has a readable image and audio file.
func (a *Assembler) Run(ctx context.Context, sections []*script.Section, outputPath string) (*Result, error) {
	start := time.Now()
	cfg := a.Config
	if len(sections) == 0 {
		return nil, errors.New("no sections to assemble")
	}
	if a.pool == nil {
		a.pool = system.NewFramePool()
	}
	decoder := a.Decoder
	if decoder == nil {
		decoder = &audio.Decoder{FFmpegPath: cfg.FFmpegPath, TempDir: cfg.TempDir}
	}

	clips, totalFrames, err := a.prepare(ctx, sections, decoder)
	if err != nil {
		return nil, err
	}
	res := &Result{OutputPath: outputPath, Sections: len(sections)}
	res.Timings.Prepare = time.Since(start)

	kernel, err := renderer.Kernel(cfg.Interpolation)
	if err != nil {
		return nil, err
	}
	face := a.Face
	if face == nil {
		face, _ = subtitle.FaceOrFallback(cfg.FontPaths, cfg.FontSize, a.Log)
	}
	sub := subtitle.NewRenderer(face, cfg.Width, cfg.SubtitleHeight, cfg.StrokeWidth, cfg.MaxLines)

	tmpDir, err := os.MkdirTemp(cfg.TempDir, "tubeauto_")
	if err != nil {
		return nil, errors.Wrap(err, "create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	a.Log.Info().
		Int("sections", len(sections)).
		Int("frames", totalFrames).
		Str("resolution", fmt.Sprintf("%dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)).
		Str("encoder", a.Encoder.Name()).
		Msg("assembling video")

	// From here on a failure must not leave a partial video behind.
	committed := false
	defer func() {
		if !committed {
			os.Remove(outputPath)
		}
	}()

	renderStart := time.Now()
	stream, err := a.Encoder.Open(ctx, outputPath, video.StreamParams{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS})
	if err != nil {
		return nil, &StreamOpenError{Path: outputPath, Err: err}
	}

	seq := &Sequencer{
		Effect:  effects.NewKenBurns(cfg.ZoomRange),
		Kernel:  kernel,
		Opacity: cfg.SubtitleOpacity,
		Workers: cfg.Workers,
		Pool:    a.pool,
	}
	written := 0
	emit := func(_ int, frame *image.RGBA) error {
		if err := stream.WriteFrame(frame); err != nil {
			return err
		}
		written++
		if a.Progress != nil {
			a.Progress(written, totalFrames)
		}
		return nil
	}

	for i, s := range sections {
		if err := a.renderSection(ctx, i, s, seq, sub, emit); err != nil {
			if cerr := stream.Close(); cerr != nil {
				a.Log.Debug().Err(cerr).Msg("video stream closed after abort")
			}
			return nil, err
		}
	}
	if err := stream.Close(); err != nil {
		return nil, errors.Wrap(err, "finalize video stream")
	}
	if !system.FileNonEmpty(outputPath) {
		return nil, &EmptyOutputError{Kind: "video", Path: outputPath}
	}
	res.Frames = written
	res.Timings.Render = time.Since(renderStart)

	audioStart := time.Now()
	track, err := audio.Concat(clips...)
	if err != nil {
		return nil, errors.Wrap(err, "concatenate narration")
	}
	audioPath := filepath.Join(tmpDir, uuid.NewString()+".wav")
	if err := audio.WriteWAV(audioPath, track); err != nil {
		return nil, errors.Wrap(err, "export narration")
	}
	if !system.FileNonEmpty(audioPath) {
		return nil, &EmptyOutputError{Kind: "audio", Path: audioPath}
	}
	res.Duration = track.Duration()
	res.Timings.Audio = time.Since(audioStart)

	muxStart := time.Now()
	mr, err := a.Muxer.Mux(ctx, outputPath, audioPath, outputPath)
	if err != nil {
		return nil, err
	}
	committed = true
	res.Mux = mr
	res.OutputPath = mr.Path
	res.Timings.Mux = time.Since(muxStart)
	res.Timings.Total = time.Since(start)

	a.Log.Info().
		Str("output", res.OutputPath).
		Int("frames", res.Frames).
		Float64("duration", res.Duration).
		Stringer("outcome", mr.Outcome).
		Msg("video assembled")

	if cfg.ShowStats {
		a.report(res)
	}
	return res, nil
}

// prepare checks and decodes every section before anything is written.
func (a *Assembler) prepare(ctx context.Context, sections []*script.Section, dec *audio.Decoder) ([]*audio.Clip, int, error) {
	clips := make([]*audio.Clip, len(sections))
	total := 0
	for i, s := range sections {
		if s == nil {
			return nil, 0, errors.Errorf("section %d is nil", i)
		}
		if s.ImagePath == "" || s.AudioPath == "" {
			s.Resolve(i, "")
		}
		if !system.FileNonEmpty(s.ImagePath) {
			return nil, 0, &MissingInputError{Section: i, Kind: "image", Path: s.ImagePath}
		}
		if !system.FileNonEmpty(s.AudioPath) {
			return nil, 0, &MissingInputError{Section: i, Kind: "audio", Path: s.AudioPath}
		}
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		w, h, err := source.Dimensions(s.ImagePath)
		if err != nil {
			return nil, 0, &DecodeError{Section: i, Kind: "image", Path: s.ImagePath, Err: err}
		}

		clip, err := dec.Decode(ctx, s.AudioPath)
		if err != nil {
			return nil, 0, &DecodeError{Section: i, Kind: "audio", Path: s.AudioPath, Err: err}
		}
		clips[i] = clip
		s.Duration = clip.Duration()
		s.FrameCount = effects.FrameCount(s.Duration, a.Config.FPS)
		total += s.FrameCount

		a.Log.Debug().
			Int("section", i).
			Str("image", fmt.Sprintf("%dx%d", w, h)).
			Float64("duration", s.Duration).
			Int("frames", s.FrameCount).
			Msg("section prepared")
	}
	return clips, total, nil
}

func (a *Assembler) renderSection(ctx context.Context, i int, s *script.Section, seq *Sequencer, sub *subtitle.Renderer, emit EmitFunc) error {
	cfg := a.Config
	img, err := source.Open(s.ImagePath, cfg.DPI)
	if err != nil {
		return &DecodeError{Section: i, Kind: "image", Path: s.ImagePath, Err: err}
	}
	canvas := renderer.FitToCanvas(img, cfg.Width, cfg.Height, cfg.FitMode, seq.Kernel)

	var band *image.RGBA
	if cfg.SubtitleHeight > 0 {
		band = sub.Render(s.SubtitleText())
	}

	a.Log.Debug().Int("section", i).Int("frames", s.FrameCount).Msg("rendering section")
	if err := seq.Run(ctx, canvas, band, s.FrameCount, emit); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &StreamWriteError{Section: i, Err: err}
	}
	return nil
}
