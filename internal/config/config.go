package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Fit modes for placing a section image on the canvas.
const (
	FitCover   = "cover"
	FitContain = "contain"
)

const envPrefix = "TUBEAUTO_"

type Config struct {
	Width           int      `yaml:"width"`
	Height          int      `yaml:"height"`
	FPS             int      `yaml:"fps"`
	ZoomRange       float64  `yaml:"zoom_range"`
	FitMode         string   `yaml:"fit_mode"`
	Interpolation   string   `yaml:"interpolation"`
	SubtitleHeight  int      `yaml:"subtitle_height"`
	SubtitleOpacity float64  `yaml:"subtitle_opacity"`
	StrokeWidth     int      `yaml:"stroke_width"`
	FontSize        float64  `yaml:"font_size"`
	MaxLines        int      `yaml:"max_lines"`
	FontPaths       []string `yaml:"font_paths"`
	FFmpegPath      string   `yaml:"ffmpeg_path"`
	VideoEncoder    string   `yaml:"video_encoder"`
	Quality         int      `yaml:"quality"`
	AudioCodec      string   `yaml:"audio_codec"`
	Workers         int      `yaml:"workers"`
	DPI             int      `yaml:"dpi"`
	TempDir         string   `yaml:"temp_dir"`
	ShowStats       bool     `yaml:"show_stats"`
	BenchmarkLog    string   `yaml:"benchmark_log"`
	LogLevel        string   `yaml:"log_level"`
	BuildVersion    string   `yaml:"-"`
}

func Default() Config {
	return Config{
		Width:           1920,
		Height:          1080,
		FPS:             24,
		ZoomRange:       0.15,
		FitMode:         FitCover,
		Interpolation:   "catmullrom",
		SubtitleHeight:  150,
		SubtitleOpacity: 0.7,
		StrokeWidth:     3,
		FontSize:        50,
		MaxLines:        2,
		FFmpegPath:      "ffmpeg",
		VideoEncoder:    "auto",
		AudioCodec:      "aac",
		Workers:         runtime.NumCPU(),
		DPI:             150,
		BenchmarkLog:    "benchmark.log",
		LogLevel:        "info",
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TUBEAUTO_* environment variables.
func (c *Config) ApplyEnv() error {
	ints := map[string]*int{
		"WIDTH":           &c.Width,
		"HEIGHT":          &c.Height,
		"FPS":             &c.FPS,
		"SUBTITLE_HEIGHT": &c.SubtitleHeight,
		"STROKE_WIDTH":    &c.StrokeWidth,
		"MAX_LINES":       &c.MaxLines,
		"QUALITY":         &c.Quality,
		"WORKERS":         &c.Workers,
		"DPI":             &c.DPI,
	}
	for name, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, name)
		}
		*dst = n
	}

	floats := map[string]*float64{
		"ZOOM_RANGE":       &c.ZoomRange,
		"SUBTITLE_OPACITY": &c.SubtitleOpacity,
		"FONT_SIZE":        &c.FontSize,
	}
	for name, dst := range floats {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.Wrapf(err, "%s%s", envPrefix, name)
		}
		*dst = f
	}

	strs := map[string]*string{
		"FIT_MODE":      &c.FitMode,
		"INTERPOLATION": &c.Interpolation,
		"FFMPEG_PATH":   &c.FFmpegPath,
		"VIDEO_ENCODER": &c.VideoEncoder,
		"AUDIO_CODEC":   &c.AudioCodec,
		"TEMP_DIR":      &c.TempDir,
		"BENCHMARK_LOG": &c.BenchmarkLog,
		"LOG_LEVEL":     &c.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	// Font candidates use the OS path list separator.
	if v, ok := os.LookupEnv(envPrefix + "FONT_PATHS"); ok && v != "" {
		c.FontPaths = strings.Split(v, string(os.PathListSeparator))
	}
	if v, ok := os.LookupEnv(envPrefix + "SHOW_STATS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "%sSHOW_STATS", envPrefix)
		}
		c.ShowStats = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		return errors.Errorf("frame size %dx%d must be even for yuv420p", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return errors.Errorf("invalid fps %d", c.FPS)
	}
	if c.ZoomRange < 0 {
		return errors.Errorf("zoom_range must not be negative, got %f", c.ZoomRange)
	}
	if c.SubtitleHeight < 0 || c.SubtitleHeight > c.Height {
		return errors.Errorf("subtitle_height %d outside [0, %d]", c.SubtitleHeight, c.Height)
	}
	if c.SubtitleOpacity < 0 || c.SubtitleOpacity > 1 {
		return errors.Errorf("subtitle_opacity %f outside [0, 1]", c.SubtitleOpacity)
	}
	if c.FontSize <= 0 {
		return errors.Errorf("invalid font_size %f", c.FontSize)
	}
	switch c.FitMode {
	case FitCover, FitContain:
	default:
		return errors.Errorf("unknown fit_mode %q", c.FitMode)
	}
	switch c.Interpolation {
	case "catmullrom", "bilinear", "approxbilinear", "nearest":
	default:
		return errors.Errorf("unknown interpolation %q", c.Interpolation)
	}
	switch c.VideoEncoder {
	case "auto", "mjpeg", "libx264", "h264_videotoolbox", "h264_nvenc":
	default:
		return errors.Errorf("unknown video_encoder %q", c.VideoEncoder)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.MaxLines < 1 {
		c.MaxLines = 1
	}
	return nil
}

// DefaultQuality mirrors the per-encoder quality table used when quality is 0.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	case "mjpeg":
		return 90
	default:
		return 23
	}
}
