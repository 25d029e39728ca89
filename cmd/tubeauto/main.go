package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ivlev/tubeauto/internal/audio"
	"github.com/ivlev/tubeauto/internal/config"
	"github.com/ivlev/tubeauto/internal/engine"
	"github.com/ivlev/tubeauto/internal/script"
	"github.com/ivlev/tubeauto/internal/video"
)

var buildVersion = "dev"

type renderOptions struct {
	scriptPath string
	outputPath string
	configPath string
	width      int
	height     int
	fps        int
	workers    int
	encoder    string
	ffmpegPath string
	stats      bool
	noProgress bool
}

func main() {
	// .env.local wins over .env; neither is required.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tubeauto",
		Short: "Assemble narrated videos from still images and voice-over",
		Long: `tubeauto turns a script of sections (image + narration + subtitle) into one video.
Each image gets a slow centered zoom with a fade in/out, the subtitle is burned into a
band at the bottom, and the narration tracks are joined and muxed with ffmpeg.

Examples:
  # Render the newest script in scripts/
  tubeauto render

  # Render a given script to a given file
  tubeauto render -s scripts/episode1.yaml -o output/episode1.mp4

  # Start a new three-section script in scripts/
  tubeauto init -n 3

  # Print narration durations
  tubeauto duration audio_0.mp3 audio_1.mp3`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCmd(), newInitCmd(), newDurationCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a script into a narrated video",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.scriptPath, "script", "s", "", "script YAML (default: newest file in scripts/)")
	f.StringVarP(&opts.outputPath, "output", "o", "", "output video (default: output/<script>_<timestamp>.mp4)")
	f.StringVarP(&opts.configPath, "config", "c", "", "config YAML")
	f.IntVar(&opts.width, "width", 0, "frame width")
	f.IntVar(&opts.height, "height", 0, "frame height")
	f.IntVar(&opts.fps, "fps", 0, "frames per second")
	f.IntVarP(&opts.workers, "workers", "w", 0, "parallel frame renderers")
	f.StringVar(&opts.encoder, "encoder", "", "video encoder: auto, libx264, h264_videotoolbox, h264_nvenc, mjpeg")
	f.StringVar(&opts.ffmpegPath, "ffmpeg", "", "ffmpeg binary")
	f.BoolVar(&opts.stats, "stats", false, "print a performance report")
	f.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func loadConfig(cmd *cobra.Command, opts *renderOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = opts.width
	}
	if flags.Changed("height") {
		cfg.Height = opts.height
	}
	if flags.Changed("fps") {
		cfg.FPS = opts.fps
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("encoder") {
		cfg.VideoEncoder = opts.encoder
	}
	if flags.Changed("ffmpeg") {
		cfg.FFmpegPath = opts.ffmpegPath
	}
	if flags.Changed("stats") {
		cfg.ShowStats = opts.stats
	}
	cfg.BuildVersion = buildVersion

	return cfg, cfg.Validate()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return errors.Wrap(err, "config")
	}
	log := newLogger(cfg.LogLevel)

	scriptPath := opts.scriptPath
	if scriptPath == "" {
		latest, err := script.FindLatestScript(script.DefaultDir)
		if err != nil {
			return errors.Wrapf(err, "put a script into %s/", script.DefaultDir)
		}
		scriptPath = latest
		fmt.Printf("[*] Selected script: %s\n", scriptPath)
	}
	sc, err := script.ReadScript(scriptPath)
	if err != nil {
		return err
	}

	outputPath := opts.outputPath
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
		base = strings.ReplaceAll(base, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		outputPath = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", base, timestamp))
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := video.SelectEncoder(ctx, cfg, log)
	if enc.Name() == "mjpeg" && strings.EqualFold(filepath.Ext(outputPath), ".mp4") {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".avi"
		fmt.Printf("[!] ffmpeg unavailable, writing Motion-JPEG to %s\n", outputPath)
	} else if enc.Name() != "libx264" {
		fmt.Printf("[*] Encoder: %s\n", enc.Name())
	}
	fmt.Printf("[*] Sections: %d | %dx%d @ %d FPS | Workers: %d\n", len(sc.Sections), cfg.Width, cfg.Height, cfg.FPS, cfg.Workers)

	asm := engine.NewAssembler(cfg, enc, video.NewMuxer(cfg.FFmpegPath, cfg.AudioCodec, log), log)
	if !opts.noProgress {
		var bar *progressbar.ProgressBar
		asm.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Rendering"),
					progressbar.OptionSetTheme(progressbar.Theme{
						Saucer:        "█",
						SaucerHead:    "█",
						SaucerPadding: "░",
						BarStart:      "▐",
						BarEnd:        "▌",
					}),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetWidth(50),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Set(done)
		}
	}

	res, err := asm.Run(ctx, sc.Sections, outputPath)
	if err != nil {
		return err
	}

	if res.Mux.Outcome == video.VideoOnlyFallback {
		fmt.Printf("[!] Audio could not be muxed (%v); video has no sound\n", res.Mux.Reason)
	}
	fmt.Printf("[+++] Done! %s (%d frames, %.2fs)\n", res.OutputPath, res.Frames, res.Duration)
	return nil
}

func newInitCmd() *cobra.Command {
	var (
		dir      string
		title    string
		sections int
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a script scaffold with placeholder sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := script.CreateScaffold(dir, title, sections)
			if err != nil {
				return err
			}
			fmt.Printf("[+] Script scaffold: %s\n", path)
			fmt.Printf("[*] Put image_<n>.png and audio_<n>.mp3 next to it, then run: tubeauto render -s %s\n", path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&dir, "dir", "d", script.DefaultDir, "directory for the new script")
	f.StringVarP(&title, "title", "t", "", "script title")
	f.IntVarP(&sections, "sections", "n", 3, "number of sections")
	return cmd
}

func newDurationCmd() *cobra.Command {
	var configPath, ffmpegPath string
	cmd := &cobra.Command{
		Use:   "duration <audio>...",
		Short: "Print the duration of audio files in seconds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return errors.Wrap(err, "config")
			}
			if err := cfg.ApplyEnv(); err != nil {
				return errors.Wrap(err, "config")
			}
			if cmd.Flags().Changed("ffmpeg") {
				cfg.FFmpegPath = ffmpegPath
			}
			dec := &audio.Decoder{FFmpegPath: cfg.FFmpegPath, TempDir: cfg.TempDir}

			total := 0.0
			for _, p := range args {
				d, err := dec.Duration(cmd.Context(), p)
				if err != nil {
					return err
				}
				total += d
				fmt.Printf("%8.3fs  %s\n", d, p)
			}
			if len(args) > 1 {
				fmt.Printf("%8.3fs  total\n", total)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "config YAML")
	f.StringVar(&ffmpegPath, "ffmpeg", "", "ffmpeg binary; ffprobe is looked up next to it")
	return cmd
}
