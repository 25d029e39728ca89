package video

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ivlev/tubeauto/internal/config"
	"github.com/ivlev/tubeauto/internal/system"
)

// SelectEncoder resolves cfg.VideoEncoder. "auto" picks the best H.264
// encoder ffmpeg offers and falls back to MJPEG when ffmpeg is missing.
func SelectEncoder(ctx context.Context, cfg config.Config, log zerolog.Logger) Encoder {
	if cfg.VideoEncoder == "mjpeg" {
		return &MJPEGEncoder{Quality: cfg.Quality}
	}

	if err := system.DetectTool(ctx, cfg.FFmpegPath); err != nil {
		log.Warn().Err(err).Msg("ffmpeg unavailable, encoding Motion-JPEG AVI")
		return &MJPEGEncoder{Quality: cfg.Quality}
	}

	codec := cfg.VideoEncoder
	if codec == "auto" || codec == "" {
		codec = system.GetBestH264Encoder(ctx, cfg.FFmpegPath)
	}
	log.Debug().Str("codec", codec).Msg("video encoder selected")
	return &FFmpegEncoder{
		FFmpegPath: cfg.FFmpegPath,
		Codec:      codec,
		Quality:    cfg.Quality,
		Log:        log,
	}
}
