package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/tubeauto/internal/system"
)

func (a *Assembler) report(res *Result) {
	cfg := a.Config
	t := res.Timings
	fps := 0.0
	if t.Total > 0 {
		fps = float64(res.Frames) / t.Total.Seconds()
	}
	host := system.CollectHostStats()

	fmt.Printf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Prepare (decode): %.2fs\n"+
			"Rendering + Encoding: %.2fs\n"+
			"Audio Export: %.2fs\n"+
			"Muxing: %.2fs (%s)\n"+
			"Effective FPS: %.2f\n"+
			"Workers: %d | Frame buffer: %.1f MB\n"+
			"Host: %d CPUs | RAM %.1f/%.1f GB used %.0f%% | RSS %.1f MB\n"+
			"----------------------------\n",
		cfg.BuildVersion, t.Total.Seconds(), t.Prepare.Seconds(), t.Render.Seconds(), t.Audio.Seconds(),
		t.Mux.Seconds(), res.Mux.Outcome, fps,
		cfg.Workers, float64(system.FrameBytes(cfg.Width, cfg.Height))/(1<<20),
		host.CPUs, gb(host.TotalMemory-host.AvailMemory), gb(host.TotalMemory), host.MemUsedPercent, float64(host.ProcessRSS)/(1<<20),
	)

	if cfg.BenchmarkLog == "" {
		return
	}
	logEntry := fmt.Sprintf("[%s] Build: %s | Output: %s | Sections: %d | Frames: %d | Total: %.2fs | Render: %.2fs | FPS: %.2f | RSS: %.1fMB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		cfg.BuildVersion,
		filepath.Base(res.OutputPath),
		res.Sections,
		res.Frames,
		t.Total.Seconds(),
		t.Render.Seconds(),
		fps,
		float64(host.ProcessRSS)/(1<<20),
	)

	f, err := os.OpenFile(cfg.BenchmarkLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		a.Log.Warn().Err(err).Str("path", cfg.BenchmarkLog).Msg("cannot write benchmark log")
		return
	}
	defer f.Close()
	f.WriteString(logEntry)
}

func gb(b uint64) float64 {
	return float64(b) / (1 << 30)
}
