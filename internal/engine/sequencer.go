package engine

import (
	"context"
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/tubeauto/internal/effects"
	"github.com/ivlev/tubeauto/internal/renderer"
	"github.com/ivlev/tubeauto/internal/system"
)

// Sequencer renders the frames of one section and hands them out in order.
type Sequencer struct {
	Effect  effects.Effect
	Kernel  xdraw.Interpolator
	Opacity float64
	Workers int
	Pool    *system.FramePool
}

// EmitFunc receives frame i. The buffer is recycled once it returns.
type EmitFunc func(i int, frame *image.RGBA) error

// Run renders frameCount frames from canvas and band. Up to Workers frames
// are rendered at once; emit always sees indices 0..frameCount-1 in order.
func (s *Sequencer) Run(ctx context.Context, canvas, band *image.RGBA, frameCount int, emit EmitFunc) error {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	pool := s.Pool
	if pool == nil {
		pool = system.NewFramePool()
	}
	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	window := make([]*image.RGBA, workers)
	for start := 0; start < frameCount; start += workers {
		end := min(start+workers, frameCount)
		batch := window[:end-start]

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				dst := pool.Get(w, h)
				renderer.RenderFrame(dst, canvas, band, s.Effect.State(i, frameCount), s.Opacity, s.Kernel)
				batch[i-start] = dst
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			release(pool, batch)
			return err
		}

		for j, frame := range batch {
			if err := emit(start+j, frame); err != nil {
				release(pool, batch)
				return err
			}
			pool.Put(frame)
			batch[j] = nil
		}
	}
	return nil
}

func release(pool *system.FramePool, frames []*image.RGBA) {
	for i, f := range frames {
		if f != nil {
			pool.Put(f)
			frames[i] = nil
		}
	}
}
