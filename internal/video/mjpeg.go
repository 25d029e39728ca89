package video

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
	"github.com/pkg/errors"
)

// MJPEGEncoder writes Motion-JPEG AVI files without any external tool.
type MJPEGEncoder struct {
	Quality int
}

func (e *MJPEGEncoder) Name() string { return "mjpeg" }

func (e *MJPEGEncoder) Open(_ context.Context, path string, p StreamParams) (Stream, error) {
	aw, err := mjpeg.New(path, int32(p.Width), int32(p.Height), int32(p.FPS))
	if err != nil {
		return nil, errors.Wrapf(err, "create avi %s", path)
	}
	q := e.Quality
	if q <= 0 || q > 100 {
		q = 90
	}
	return &mjpegStream{aw: aw, opts: &jpeg.Options{Quality: q}, width: p.Width, height: p.Height}, nil
}

type mjpegStream struct {
	aw     mjpeg.AviWriter
	opts   *jpeg.Options
	buf    bytes.Buffer
	width  int
	height int
	closed bool
}

func (s *mjpegStream) WriteFrame(img *image.RGBA) error {
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return errors.Errorf("frame %dx%d does not match stream %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}
	s.buf.Reset()
	if err := jpeg.Encode(&s.buf, img, s.opts); err != nil {
		return errors.Wrap(err, "encode jpeg frame")
	}
	return s.aw.AddFrame(s.buf.Bytes())
}

func (s *mjpegStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.aw.Close()
}
