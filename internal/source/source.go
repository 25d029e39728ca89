package source

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"
)

// Source is something a section still image can be pulled from.
type Source interface {
	PageCount() int
	PageSize(index int) (width, height int, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// New picks a source implementation by file extension.
func New(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path)
	}
	return NewImageSource(path)
}

// Open returns the first page of path as an image. PDFs are rasterized
// at dpi.
func Open(path string, dpi int) (image.Image, error) {
	src, err := New(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return nil, errors.Errorf("%s has no pages", path)
	}
	return src.RenderPage(0, dpi)
}

// Dimensions reports the size of the first page of path without rendering
// it. It fails for files that cannot be opened as a source.
func Dimensions(path string) (width, height int, err error) {
	src, err := New(path)
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	if src.PageCount() == 0 {
		return 0, 0, errors.Errorf("%s has no pages", path)
	}
	return src.PageSize(0)
}

// PDFSource rasterizes PDF pages through MuPDF.
type PDFSource struct {
	doc  *fitz.Document
	path string
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open pdf %s", path)
	}
	return &PDFSource{doc: doc, path: path}, nil
}

func (p *PDFSource) PageCount() int {
	return p.doc.NumPage()
}

func (p *PDFSource) PageSize(index int) (int, int, error) {
	rect, err := p.doc.Bound(index)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "page %d bounds", index)
	}
	return rect.Dx(), rect.Dy(), nil
}

func (p *PDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = 150
	}
	img, err := p.doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, errors.Wrapf(err, "render page %d of %s", index, p.path)
	}
	return img, nil
}

func (p *PDFSource) Close() error {
	return p.doc.Close()
}
