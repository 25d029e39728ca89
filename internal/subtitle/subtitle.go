package subtitle

import (
	"image"
	"image/color"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	strokeColor = image.NewUniform(color.RGBA{A: 255})
	fillColor   = image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
)

// Renderer draws one line (or a few wrapped lines) of outlined text onto a
// fixed-size transparent band.
type Renderer struct {
	Face        font.Face
	Width       int
	Height      int
	StrokeWidth int
	MaxLines    int
	Padding     int // horizontal margin kept free when wrapping
}

func NewRenderer(face font.Face, width, height, strokeWidth, maxLines int) *Renderer {
	return &Renderer{
		Face:        face,
		Width:       width,
		Height:      height,
		StrokeWidth: strokeWidth,
		MaxLines:    maxLines,
		Padding:     40,
	}
}

// Render returns a Width×Height band. Empty text gives a blank band.
func (r *Renderer) Render(text string) *image.RGBA {
	band := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	text = strings.TrimSpace(text)
	if text == "" || r.Face == nil || r.Width <= 0 || r.Height <= 0 {
		return band
	}

	lines := r.wrap(text)
	metrics := r.Face.Metrics()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (metrics.Ascent + metrics.Descent).Ceil()
	}

	type placed struct {
		text   string
		bounds fixed.Rectangle26_6
		w, h   int
	}
	items := make([]placed, 0, len(lines))
	blockH := 0
	for i, ln := range lines {
		b, _ := font.BoundString(r.Face, ln)
		p := placed{
			text:   ln,
			bounds: b,
			w:      (b.Max.X - b.Min.X).Ceil(),
			h:      (b.Max.Y - b.Min.Y).Ceil(),
		}
		if i == len(lines)-1 {
			blockH += p.h
		} else {
			blockH += lineHeight
		}
		items = append(items, p)
	}

	// Center the whole block vertically; each line horizontally.
	top := (r.Height - blockH) / 2
	for i := range items {
		it := &items[i]
		x := (r.Width-it.w)/2 - it.bounds.Min.X.Floor()
		y := top + i*lineHeight - it.bounds.Min.Y.Floor()
		r.drawOutlined(band, it.text, x, y)
	}
	return band
}

func (r *Renderer) drawOutlined(dst *image.RGBA, text string, x, y int) {
	d := &font.Drawer{Dst: dst, Src: strokeColor, Face: r.Face}
	k := r.StrokeWidth
	for dx := -k; dx <= k; dx++ {
		for dy := -k; dy <= k; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(text)
		}
	}

	d.Src = fillColor
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

// wrap breaks text into lines that fit the band, at spaces when the text has
// them and between runes otherwise. Overflow beyond MaxLines is kept on the
// last line.
func (r *Renderer) wrap(text string) []string {
	limit := r.Width - 2*r.Padding - 2*r.StrokeWidth
	if limit <= 0 || r.MaxLines <= 1 || r.measure(text) <= limit {
		return []string{text}
	}

	var tokens []string
	sep := ""
	if strings.ContainsFunc(text, unicode.IsSpace) {
		tokens = strings.Fields(text)
		sep = " "
	} else {
		for _, rn := range text {
			tokens = append(tokens, string(rn))
		}
	}

	var lines []string
	cur := ""
	for i, tok := range tokens {
		candidate := tok
		if cur != "" {
			candidate = cur + sep + tok
		}
		if cur == "" || r.measure(candidate) <= limit {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		if len(lines) == r.MaxLines-1 {
			cur = strings.Join(tokens[i:], sep)
			break
		}
		cur = tok
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func (r *Renderer) measure(s string) int {
	return font.MeasureString(r.Face, s).Ceil()
}
