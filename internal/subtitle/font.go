package subtitle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/ivlev/tubeauto/internal/system"
)

// DefaultFontPaths is tried after the configured list. CJK-capable fonts
// come first on every platform because narration text is often Japanese.
var DefaultFontPaths = []string{
	// Windows
	"C:/Windows/Fonts/msgothic.ttc",
	"C:/Windows/Fonts/msmincho.ttc",
	"C:/Windows/Fonts/meiryo.ttc",
	"C:/Windows/Fonts/yugothic.ttf",
	// macOS
	"/System/Library/Fonts/ヒラギノ角ゴシック W3.ttc",
	"/System/Library/Fonts/ヒラギノ明朝 W3.ttc",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	// Linux
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// ResolveFont returns the first existing candidate, trying configured paths
// before the platform defaults.
func ResolveFont(configured []string) (string, bool) {
	candidates := make([]string, 0, len(configured)+len(DefaultFontPaths))
	candidates = append(candidates, configured...)
	candidates = append(candidates, DefaultFontPaths...)
	return system.FindFirstExisting(candidates)
}

// LoadFace opens a TrueType/OpenType font or collection at the given size.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read font")
	}

	var f *opentype.Font
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse font collection %s", path)
		}
		// Collections use their first face.
		f, err = coll.Font(0)
		if err != nil {
			return nil, errors.Wrapf(err, "font 0 of %s", path)
		}
	default:
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse font %s", path)
		}
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create font face")
	}
	return face, nil
}

// FaceOrFallback resolves and loads a font, substituting the built-in
// 7x13 bitmap face when nothing usable is found. It never fails.
func FaceOrFallback(configured []string, size float64, log zerolog.Logger) (font.Face, string) {
	path, ok := ResolveFont(configured)
	if !ok {
		log.Warn().Msg("no subtitle font found, using built-in fallback; subtitles may be hard to read")
		return basicfont.Face7x13, ""
	}

	face, err := LoadFace(path, size)
	if err != nil {
		log.Warn().Err(err).Str("font", path).Msg("font unavailable, using built-in fallback")
		return basicfont.Face7x13, ""
	}
	log.Debug().Str("font", path).Float64("size", size).Msg("subtitle font loaded")
	return face, path
}
