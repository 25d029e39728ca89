package script

import (
	"fmt"
	"path/filepath"
)

// Script is the narrated video manifest: an ordered list of sections.
type Script struct {
	Version  string     `yaml:"version"`
	Title    string     `yaml:"title,omitempty"`
	Sections []*Section `yaml:"sections"`
}

// Section is one still image shown for the length of its narration.
type Section struct {
	Text         string `yaml:"text"`
	Subtitle     string `yaml:"subtitle,omitempty"`
	VisualPrompt string `yaml:"visual_prompt,omitempty"` // carried for image generation, unused here
	ImagePath    string `yaml:"image,omitempty"`
	AudioPath    string `yaml:"audio,omitempty"`

	// Filled in by the assembler.
	Duration   float64 `yaml:"-"`
	FrameCount int     `yaml:"-"`
}

// SubtitleText is the line burned into the video: Subtitle, or Text when
// no separate subtitle is given.
func (s *Section) SubtitleText() string {
	if s.Subtitle != "" {
		return s.Subtitle
	}
	return s.Text
}

// Resolve fills default media names for section index i and makes
// relative paths absolute against baseDir.
func (s *Section) Resolve(i int, baseDir string) {
	if s.ImagePath == "" {
		s.ImagePath = fmt.Sprintf("image_%d.png", i)
	}
	if s.AudioPath == "" {
		s.AudioPath = fmt.Sprintf("audio_%d.mp3", i)
	}
	s.ImagePath = absolute(s.ImagePath, baseDir)
	s.AudioPath = absolute(s.AudioPath, baseDir)
}

// Resolve applies Section.Resolve to every section in order.
func (sc *Script) Resolve(baseDir string) {
	for i, s := range sc.Sections {
		s.Resolve(i, baseDir)
	}
}

func absolute(p, baseDir string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if baseDir != "" {
		p = filepath.Join(baseDir, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
