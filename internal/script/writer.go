package script

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WriteScript writes a script to a YAML file
func WriteScript(sc *Script, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return errors.Wrap(err, "marshal script")
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads a script from a YAML file and resolves its media paths
// against the file's directory.
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrapf(err, "parse script %s", path)
	}
	if len(sc.Sections) == 0 {
		return nil, errors.Errorf("script %s has no sections", path)
	}
	for i, s := range sc.Sections {
		if s == nil {
			return nil, errors.Errorf("script %s: section %d is empty", path, i)
		}
	}

	sc.Resolve(filepath.Dir(path))
	return &sc, nil
}

// NewScaffold returns a script with n placeholder sections that use the
// default media names image_<i>.png and audio_<i>.mp3.
func NewScaffold(title string, n int) *Script {
	sc := &Script{Version: "1.0", Title: title}
	for i := 0; i < n; i++ {
		sc.Sections = append(sc.Sections, &Section{
			Text:      fmt.Sprintf("Narration for section %d.", i+1),
			ImagePath: fmt.Sprintf("image_%d.png", i),
			AudioPath: fmt.Sprintf("audio_%d.mp3", i),
		})
	}
	return sc
}

// CreateScaffold writes a new timestamped scaffold script into dir and
// returns its path.
func CreateScaffold(dir, title string, n int) (string, error) {
	if n < 1 {
		return "", errors.Errorf("a script needs at least one section, got %d", n)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create scripts directory")
	}
	path := GenerateScriptPath(dir)
	if _, err := os.Stat(path); err == nil {
		return "", errors.Errorf("%s already exists", path)
	}
	if err := WriteScript(NewScaffold(title, n), path); err != nil {
		return "", err
	}
	return path, nil
}
