package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultDir is where the CLI looks for scripts when none is given.
const DefaultDir = "scripts"

// GenerateScriptPath creates a timestamped script filename in dir
func GenerateScriptPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("script_%s.yaml", timestamp))
}

// FindLatestScript finds the most recently modified YAML script in dir
func FindLatestScript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to read scripts directory")
	}

	var scripts []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && (strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			scripts = append(scripts, filepath.Join(dir, name))
		}
	}

	if len(scripts) == 0 {
		return "", errors.Errorf("no script files found in %s", dir)
	}

	// Sort by modification time (newest first)
	modTime := func(p string) time.Time {
		info, err := os.Stat(p)
		if err != nil {
			return time.Time{}
		}
		return info.ModTime()
	}
	sort.Slice(scripts, func(i, j int) bool {
		return modTime(scripts[i]).After(modTime(scripts[j]))
	})

	return scripts[0], nil
}
