package system

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// ErrToolNotFound is returned when an external binary is not on PATH.
var ErrToolNotFound = errors.New("tool not found")

// ToolError describes an external tool that ran and failed.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if len(msg) > 512 {
		msg = "..." + msg[len(msg)-512:]
	}
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

// LookupTool resolves a binary name or path.
func LookupTool(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(ErrToolNotFound, "%s: %v", name, err)
	}
	return path, nil
}

// DetectTool checks that the tool exists and answers a -version query.
func DetectTool(ctx context.Context, name string) error {
	path, err := LookupTool(name)
	if err != nil {
		return err
	}
	return RunTool(ctx, path, "-version")
}

// RunTool runs a binary, capturing stderr into a ToolError on failure.
func RunTool(ctx context.Context, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return AsToolError(cmd.Run(), path, args, stderr.String())
}

// OutputTool runs a binary and returns what it wrote to stdout.
func OutputTool(ctx context.Context, path string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := AsToolError(cmd.Run(), path, args, stderr.String()); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// AsToolError converts the error of a finished command into a typed error.
func AsToolError(err error, tool string, args []string, stderr string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(ErrToolNotFound, "%s: %v", tool, err)
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ToolError{Tool: tool, Args: args, ExitCode: code, Stderr: stderr, Err: err}
}

// GetBestH264Encoder returns the fastest H.264 encoder ffmpeg reports.
func GetBestH264Encoder(ctx context.Context, ffmpegPath string) string {
	// Priority:
	// 1. macOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}

// FindFirstExisting returns the first path that exists and is a regular file.
func FindFirstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err == nil && fi.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// FileNonEmpty reports whether path is a regular file with at least one byte.
func FileNonEmpty(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
