package engine

import "fmt"

// MissingInputError is returned before any frame is written when a
// section's image or audio file is absent or empty.
type MissingInputError struct {
	Section int
	Kind    string // "image" or "audio"
	Path    string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("section %d: %s file missing or empty: %s", e.Section, e.Kind, e.Path)
}

// DecodeError is returned when an input exists but cannot be decoded.
type DecodeError struct {
	Section int
	Kind    string
	Path    string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("section %d: cannot decode %s %s: %v", e.Section, e.Kind, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StreamOpenError is returned when the output video stream cannot be created.
type StreamOpenError struct {
	Path string
	Err  error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("open video stream %s: %v", e.Path, e.Err)
}

func (e *StreamOpenError) Unwrap() error { return e.Err }

// EmptyOutputError is returned when an intermediate file ends up missing
// or zero-length.
type EmptyOutputError struct {
	Kind string // "video" or "audio"
	Path string
}

func (e *EmptyOutputError) Error() string {
	return fmt.Sprintf("%s output missing or empty: %s", e.Kind, e.Path)
}

// StreamWriteError is returned when a section's frames cannot be handed to
// the encoder. Err carries the encoder's own message when it has one.
type StreamWriteError struct {
	Section int
	Err     error
}

func (e *StreamWriteError) Error() string {
	return fmt.Sprintf("section %d: write video stream: %v", e.Section, e.Err)
}

func (e *StreamWriteError) Unwrap() error { return e.Err }
