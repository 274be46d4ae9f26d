// Package storage manages the scoped directories frame sequences are written
// to. A FrameDir is created by the orchestrator at run start; ownership then
// transfers to the caller, who disposes of it once an encoder has consumed
// the frames.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const framePattern = "frame-%05d.png"

// FrameDir is a temporary directory holding a numbered frame sequence.
type FrameDir struct {
	path   string
	frames int
}

// NewFrameDir creates a fresh temporary directory sized for a run of the
// given frame count.
func NewFrameDir(frames int) (*FrameDir, error) {
	if frames < 1 {
		return nil, fmt.Errorf("frame directory needs at least 1 frame, got %d", frames)
	}
	path, err := os.MkdirTemp("", "gifception_")
	if err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}
	return &FrameDir{path: path, frames: frames}, nil
}

// Path returns the directory location.
func (d *FrameDir) Path() string {
	return d.path
}

// Frames returns the frame count the directory was sized for.
func (d *FrameDir) Frames() int {
	return d.frames
}

// FramePath returns the file path for the 1-based frame index n.
func (d *FrameDir) FramePath(n int) (string, error) {
	if n < 1 || n > d.frames {
		return "", fmt.Errorf("frame index %d out of range [1, %d]", n, d.frames)
	}
	return filepath.Join(d.path, fmt.Sprintf(framePattern, n)), nil
}

// Pattern returns the printf-style sequence pattern encoders like ffmpeg
// consume directly.
func (d *FrameDir) Pattern() string {
	return filepath.Join(d.path, framePattern)
}

// List returns the frame files currently present, sorted by name. The
// zero-padded naming makes lexical order equal frame order.
func (d *FrameDir) List() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("listing frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "frame-") && strings.HasSuffix(name, ".png") {
			files = append(files, filepath.Join(d.path, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Remove deletes the directory and everything in it.
func (d *FrameDir) Remove() error {
	return os.RemoveAll(d.path)
}
