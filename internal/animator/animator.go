// Package animator turns finished frame directories into animation files.
//
// Backends are registered explicitly in All; each one probes its own
// availability, so callers can pick a working backend at run time instead
// of finding out at encode time.
package animator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/storage"
)

var (
	// ErrUnknownFormat means the format was neither given nor inferrable.
	ErrUnknownFormat = errors.New("could not determine the output format")
	// ErrUnsupportedFormat means the backend cannot write the format.
	ErrUnsupportedFormat = errors.New("format not supported by this backend")
	// ErrUnavailable means the backend cannot run on this system.
	ErrUnavailable = errors.New("backend not available")
	// ErrOutputExists means the output file exists and overwrite was not set.
	ErrOutputExists = errors.New("output file already exists")
)

// Backend converts a frame directory into an animation artifact.
type Backend interface {
	// Name is the short identifier used to select the backend.
	Name() string
	// Description explains what the backend does and what it needs.
	Description() string
	// Available probes whether the backend can run here, with a reason
	// either way.
	Available() (bool, string)
	// Formats lists the output formats the backend can write.
	Formats() []string
	// Render encodes the frames into path. The format is one of Formats,
	// and path already carries its extension.
	Render(ctx context.Context, dir *storage.FrameDir, params config.Params, path, format string) error
}

// All returns every implemented backend.
func All() []Backend {
	return []Backend{&GIFBackend{}, &FFmpegBackend{}}
}

// Supported returns the backends that are available on this system.
func Supported() []Backend {
	var sup []Backend
	for _, b := range All() {
		if ok, _ := b.Available(); ok {
			sup = append(sup, b)
		}
	}
	return sup
}

// ByName finds a backend by its short name.
func ByName(name string) (Backend, error) {
	var names []string
	for _, b := range All() {
		if b.Name() == name {
			return b, nil
		}
		names = append(names, b.Name())
	}
	return nil, fmt.Errorf("unknown backend %q (have: %s)", name, strings.Join(names, ", "))
}

// ForFormat returns the first available backend that writes the format.
func ForFormat(format string) (Backend, error) {
	format = strings.ToLower(format)
	for _, b := range Supported() {
		if supportsFormat(b, format) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no available backend writes %q", format)
}

// InferFormat resolves the output format: an explicit format wins, else the
// extension of the output path decides. Empty when neither helps.
func InferFormat(outPath, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
}

// Animate runs the shared checks and then the backend. An empty format is
// inferred from the file name, the extension is appended when missing, and
// an existing output is only replaced when overwrite is set. It returns the
// final output path.
func Animate(ctx context.Context, b Backend, dir *storage.FrameDir, params config.Params, outPath, format string, overwrite bool) (string, error) {
	if ok, reason := b.Available(); !ok {
		return "", fmt.Errorf("%w: %s (%s)", ErrUnavailable, b.Name(), reason)
	}
	if format == "" {
		lower := strings.ToLower(outPath)
		for _, f := range b.Formats() {
			if strings.HasSuffix(lower, "."+f) {
				format = f
				break
			}
		}
		if format == "" {
			return "", fmt.Errorf("%w from filename %q", ErrUnknownFormat, outPath)
		}
	}
	format = strings.ToLower(format)
	if !supportsFormat(b, format) {
		return "", fmt.Errorf("%w: %q on %s", ErrUnsupportedFormat, format, b.Name())
	}
	if !strings.HasSuffix(strings.ToLower(outPath), "."+format) {
		outPath += "." + format
	}
	if !overwrite {
		if _, err := os.Stat(outPath); err == nil {
			return "", fmt.Errorf("%w: %s", ErrOutputExists, outPath)
		}
	}
	if err := b.Render(ctx, dir, params, outPath, format); err != nil {
		return "", err
	}
	return outPath, nil
}

func supportsFormat(b Backend, format string) bool {
	for _, f := range b.Formats() {
		if f == format {
			return true
		}
	}
	return false
}
