// Package config holds the run configuration and animation parameters,
// including their YAML file representation.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Bruno02468/gifception/internal/anchored"
)

// Params are the per-animation knobs. They are fixed for the duration of a
// generation run.
type Params struct {
	// Preup is the factor the base image is upscaled by before nesting.
	Preup float64 `yaml:"preup"`
	// InnerScale is the size ratio between consecutive nested copies, and
	// therefore the total zoom covered by one animation loop.
	InnerScale float64 `yaml:"inner_scale"`
	// Downscale divides the frame dimensions right before saving.
	Downscale float64 `yaml:"downscale"`
	// NumFrames is the frame count of one loop. At least 2.
	NumFrames int `yaml:"num_frames"`
	// FPS is the playback rate encoders are asked for.
	FPS int `yaml:"fps"`
	// PasteWithin enables the best-effort quality paste on zoomed frames.
	PasteWithin bool `yaml:"paste_within"`
}

// Config are the process-wide knobs of an orchestrator instance.
type Config struct {
	// MaxPixels caps the pixel count any single scale may produce.
	// Zero or negative disables the cap.
	MaxPixels int64 `yaml:"max_pixels"`
	// Workers is the frame worker pool size.
	Workers int `yaml:"workers"`
	// Filter names the resampling kernel; see anchored.FilterByName.
	Filter string `yaml:"filter"`
}

// DefaultParams returns the stock animation parameters.
func DefaultParams() Params {
	return Params{
		Preup:       2,
		InnerScale:  4,
		Downscale:   2,
		NumFrames:   120,
		FPS:         60,
		PasteWithin: true,
	}
}

// DefaultConfig returns the stock orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MaxPixels: anchored.DefaultMaxPixels,
		Workers:   1,
		Filter:    "catmullrom",
	}
}

// Validate checks the parameters for internal consistency.
func (p Params) Validate() error {
	if p.Preup <= 0 {
		return fmt.Errorf("preup %g must be positive", p.Preup)
	}
	if p.InnerScale <= 1 {
		return fmt.Errorf("inner_scale %g must exceed 1", p.InnerScale)
	}
	if p.Downscale <= 0 {
		return fmt.Errorf("downscale %g must be positive", p.Downscale)
	}
	if p.NumFrames < 2 {
		return fmt.Errorf("num_frames %d must be at least 2", p.NumFrames)
	}
	if p.FPS < 1 {
		return fmt.Errorf("fps %d must be at least 1", p.FPS)
	}
	return nil
}

// ZoomAt returns the zoom factor for the 1-based frame n. Frame 1 shows the
// nested base unzoomed and the last frame lands exactly on InnerScale, which
// by self-similarity reproduces frame 1 and closes the loop.
func (p Params) ZoomAt(n int) float64 {
	step := math.Pow(p.InnerScale, 1/float64(p.NumFrames-1))
	return math.Pow(step, float64(n-1))
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers %d must be at least 1", c.Workers)
	}
	if _, err := anchored.FilterByName(c.Filter); err != nil {
		return err
	}
	return nil
}

// Anchored maps the configuration to the image-level one, resolving the
// filter name.
func (c Config) Anchored() (anchored.Config, error) {
	filter, err := anchored.FilterByName(c.Filter)
	if err != nil {
		return anchored.Config{}, err
	}
	return anchored.Config{MaxPixels: c.MaxPixels, Filter: filter}, nil
}

// File is the on-disk YAML representation bundling configuration and
// parameters.
type File struct {
	Config Config `yaml:"config"`
	Params Params `yaml:"params"`
}

// DefaultFile returns a File populated with all defaults.
func DefaultFile() File {
	return File{Config: DefaultConfig(), Params: DefaultParams()}
}

// Load reads a YAML file; keys absent from the file keep their defaults.
func Load(path string) (File, error) {
	f := DefaultFile()
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parsing config file: %w", err)
	}
	return f, nil
}

// Save writes the file as YAML.
func (f File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
