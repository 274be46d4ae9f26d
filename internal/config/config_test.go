package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestZoomAt(t *testing.T) {
	p := Params{InnerScale: 4, NumFrames: 5}

	tests := []struct {
		frame int
		want  float64
	}{
		{1, 1.0},
		{3, 2.0},
		{5, 4.0},
	}
	for _, tt := range tests {
		got := p.ZoomAt(tt.frame)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ZoomAt(%d) = %v, want %v", tt.frame, got, tt.want)
		}
	}

	// The zoom must grow strictly between frames for the loop to move.
	prev := 0.0
	for n := 1; n <= p.NumFrames; n++ {
		z := p.ZoomAt(n)
		if z <= prev {
			t.Fatalf("ZoomAt(%d) = %v is not above ZoomAt(%d) = %v", n, z, n-1, prev)
		}
		prev = z
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr bool
	}{
		{"defaults", func(p *Params) {}, false},
		{"zero preup", func(p *Params) { p.Preup = 0 }, true},
		{"inner scale of 1", func(p *Params) { p.InnerScale = 1 }, true},
		{"negative downscale", func(p *Params) { p.Downscale = -1 }, true},
		{"single frame", func(p *Params) { p.NumFrames = 1 }, true},
		{"zero fps", func(p *Params) { p.FPS = 0 }, true},
		{"fractional downscale", func(p *Params) { p.Downscale = 0.5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}

	c.Workers = 0
	if err := c.Validate(); err == nil {
		t.Error("zero workers must be rejected")
	}

	c = DefaultConfig()
	c.Filter = "gaussian"
	if err := c.Validate(); err == nil {
		t.Error("unknown filter must be rejected")
	}
}

func TestConfigAnchored(t *testing.T) {
	c := Config{MaxPixels: 1234, Filter: "nearest"}
	ac, err := c.Anchored()
	if err != nil {
		t.Fatalf("Anchored failed: %v", err)
	}
	if ac.MaxPixels != 1234 {
		t.Errorf("MaxPixels = %d, want 1234", ac.MaxPixels)
	}
	if ac.Filter == nil {
		t.Error("filter not resolved")
	}
}

func TestFileRoundTrip(t *testing.T) {
	f := DefaultFile()
	f.Config.Workers = 7
	f.Params.NumFrames = 42

	path := filepath.Join(t.TempDir(), "gifception.yaml")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != f {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, f)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "params:\n  num_frames: 10\nconfig:\n  workers: 4\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Params.NumFrames != 10 {
		t.Errorf("NumFrames = %d, want 10", f.Params.NumFrames)
	}
	if f.Config.Workers != 4 {
		t.Errorf("Workers = %d, want 4", f.Config.Workers)
	}
	if f.Params.InnerScale != 4 || !f.Params.PasteWithin {
		t.Errorf("absent keys lost their defaults: %+v", f.Params)
	}
	if f.Config.MaxPixels != DefaultConfig().MaxPixels {
		t.Errorf("MaxPixels = %d, want the default", f.Config.MaxPixels)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
