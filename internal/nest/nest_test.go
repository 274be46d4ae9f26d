package nest

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"

	"github.com/Bruno02468/gifception/internal/anchored"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

// quadrant builds a w×w image whose top-left quadrant is red on a blue
// field, with the anchor placed inside the red quadrant. The asymmetry lets
// pixel checks tell the pasted copies apart from the plain upscaled base.
func quadrant(t *testing.T, w int, cfg anchored.Config) *anchored.Image {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, w))
	for y := 0; y < w; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 && y < w/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	m := anchored.New(img, cfg)
	if err := m.SetAnchorRelative(0.25, 0.25); err != nil {
		t.Fatalf("SetAnchorRelative failed: %v", err)
	}
	return m
}

func TestBuildDimensionsAndDepth(t *testing.T) {
	base := anchored.New(image.NewRGBA(image.Rect(0, 0, 100, 80)), anchored.DefaultConfig())

	composite, copies, err := Build(base, 2, 4)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	w, h := composite.Size()
	if w != 200 || h != 160 {
		t.Errorf("composite is %dx%d, want 200x160", w, h)
	}
	// Inner copies shrink 50x40 -> 12x10 -> 3x2, then truncate to nothing.
	if copies != 3 {
		t.Errorf("pasted %d copies, want 3", copies)
	}
}

func TestBuildSelfSimilarity(t *testing.T) {
	cfg := anchored.Config{MaxPixels: anchored.DefaultMaxPixels, Filter: draw.NearestNeighbor}
	base := quadrant(t, 64, cfg)

	composite, copies, err := Build(base, 2, 4)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if copies != 3 {
		t.Fatalf("pasted %d copies, want 3", copies)
	}

	// Copies land at the anchor (32,32): 32px at 24..56, 8px at 30..38,
	// 2px at 32..34. Each check below distinguishes one paste from the
	// layer beneath it.
	checks := []struct {
		x, y int
		want color.RGBA
		desc string
	}{
		{10, 10, red, "upscaled base, inside red quadrant"},
		{100, 100, blue, "upscaled base, outside red quadrant"},
		{26, 26, red, "first copy, inside its red quadrant"},
		{50, 50, blue, "first copy covering base red"},
		{36, 36, blue, "second copy covering first copy's red"},
		{33, 33, blue, "third copy covering second copy's red"},
	}
	for _, c := range checks {
		if got := composite.RGBA().RGBAAt(c.x, c.y); got != c.want {
			t.Errorf("pixel (%d,%d) = %v, want %v (%s)", c.x, c.y, got, c.want, c.desc)
		}
	}
}

func TestBuildLeavesBaseUntouched(t *testing.T) {
	base := quadrant(t, 64, anchored.DefaultConfig())
	before := make([]byte, len(base.RGBA().Pix))
	copy(before, base.RGBA().Pix)

	if _, _, err := Build(base, 2, 4); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !bytes.Equal(before, base.RGBA().Pix) {
		t.Error("Build mutated the base image")
	}
}

func TestBuildPixelLimit(t *testing.T) {
	base := anchored.New(image.NewRGBA(image.Rect(0, 0, 100, 100)), anchored.Config{MaxPixels: 10000})

	_, _, err := Build(base, 2, 4)
	var limitErr *anchored.PixelLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *PixelLimitError from the initial upscale, got %v", err)
	}
}

func TestBuildFirstCopyTooSmall(t *testing.T) {
	base := anchored.New(image.NewRGBA(image.Rect(0, 0, 3, 3)), anchored.DefaultConfig())

	_, _, err := Build(base, 1, 4)
	if !errors.Is(err, anchored.ErrImageTooSmall) {
		t.Errorf("expected ErrImageTooSmall, got %v", err)
	}
}

func TestBuildRejectsInnerScale(t *testing.T) {
	base := anchored.New(image.NewRGBA(image.Rect(0, 0, 10, 10)), anchored.DefaultConfig())

	for _, s := range []float64{1, 0.5, 0, -2} {
		if _, _, err := Build(base, 2, s); err == nil {
			t.Errorf("Build accepted inner scale %v", s)
		}
	}
}
