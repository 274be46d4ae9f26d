// Package anchored implements raster images carrying an anchor: the relative
// point of interest that scale, zoom and paste operations revolve around.
//
// The relative anchor is the source of truth. Absolute pixel coordinates are
// derived from it on demand, so the anchor survives any number of resizes.
// Transforms never mutate the receiver: each returns a fresh snapshot, which
// keeps concurrent holders of older snapshots isolated by construction.
package anchored

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// DefaultMaxPixels is the pixel budget applied when a Config leaves it unset.
const DefaultMaxPixels int64 = 8e8

var (
	// ErrImageTooSmall signals a transform whose result would have no pixels
	// left in at least one dimension. The nested-base builder relies on it as
	// its loop termination condition.
	ErrImageTooSmall = errors.New("image too small to resample")

	// ErrAnchorOutOfBounds signals an anchor placed outside the image.
	ErrAnchorOutOfBounds = errors.New("anchor out of bounds")

	// ErrZoomRange signals a zoom factor below 1.
	ErrZoomRange = errors.New("zoom factor must be at least 1")
)

// PixelLimitError reports a scale that would exceed the configured pixel
// budget. Limit is the exact budget the check ran against.
type PixelLimitError struct {
	Pixels float64
	Limit  int64
}

func (e *PixelLimitError) Error() string {
	return fmt.Sprintf("scaling would exceed the maximum amount of pixels (%.0f > %d)", e.Pixels, e.Limit)
}

// Config controls resource limits and resampling for image operations.
type Config struct {
	// MaxPixels caps the pixel count any single Scale may produce.
	// Zero or negative disables the check.
	MaxPixels int64
	// Filter is the resampling kernel used by Scale and ZoomIn.
	// Nil selects CatmullRom.
	Filter draw.Scaler
}

// DefaultConfig returns the budget and filter used when nothing is configured.
func DefaultConfig() Config {
	return Config{MaxPixels: DefaultMaxPixels, Filter: draw.CatmullRom}
}

// FilterByName maps a filter name from configuration to its resampling kernel.
// The empty name selects the default (CatmullRom).
func FilterByName(name string) (draw.Scaler, error) {
	switch strings.ToLower(name) {
	case "", "catmullrom", "bicubic":
		return draw.CatmullRom, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown resampling filter %q", name)
	}
}

// Image couples a raster with the relative anchor the zoom revolves around.
type Image struct {
	img  *image.RGBA
	relX float64
	relY float64
	cfg  Config
}

// New wraps img with a centered anchor. The raster is reused when it already
// is a zero-origin RGBA image and copied otherwise.
func New(img image.Image, cfg Config) *Image {
	return &Image{img: toRGBA(img), relX: 0.5, relY: 0.5, cfg: cfg}
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min.X == 0 && b.Min.Y == 0 {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// derive wraps a freshly allocated raster with the receiver's anchor and
// configuration.
func (m *Image) derive(img *image.RGBA) *Image {
	return &Image{img: img, relX: m.relX, relY: m.relY, cfg: m.cfg}
}

// Size returns the raster dimensions in pixels.
func (m *Image) Size() (w, h int) {
	return m.img.Rect.Dx(), m.img.Rect.Dy()
}

// RGBA exposes the underlying raster. Callers must treat it as read-only.
func (m *Image) RGBA() *image.RGBA {
	return m.img
}

// Config returns the configuration the image was built with.
func (m *Image) Config() Config {
	return m.cfg
}

// AnchorRelative returns the anchor as fractions of the image dimensions.
func (m *Image) AnchorRelative() (x, y float64) {
	return m.relX, m.relY
}

// AnchorAbsolute returns the anchor in pixel coordinates of the current raster.
func (m *Image) AnchorAbsolute() (x, y float64) {
	w, h := m.Size()
	return m.relX * float64(w), m.relY * float64(h)
}

// SetAnchorRelative places the anchor at fractions of the image dimensions.
func (m *Image) SetAnchorRelative(x, y float64) error {
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return fmt.Errorf("relative anchor (%g, %g) outside [0,1]: %w", x, y, ErrAnchorOutOfBounds)
	}
	m.relX, m.relY = x, y
	return nil
}

// SetAnchorAbsolute places the anchor at a pixel coordinate of the current
// raster. The stored representation stays relative, so the anchor keeps its
// position across later resizes.
func (m *Image) SetAnchorAbsolute(x, y float64) error {
	w, h := m.Size()
	if x < 0 || y < 0 || x > float64(w) || y > float64(h) {
		return fmt.Errorf("anchor (%g, %g) is out of bounds (%dx%d): %w", x, y, w, h, ErrAnchorOutOfBounds)
	}
	m.relX, m.relY = x/float64(w), y/float64(h)
	return nil
}

func (m *Image) scaler() draw.Scaler {
	if m.cfg.Filter != nil {
		return m.cfg.Filter
	}
	return draw.CatmullRom
}

// Scale resamples the image by factor in both dimensions. It fails with a
// *PixelLimitError when the result would exceed the configured pixel budget
// and with ErrImageTooSmall when a dimension would truncate below one pixel.
func (m *Image) Scale(factor float64) (*Image, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("scale factor %g must be positive", factor)
	}
	w, h := m.Size()
	px := float64(w) * float64(h) * factor * factor
	if m.cfg.MaxPixels > 0 && px > float64(m.cfg.MaxPixels) {
		return nil, &PixelLimitError{Pixels: px, Limit: m.cfg.MaxPixels}
	}
	nw := int(float64(w) * factor)
	nh := int(float64(h) * factor)
	if nw < 1 || nh < 1 {
		return nil, fmt.Errorf("scaling %dx%d by %g: %w", w, h, factor, ErrImageTooSmall)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	m.scaler().Scale(dst, dst.Bounds(), m.img, m.img.Bounds(), draw.Src, nil)
	return m.derive(dst), nil
}

// zoomBox computes the crop window for ZoomIn. The window is positioned so
// that the anchor keeps its relative place within the crop, which after the
// resize back to full size leaves its absolute position fixed.
func (m *Image) zoomBox(factor float64) image.Rectangle {
	w, h := m.Size()
	ws := math.Round(float64(w) / factor)
	hs := math.Round(float64(h) / factor)
	ox := math.Round(m.relX * float64(w) * (1 - 1/factor))
	oy := math.Round(m.relY * float64(h) * (1 - 1/factor))
	return image.Rect(int(ox), int(oy), int(ox+ws), int(oy+hs))
}

// ZoomIn crops a window of size (w/factor, h/factor) centered on the anchor
// and resamples it back to the original dimensions. A factor of 1 reproduces
// the image up to rounding.
func (m *Image) ZoomIn(factor float64) (*Image, error) {
	if factor < 1 {
		return nil, fmt.Errorf("zoom by %g: %w", factor, ErrZoomRange)
	}
	box := m.zoomBox(factor).Intersect(m.img.Bounds())
	if box.Dx() < 1 || box.Dy() < 1 {
		return nil, fmt.Errorf("zoom by %g: %w", factor, ErrImageTooSmall)
	}
	w, h := m.Size()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	m.scaler().Scale(dst, dst.Bounds(), m.img, box, draw.Src, nil)
	return m.derive(dst), nil
}

// PasteAligned draws other onto a copy of the receiver at the offset that
// makes the two anchors coincide. The offset may be negative or place other
// partially or fully outside the receiver; the overflow is clipped.
func (m *Image) PasteAligned(other *Image) *Image {
	ax, ay := m.AnchorAbsolute()
	bx, by := other.AnchorAbsolute()
	off := image.Pt(int(math.Ceil(ax-bx)), int(math.Ceil(ay-by)))

	dst := image.NewRGBA(m.img.Rect)
	copy(dst.Pix, m.img.Pix)
	draw.Draw(dst, other.img.Rect.Add(off), other.img, image.Point{}, draw.Src)
	return m.derive(dst)
}
