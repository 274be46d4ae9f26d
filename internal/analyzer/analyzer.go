// Package analyzer inspects base images for regions of interest, so the
// zoom anchor can be picked automatically when the user has no opinion.
package analyzer

import (
	"errors"
	"fmt"
	"image"
)

// Block is a detected region of interest.
type Block struct {
	Rect       image.Rectangle
	Confidence float64 // 0.0-1.0
}

// Detector is the interface for image analysis strategies.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// NewDetector creates a detector by variant name.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// ErrNoRegions means the detector found nothing worth anchoring on.
var ErrNoRegions = errors.New("no regions of interest detected")

// SuggestAnchor proposes a zoom anchor: the center of the best detected
// region, scored by area times confidence. Coordinates are pixels relative
// to the image origin. Callers typically fall back to the image center on
// ErrNoRegions.
func SuggestAnchor(img image.Image, det Detector) (x, y float64, err error) {
	blocks, err := det.Detect(img)
	if err != nil {
		return 0, 0, err
	}

	best := -1.0
	for _, b := range blocks {
		score := float64(b.Rect.Dx()*b.Rect.Dy()) * b.Confidence
		if score > best {
			best = score
			x = float64(b.Rect.Min.X) + float64(b.Rect.Dx())/2
			y = float64(b.Rect.Min.Y) + float64(b.Rect.Dy())/2
		}
	}
	if best < 0 {
		return 0, 0, ErrNoRegions
	}
	return x, y, nil
}
