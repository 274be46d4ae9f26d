package engine

import (
	"fmt"

	"github.com/Bruno02468/gifception/internal/anchored"
	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/storage"
)

// renderFrame derives the frame with 1-based index n from the nested base
// and saves it into dir. Transforms produce fresh snapshots, so concurrent
// workers can share the nested base without copying it first.
func renderFrame(nested *anchored.Image, params config.Params, dir *storage.FrameDir, n int) error {
	zoom := params.ZoomAt(n)
	frame, err := nested.ZoomIn(zoom)
	if err != nil {
		return fmt.Errorf("zooming frame %d: %w", n, err)
	}

	if params.PasteWithin {
		// Best-effort quality pass: overlay a copy resampled straight from
		// the nested base at the scale matching this frame's zoom, replacing
		// the doubly-resampled inner region with a crisp one. A failed scale
		// leaves the plain zoomed frame, which is still correct.
		if smaller, err := nested.Scale(zoom / params.InnerScale); err == nil {
			frame = frame.PasteAligned(smaller)
		}
	}

	frame, err = frame.Scale(1 / params.Downscale)
	if err != nil {
		return fmt.Errorf("downscaling frame %d: %w", n, err)
	}

	path, err := dir.FramePath(n)
	if err != nil {
		return err
	}
	if err := frame.SavePNG(path); err != nil {
		return fmt.Errorf("saving frame %d: %w", n, err)
	}
	return nil
}
