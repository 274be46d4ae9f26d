// Package nest builds the self-similar composite image that every animation
// frame derives from.
package nest

import (
	"fmt"

	"github.com/Bruno02468/gifception/internal/anchored"
)

// Build assembles the nested base for an animation: the base image upscaled
// by preup, with copies of itself shrunk by successive powers of innerScale
// pasted at the anchor until a copy falls below one pixel. The terminating
// shrink failure is discarded, so the returned composite always holds every
// paste committed before it. Build also reports how many copies were pasted.
//
// The resulting composite is self-similar around the anchor: zooming into it
// by innerScale reproduces the composite itself, which is what lets a frame
// sequence loop seamlessly.
func Build(base *anchored.Image, preup, innerScale float64) (*anchored.Image, int, error) {
	if innerScale <= 1 {
		return nil, 0, fmt.Errorf("inner scale %g must exceed 1", innerScale)
	}

	composite, err := base.Scale(preup)
	if err != nil {
		return nil, 0, fmt.Errorf("upscaling base by %g: %w", preup, err)
	}
	mini, err := base.Scale(preup / innerScale)
	if err != nil {
		return nil, 0, fmt.Errorf("shrinking first inner copy: %w", err)
	}

	copies := 0
	for {
		composite = composite.PasteAligned(mini)
		copies++
		next, err := mini.Scale(1 / innerScale)
		if err != nil {
			// The next copy would be unusably small. The composite keeps
			// everything pasted so far.
			break
		}
		mini = next
	}
	return composite, copies, nil
}
