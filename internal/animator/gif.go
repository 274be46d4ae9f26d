package animator

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Bruno02468/gifception/internal/config"
	"github.com/Bruno02468/gifception/internal/storage"
)

// GIFBackend encodes GIFs with the built-in codec. It needs no external
// tools, but holds every frame in memory at once.
type GIFBackend struct{}

func (b *GIFBackend) Name() string { return "builtin" }

func (b *GIFBackend) Description() string {
	return "Encodes GIFs with the built-in codec. No external tools, GIF only."
}

func (b *GIFBackend) Available() (bool, string) {
	return true, "always available"
}

func (b *GIFBackend) Formats() []string { return []string{"gif"} }

// gifDelay converts frames per second to the GIF frame delay in hundredths
// of a second, clamped at the 100fps the format can express.
func gifDelay(fps int) int {
	ms := 1000 / fps
	if ms < 10 {
		ms = 10
	}
	return ms / 10
}

func (b *GIFBackend) Render(ctx context.Context, dir *storage.FrameDir, params config.Params, path, format string) error {
	n := dir.Frames()
	frames := make([]*image.Paletted, n)

	// Quantizing down to the GIF palette dominates the encode time, so the
	// frames are converted in parallel.
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i := 1; i <= n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			framePath, err := dir.FramePath(i)
			if err != nil {
				return err
			}
			img, err := loadPNG(framePath)
			if err != nil {
				return err
			}
			pal := image.NewPaletted(img.Bounds(), palette.Plan9)
			draw.FloydSteinberg.Draw(pal, img.Bounds(), img, image.Point{})
			frames[i-1] = pal
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	delay := gifDelay(params.FPS)
	out := &gif.GIF{
		Image:     frames,
		Delay:     make([]int, n),
		LoopCount: 0, // loop forever
	}
	for i := range out.Delay {
		out.Delay[i] = delay
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
