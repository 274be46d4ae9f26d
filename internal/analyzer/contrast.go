package analyzer

import (
	"image"
	"image/draw"
	"math"
)

// ContrastDetector finds regions of interest through edge density: Sobel
// edge detection, dilation to merge nearby edges, then bounding boxes of
// the connected components.
type ContrastDetector struct {
	MinBlockArea  int     // smallest region worth reporting, in pixels
	EdgeThreshold float64 // gradient magnitude cutoff
}

// NewContrastDetector creates a detector with default settings.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinBlockArea:  500,
		EdgeThreshold: 30.0,
	}
}

// Detect finds regions of interest using edge detection and morphology.
func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	gray := toGray(img)
	edges := sobel(gray, d.EdgeThreshold)
	merged := dilate(edges, 5, 2)

	var blocks []Block
	for _, rect := range contours(merged) {
		if rect.Dx()*rect.Dy() < d.MinBlockArea {
			continue
		}
		blocks = append(blocks, Block{Rect: rect, Confidence: 0.7})
	}
	return blocks, nil
}

// toGray converts any image to zero-origin grayscale. Keeping the origin
// at (0, 0) lets the pixel loops below index Pix directly.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// sobel marks every pixel whose gradient magnitude exceeds the threshold.
func sobel(gray *image.Gray, threshold float64) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	edges := image.NewGray(gray.Rect)
	at := func(x, y int) float64 { return float64(gray.Pix[y*gray.Stride+x]) }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x-1, y) - at(x-1, y+1)
			gy := at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1) -
				at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1)
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				edges.Pix[y*edges.Stride+x] = 255
			}
		}
	}
	return edges
}

// dilate grows bright areas so edges of the same structure join into one
// connected component.
func dilate(img *image.Gray, kernel, iterations int) *image.Gray {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	half := kernel / 2

	cur := img
	for i := 0; i < iterations; i++ {
		next := image.NewGray(img.Rect)
		for y := half; y < h-half; y++ {
			for x := half; x < w-half; x++ {
				var max uint8
				for ky := -half; ky <= half; ky++ {
					row := (y + ky) * cur.Stride
					for kx := -half; kx <= half; kx++ {
						if v := cur.Pix[row+x+kx]; v > max {
							max = v
						}
					}
				}
				next.Pix[y*next.Stride+x] = max
			}
		}
		cur = next
	}
	return cur
}

// contours returns the bounding box of every connected bright component.
func contours(img *image.Gray) []image.Rectangle {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	visited := make([]bool, w*h)

	var rects []image.Rectangle
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.Pix[y*img.Stride+x] > 128 && !visited[y*w+x] {
				rects = append(rects, floodFill(img, visited, x, y))
			}
		}
	}
	return rects
}

// floodFill walks one bright component and returns its bounding box.
func floodFill(img *image.Gray, visited []bool, startX, startY int) image.Rectangle {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if visited[p.Y*w+p.X] || img.Pix[p.Y*img.Stride+p.X] <= 128 {
			continue
		}
		visited[p.Y*w+p.X] = true

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		stack = append(stack,
			image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1))
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
