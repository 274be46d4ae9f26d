package source

import (
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultQRSize is the side length of generated QR base images.
const DefaultQRSize = 512

// QRSource turns a piece of text into a QR code to use as the base image.
// Zooming into the code's own center makes for a decent self-referential
// animation out of nothing but a string.
type QRSource struct {
	img image.Image
}

// NewQRSource renders data as a size-by-size QR code; size <= 0 picks
// DefaultQRSize.
func NewQRSource(data string, size int) (*QRSource, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("building qr code: %w", err)
	}
	return &QRSource{img: code.Image(size)}, nil
}

func (s *QRSource) PageCount() int {
	return 1
}

func (s *QRSource) Render(index int) (image.Image, error) {
	if err := checkIndex(index, 1); err != nil {
		return nil, err
	}
	return s.img, nil
}

func (s *QRSource) Close() error {
	return nil
}
