package anchored

import (
	"image/png"
	"io"
	"os"
	"sync"
)

// encoderBufferPool recycles png encoder buffers between saves. Frame workers
// write one file per frame, so on long animations the savings add up.
type encoderBufferPool struct {
	pool sync.Pool
}

func (p *encoderBufferPool) Get() *png.EncoderBuffer {
	b, _ := p.pool.Get().(*png.EncoderBuffer)
	return b
}

func (p *encoderBufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

var pngEncoder = &png.Encoder{
	CompressionLevel: png.DefaultCompression,
	BufferPool:       &encoderBufferPool{},
}

// EncodePNG writes the raster to w in PNG format.
func (m *Image) EncodePNG(w io.Writer) error {
	return pngEncoder.Encode(w, m.img)
}

// SavePNG writes the raster to a PNG file at path.
func (m *Image) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pngEncoder.Encode(f, m.img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
