// Package source loads the base image an animation is built from. A source
// may hold several candidates (a directory of images, the pages of a PDF);
// the caller picks one by index.
package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

type Source interface {
	// PageCount reports how many base image candidates the source holds.
	PageCount() int
	// Render decodes the candidate with the given 0-based index.
	Render(index int) (image.Image, error)
	Close() error
}

// Open picks a source for the given input: "qr:DATA" generates a QR code,
// a .pdf path renders document pages at the given dpi, and anything else
// reads image files.
func Open(input string, dpi int) (Source, error) {
	if strings.HasPrefix(input, "qr:") {
		return NewQRSource(strings.TrimPrefix(input, "qr:"), 0)
	}
	if strings.EqualFold(filepath.Ext(input), ".pdf") {
		return NewPDFSource(input, dpi)
	}
	return NewFileSource(input)
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("page %d out of range [0, %d)", index, count)
	}
	return nil
}
