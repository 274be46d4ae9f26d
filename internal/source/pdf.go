package source

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// PDFSource renders document pages as base image candidates.
type PDFSource struct {
	doc *fitz.Document
	dpi float64
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if dpi <= 0 {
		dpi = 150
	}
	return &PDFSource{doc: doc, dpi: float64(dpi)}, nil
}

func (s *PDFSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *PDFSource) Render(index int) (image.Image, error) {
	if err := checkIndex(index, s.doc.NumPage()); err != nil {
		return nil, err
	}
	return s.doc.ImageDPI(index, s.dpi)
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
