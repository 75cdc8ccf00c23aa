//go:build cgo

package vision

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes PDFs with MuPDF.
type FitzRenderer struct{}

// DefaultRenderer returns the MuPDF renderer in cgo builds.
func DefaultRenderer() Renderer {
	return FitzRenderer{}
}

func (FitzRenderer) RenderFirstPage(pdf []byte, scale float64) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, errEmptyRender
	}
	png, err := doc.ImagePNG(0, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("render page 1: %w", err)
	}
	return png, nil
}
