package vision

import "errors"

// ErrRendererUnavailable is returned when the binary was built without a PDF
// rasterizer.
var ErrRendererUnavailable = errors.New("pdf renderer unavailable")

var errEmptyRender = errors.New("pdf render produced no image")

// Renderer rasterizes the first page of a PDF to PNG. scale multiplies the
// page's base resolution of 72 DPI.
type Renderer interface {
	RenderFirstPage(pdf []byte, scale float64) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(pdf []byte, scale float64) ([]byte, error)

func (f RendererFunc) RenderFirstPage(pdf []byte, scale float64) ([]byte, error) {
	return f(pdf, scale)
}
