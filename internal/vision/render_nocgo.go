//go:build !cgo

package vision

type unavailableRenderer struct{}

// DefaultRenderer always fails without cgo, so PDFs take the raw fallback.
func DefaultRenderer() Renderer {
	return unavailableRenderer{}
}

func (unavailableRenderer) RenderFirstPage([]byte, float64) ([]byte, error) {
	return nil, ErrRendererUnavailable
}
