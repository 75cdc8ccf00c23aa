package vision

import (
	"encoding/base64"
	"fmt"
	"strings"

	"carevault-backend/internal/shared/telemetry"
)

const (
	mimePDF = "application/pdf"
	mimePNG = "image/png"

	// pdfRenderScale upscales the first page to twice its base resolution.
	pdfRenderScale = 2.0
)

// Payload is what a Model receives. Text carries best-effort extracted text
// when a PDF could not be rasterized.
type Payload struct {
	MimeType string
	Data     []byte
	Text     string
}

// IsImage reports whether the payload holds raster image bytes.
func (p Payload) IsImage() bool {
	return strings.HasPrefix(p.MimeType, "image/")
}

// DataURL encodes the payload as a base64 data URL.
func (p Payload) DataURL() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// BuildPayload prepares data for a multimodal model. Images pass through.
// PDFs are reduced to a PNG of their first page; when rendering fails the raw
// PDF is used instead with any first-page text attached.
func BuildPayload(data []byte, mimeType string, renderer Renderer) (Payload, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return Payload{MimeType: mimeType, Data: data}, nil
	case mimeType == mimePDF:
		return pdfPayload(data, renderer), nil
	default:
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
}

func pdfPayload(data []byte, renderer Renderer) Payload {
	if renderer == nil {
		renderer = DefaultRenderer()
	}
	png, err := renderer.RenderFirstPage(data, pdfRenderScale)
	if err == nil && len(png) > 0 {
		return Payload{MimeType: mimePNG, Data: png}
	}
	if err == nil {
		err = errEmptyRender
	}
	telemetry.Warn("vision.pdf.render_failed", map[string]any{
		"bytes": len(data),
		"error": err,
	})
	return Payload{MimeType: mimePDF, Data: data, Text: firstPageText(data)}
}
