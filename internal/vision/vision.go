// Package vision turns uploaded bytes into structured document metadata using
// a multimodal model.
package vision

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"carevault-backend/internal/shared/metrics"
	"carevault-backend/internal/shared/telemetry"
)

// ModelTimeout bounds a single model call regardless of the backend.
const ModelTimeout = 60 * time.Second

var (
	ErrUnsupportedType = errors.New("unsupported file type for vision analysis")
	ErrExtraction      = errors.New("vision extraction failed")
	ErrNotConfigured   = errors.New("vision model not configured")

	errTrailingData = errors.New("trailing data after JSON object")
)

// Model is a multimodal backend that answers prompt about the payload. The
// returned string should be a single JSON object.
type Model interface {
	Complete(ctx context.Context, prompt string, p Payload) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, prompt string, p Payload) (string, error)

func (f ModelFunc) Complete(ctx context.Context, prompt string, p Payload) (string, error) {
	return f(ctx, prompt, p)
}

// Client extracts metadata from documents.
type Client struct {
	Model    Model
	Renderer Renderer
}

// NewClient returns a Client using the build's default PDF renderer.
func NewClient(model Model) *Client {
	return &Client{Model: model, Renderer: DefaultRenderer()}
}

// Extract builds a payload for data, asks the model to describe it and
// normalizes the answer. Malformed model output is not an error: fallbacks
// fill title (fileName) and type (other).
func (c *Client) Extract(ctx context.Context, fileName, mimeType string, data []byte) (ExtractedMetadata, error) {
	if c == nil || c.Model == nil {
		return ExtractedMetadata{}, ErrNotConfigured
	}
	mimeType = NormalizeMimeType(mimeType, fileName, data)

	payload, err := BuildPayload(data, mimeType, c.Renderer)
	if err != nil {
		return ExtractedMetadata{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, ModelTimeout)
	defer cancel()
	raw, err := c.Model.Complete(callCtx, ExtractionPrompt, payload)
	if err != nil {
		telemetry.Error("vision.extract.failed", map[string]any{
			"file_name": fileName,
			"mime_type": mimeType,
			"error":     err,
		})
		return ExtractedMetadata{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	meta, degraded := ParseExtraction(raw, fileName)
	metrics.IncExtraction(degraded)
	if degraded {
		telemetry.Warn("vision.extract.degraded", map[string]any{
			"file_name":     fileName,
			"document_type": string(meta.DocumentType),
			"title":         meta.Title,
		})
	}
	return meta, nil
}

// NormalizeMimeType strips parameters and fills a missing or generic type
// from the file extension, then from content sniffing.
func NormalizeMimeType(mimeType, fileName string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}
	mimeType = strings.ToLower(mimeType)
	if mimeType != "" && mimeType != "application/octet-stream" {
		return mimeType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			return parsed
		}
		return byExt
	}
	sniffed := http.DetectContentType(data)
	if parsed, _, err := mime.ParseMediaType(sniffed); err == nil {
		return parsed
	}
	return sniffed
}
