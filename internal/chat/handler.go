// Package chat handles files attached in the assistant conversation: the
// document is described by the vision model and then stored like any upload.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carevault-backend/internal/documents"
	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/server/middleware"
	"carevault-backend/internal/shared/server/respond"
	"carevault-backend/internal/shared/util"
	"carevault-backend/internal/vision"
)

// Extractor describes a document from its bytes.
type Extractor interface {
	Extract(ctx context.Context, fileName, mimeType string, data []byte) (vision.ExtractedMetadata, error)
}

// Ingester stores a document and its metadata.
type Ingester interface {
	Ingest(ctx context.Context, in documents.IngestInput) (documents.Summary, error)
}

// Handler serves chat file uploads.
type Handler struct {
	Vision    Extractor
	Documents Ingester
}

// NewHandler constructs a Handler.
func NewHandler(v Extractor, docs Ingester) *Handler {
	return &Handler{Vision: v, Documents: docs}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, documents.MaxUploadSize)

	fileName, contentType, data, ok := documents.ReadUpload(c)
	if !ok {
		return
	}
	if clean, err := util.SanitizeFileName(fileName); err == nil {
		fileName = clean
	} else {
		fileName = "uploaded_file"
	}
	// Reject what ingestion would reject before paying for a model call.
	if !documents.AllowedFile(fileName) {
		respond.Error(c, http.StatusBadRequest, "file_type_not_allowed", "File type not allowed")
		return
	}

	meta, err := h.Vision.Extract(c.Request.Context(), fileName, contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, vision.ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_media_type", err.Error())
		case errors.Is(err, vision.ErrNotConfigured):
			respond.Error(c, http.StatusInternalServerError, "ai_not_configured", "AI service not configured")
		default:
			respond.Error(c, http.StatusInternalServerError, "extraction_failed", "AI analysis failed")
		}
		return
	}

	ctx := indexing.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	summary, err := h.Documents.Ingest(ctx, documents.IngestInput{
		UserID:       userID,
		FileName:     fileName,
		ContentType:  contentType,
		Data:         data,
		Title:        meta.Title,
		DocumentType: string(meta.DocumentType),
		DocumentDate: meta.DocumentDate,
		Notes:        FormatNotes(meta),
		Tags:         meta.Tags,
	})
	if err != nil {
		documents.RespondIngestError(c, err)
		return
	}

	c.Set("documentId", summary.ID)
	respond.Success(c, "Document uploaded successfully.", gin.H{
		"document":  summary,
		"extracted": meta,
	})
}

// FormatNotes folds the model's summary and tags into the notes field.
func FormatNotes(meta vision.ExtractedMetadata) string {
	tags := "None"
	if len(meta.Tags) > 0 {
		tags = strings.Join(meta.Tags, ", ")
	}
	return strings.TrimSpace(fmt.Sprintf("Summary: %s. Tags: %s", meta.Notes, tags))
}
