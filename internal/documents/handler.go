package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/server/middleware"
	"carevault-backend/internal/shared/server/respond"
)

// MaxUploadSize caps a multipart upload body.
const MaxUploadSize = 20 << 20 // 20MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	fileName, contentType, data, ok := ReadUpload(c)
	if !ok {
		return
	}

	ctx := indexing.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	summary, err := h.Svc.Ingest(ctx, IngestInput{
		UserID:       userID,
		FileName:     fileName,
		ContentType:  contentType,
		Data:         data,
		Title:        c.PostForm("title"),
		DocumentType: c.PostForm("document_type"),
		Description:  c.PostForm("description"),
		DocumentDate: c.PostForm("document_date"),
		Notes:        c.PostForm("notes"),
		Tags:         ParseTags(c.PostForm("tags")),
		ProviderID:   c.PostForm("provider_id"),
	})
	if err != nil {
		RespondIngestError(c, err)
		return
	}

	c.Set("documentId", summary.ID)
	respond.Success(c, "Document uploaded successfully.", gin.H{"document": summary})
}

// ReadUpload reads the "file" part fully. On failure it has already written
// the error response.
func ReadUpload(c *gin.Context) (fileName, contentType string, data []byte, ok bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload size limit")
			return "", "", nil, false
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file part in the request")
		return "", "", nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unable to read file")
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Unable to read file")
		return "", "", nil, false
	}
	return fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data, true
}

// RespondIngestError maps pipeline errors to the HTTP envelope.
func RespondIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidDateFormat):
		respond.Error(c, http.StatusBadRequest, "invalid_date_format", "Invalid document_date format. Use YYYY-MM-DD")
	case errors.Is(err, ErrFileTypeNotAllowed):
		respond.Error(c, http.StatusBadRequest, "file_type_not_allowed", "File type not allowed")
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, ErrMetadataInsert):
		respond.Error(c, http.StatusInternalServerError, "metadata_insert_failed", "Failed to save document metadata")
	case errors.Is(err, ErrBlobUpload):
		respond.Error(c, http.StatusInternalServerError, "blob_upload_failed", "Failed to upload document")
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to upload document")
	}
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")
	c.Set("documentId", documentID)

	view, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "Document not found")
		case errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "Access denied to this document")
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch document")
		}
		return
	}

	respond.Success(c, "Document fetched successfully.", gin.H{"document": view})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to fetch documents")
		}
		return
	}

	respond.Success(c, "Documents fetched successfully.", gin.H{"documents": docs})
}
