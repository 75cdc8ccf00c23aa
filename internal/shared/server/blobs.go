package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"carevault-backend/internal/shared/server/respond"
	"carevault-backend/internal/shared/storage/object"
)

// BlobServer serves blobs behind links it signed itself.
type BlobServer interface {
	Verify(storageKey, expires, signature string) error
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

func registerBlobRoutes(rg *gin.RouterGroup, blobs BlobServer) {
	rg.GET("/blobs/*key", func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if err := blobs.Verify(key, c.Query("expires"), c.Query("signature")); err != nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "Invalid or expired link")
			return
		}
		body, err := blobs.Open(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "File not found")
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to read file")
			return
		}
		defer body.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Cache-Control", "private, max-age=300")
		c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
	})
}
