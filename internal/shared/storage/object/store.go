package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// ObjectStore defines the contract for saving, signing and removing binary objects.
// Keys are relative slash-separated paths chosen by the caller.
type ObjectStore interface {
	Save(ctx context.Context, storageKey string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, storageKey string) error
}

// CleanKey normalizes a storage key and rejects absolute or escaping paths.
func CleanKey(storageKey string) (string, error) {
	raw := strings.TrimSpace(storageKey)
	if raw == "" || strings.HasPrefix(raw, "/") || strings.Contains(raw, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(raw)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// SizeOf returns the length of r when it is known without reading it
// (bytes.Reader, strings.Reader, bytes.Buffer), else -1.
func SizeOf(r io.Reader) int64 {
	if l, ok := r.(interface{ Len() int }); ok {
		return int64(l.Len())
	}
	return -1
}
