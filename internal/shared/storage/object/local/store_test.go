package local

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"carevault-backend/internal/shared/storage/object"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), "http://localhost:8080", "test-key")
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestSaveOpenDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.Save(ctx, "user/abc.pdf", "application/pdf", strings.NewReader("%PDF-1.4 hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != 14 {
		t.Fatalf("expected 14 bytes, got %d", n)
	}

	rc, err := s.Open(ctx, "user/abc.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.4 hello" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := s.Delete(ctx, "user/abc.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, "user/abc.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "user/abc.pdf"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestSaveRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x")); !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	s := newTestStore(t)
	raw, err := s.SignedURL(context.Background(), "user/abc.pdf", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("SignedURL: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Path != "/api/v1/blobs/user/abc.pdf" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	q := u.Query()
	if err := s.Verify("user/abc.pdf", q.Get("expires"), q.Get("signature")); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := s.Verify("user/other.pdf", q.Get("expires"), q.Get("signature")); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected signature mismatch for other key, got %v", err)
	}

	later := s.now().Add(8 * 24 * time.Hour)
	s.now = func() time.Time { return later }
	if err := s.Verify("user/abc.pdf", q.Get("expires"), q.Get("signature")); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected expiry failure, got %v", err)
	}
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("connection reset")
	}
	r.sent = true
	return copy(p, "partial"), nil
}

func TestSaveFailureLeavesNoObject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "user/broken.pdf", "application/pdf", &failingReader{}); err == nil {
		t.Fatalf("expected write error")
	}
	if _, err := s.Open(ctx, "user/broken.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after failed save, got %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "user"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover files, found %d", len(entries))
	}
}
