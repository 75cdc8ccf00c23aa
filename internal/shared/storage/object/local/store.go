package local

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"carevault-backend/internal/shared/storage/object"
)

// ErrBadSignature is returned by Verify for forged or expired links.
var ErrBadSignature = errors.New("invalid or expired signature")

// Store implements ObjectStore using the local filesystem. Signed URLs point
// at the API's blob route and carry an HMAC over key and expiry.
type Store struct {
	baseDir    string
	publicBase string
	signingKey []byte
	now        func() time.Time
}

// New creates a new local object store rooted at baseDir. publicBase is the
// externally reachable API origin used to build signed links.
func New(baseDir, publicBase, signingKey string) *Store {
	return &Store{
		baseDir:    baseDir,
		publicBase: publicBase,
		signingKey: []byte(signingKey),
		now:        time.Now,
	}
}

// Save writes the reader to disk at storageKey. The body goes to a temp file
// that is renamed into place only after a successful write and close, so a
// failed upload never leaves a partial object at the key. The content type is
// not stored; the blob route derives it from the extension.
func (s *Store) Save(ctx context.Context, storageKey string, _ string, r io.Reader) (written int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(f.Name())
		}
	}()

	written, err = io.Copy(f, r)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	if err = os.Chmod(f.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("chmod: %w", err)
	}
	if err = os.Rename(f.Name(), fullPath); err != nil {
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// SignedURL returns a link to the blob route valid for ttl.
func (s *Store) SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return "", err
	}
	if len(s.signingKey) == 0 {
		return "", errors.New("blob signing key not configured")
	}
	expires := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", s.sign(clean, expires))
	return fmt.Sprintf("%s/api/v1/blobs/%s?%s", s.publicBase, clean, q.Encode()), nil
}

// Verify checks a signature produced by SignedURL.
func (s *Store) Verify(storageKey, expires, signature string) error {
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return err
	}
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrBadSignature
	}
	if s.now().Unix() > exp {
		return ErrBadSignature
	}
	want := s.sign(clean, exp)
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return ErrBadSignature
	}
	return nil
}

func (s *Store) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Store) resolve(storageKey string) (string, error) {
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

var _ object.ObjectStore = (*Store)(nil)
