package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/storage/object"
)

type fakeStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	types     map[string]string
	calls     []string
	saveErr   error
	signErr   error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeStore) Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	f.record("save")
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = data
	f.types[key] = contentType
	return int64(len(data)), nil
}

func (f *fakeStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, object.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.record("sign")
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://blobs.test/%s?ttl=%d", key, int(ttl.Hours())), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.record("delete")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeStore) blobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type fakeRepo struct {
	*MemoryRepo
	createErr error
	emptyRow  bool
	creates   int
	gets      int
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (Document, error) {
	f.gets++
	return f.MemoryRepo.GetByID(ctx, id)
}

func (f *fakeRepo) Create(ctx context.Context, doc Document) (Document, error) {
	f.creates++
	if f.createErr != nil {
		return Document{}, f.createErr
	}
	if f.emptyRow {
		return Document{}, nil
	}
	return f.MemoryRepo.Create(ctx, doc)
}

type fakeIndexer struct {
	mu     sync.Mutex
	jobs   []indexing.Job
	result bool
	ctxErr error
}

func (f *fakeIndexer) TriggerIndexing(ctx context.Context, job indexing.Job) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	f.ctxErr = ctx.Err()
	return f.result
}
