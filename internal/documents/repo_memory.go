package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Document
	providers map[string]string // providerID -> name
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Document),
		providers: make(map[string]string),
	}
}

// AddProvider registers a provider name for read-path joins.
func (r *MemoryRepo) AddProvider(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = name
}

// Create stores a document. Storage paths are unique like the SQL schema.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[doc.ID]; exists {
		return Document{}, ErrMetadataInsert
	}
	for _, existing := range r.byID {
		if existing.StoragePath == doc.StoragePath {
			return Document{}, ErrMetadataInsert
		}
	}
	if doc.ProviderID != "" {
		if _, ok := r.providers[doc.ProviderID]; !ok {
			return Document{}, ErrUnknownProvider
		}
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	r.byID[doc.ID] = doc
	return doc, nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.ProviderName = r.providers[doc.ProviderID]
	return doc, nil
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := make([]Document, 0)
	for _, doc := range r.byID {
		if doc.UserID == userID {
			doc.ProviderName = r.providers[doc.ProviderID]
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	if offset >= len(docs) {
		return []Document{}, nil
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	return docs[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
