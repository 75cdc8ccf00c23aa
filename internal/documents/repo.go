package documents

import "context"

// Repo defines persistence operations for document metadata.
type Repo interface {
	// Create persists doc and returns the stored row. A nil error always comes
	// with a row; implementations return ErrNoRowReturned otherwise.
	Create(ctx context.Context, doc Document) (Document, error)
	GetByID(ctx context.Context, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
}
