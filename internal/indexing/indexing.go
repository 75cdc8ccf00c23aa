// Package indexing hands stored documents to the external retrieval service.
//
// Indexing is best-effort enrichment: a Trigger reports success as a bool and
// never returns an error, so callers can log a failure without escalating it.
package indexing

import "context"

// Job describes one document to index. Data may be nil when the trigger can
// reload the bytes from StorageKey.
type Job struct {
	DocumentID  string
	UserID      string
	DatasetID   string
	FileName    string
	ContentType string
	StorageKey  string
	Data        []byte
}

// Trigger submits a document for indexing and reports whether it was accepted.
type Trigger interface {
	TriggerIndexing(ctx context.Context, job Job) bool
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context, job Job) bool

// TriggerIndexing calls f.
func (f TriggerFunc) TriggerIndexing(ctx context.Context, job Job) bool {
	return f(ctx, job)
}
