package indexing

import (
	"context"
	"time"

	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/telemetry"
)

// QueueTrigger defers indexing to the index worker by enqueueing a job
// reference. Success means the job was enqueued, not that it was indexed.
type QueueTrigger struct {
	Queue queue.Client
	Now   func() time.Time
}

// NewQueueTrigger constructs a QueueTrigger.
func NewQueueTrigger(q queue.Client) *QueueTrigger {
	return &QueueTrigger{Queue: q, Now: time.Now}
}

// TriggerIndexing enqueues job without its bytes.
func (t *QueueTrigger) TriggerIndexing(ctx context.Context, job Job) bool {
	if t == nil || t.Queue == nil {
		return false
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	msg := queue.Message{
		DocumentID:  job.DocumentID,
		UserID:      job.UserID,
		DatasetID:   job.DatasetID,
		FileName:    job.FileName,
		ContentType: job.ContentType,
		StorageKey:  job.StorageKey,
		RequestID:   RequestIDFromContext(ctx),
		EnqueuedAt:  now().UTC().Format(time.RFC3339),
		Version:     queue.CurrentVersion,
	}
	if err := t.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("indexing.enqueue_failed", map[string]any{
			"document_id": job.DocumentID,
			"user_id":     job.UserID,
			"error":       err,
		})
		return false
	}
	telemetry.Info("indexing.enqueued", map[string]any{
		"document_id": job.DocumentID,
		"user_id":     job.UserID,
	})
	return true
}

type requestIDKey struct{}

// WithRequestID stores a request id for propagation into queued jobs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

var _ Trigger = (*QueueTrigger)(nil)
