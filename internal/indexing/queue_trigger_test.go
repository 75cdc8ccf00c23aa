package indexing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/telemetry"
)

type fakeQueue struct {
	sent []queue.Message
	err  error
}

func (f *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestQueueTriggerEnqueuesReference(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	q := &fakeQueue{}
	trigger := NewQueueTrigger(q)
	trigger.Now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	ctx := WithRequestID(context.Background(), "req-9")
	ok := trigger.TriggerIndexing(ctx, Job{
		DocumentID: "doc-1",
		UserID:     "user-1",
		DatasetID:  "ds-1",
		FileName:   "report.pdf",
		StorageKey: "abc/123.pdf",
		Data:       []byte("not sent"),
	})

	require.True(t, ok)
	require.Len(t, q.sent, 1)
	msg := q.sent[0]
	assert.Equal(t, "doc-1", msg.DocumentID)
	assert.Equal(t, "abc/123.pdf", msg.StorageKey)
	assert.Equal(t, "req-9", msg.RequestID)
	assert.Equal(t, "2026-02-03T04:05:06Z", msg.EnqueuedAt)
	assert.Equal(t, queue.CurrentVersion, msg.Version)
}

func TestQueueTriggerReportsSendFailure(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	trigger := NewQueueTrigger(&fakeQueue{err: errors.New("down")})
	assert.False(t, trigger.TriggerIndexing(context.Background(), Job{DocumentID: "doc-1"}))

	var nilTrigger *QueueTrigger
	assert.False(t, nilTrigger.TriggerIndexing(context.Background(), Job{}))
}
