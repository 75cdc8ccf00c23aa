package workerproc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/storage/object/local"
)

func validMessage() queue.Message {
	return queue.Message{
		DocumentID:  "doc-1",
		UserID:      "user-1",
		DatasetID:   "ds-1",
		FileName:    "cbc.pdf",
		ContentType: "application/pdf",
		StorageKey:  "abc/doc-1.pdf",
		RequestID:   "req-1",
		Version:     queue.CurrentVersion,
	}
}

func TestParseMessage(t *testing.T) {
	body, err := queue.EncodeMessage(validMessage())
	require.NoError(t, err)

	msg, meta, err := ParseMessage(string(body))
	require.NoError(t, err)
	assert.Equal(t, "doc-1", msg.DocumentID)
	assert.Equal(t, len(body), meta.BodyLen)
	assert.Len(t, meta.BodySHA, 64)
}

func TestParseMessageErrors(t *testing.T) {
	_, _, err := ParseMessage("  ")
	assert.IsType(t, ErrEmptyBody{}, err)

	_, _, err = ParseMessage("{bad-json")
	assert.IsType(t, ErrDecode{}, err)

	noKey := validMessage()
	noKey.StorageKey = ""
	body, _ := queue.EncodeMessage(noKey)
	_, _, err = ParseMessage(string(body))
	var missing ErrMissingField
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "storage key", missing.Field)
	assert.Equal(t, "req-1", missing.RequestID)
}

func TestProcessReloadsBytesAndTriggers(t *testing.T) {
	store := local.New(t.TempDir(), "http://api.test", "k")
	_, err := store.Save(context.Background(), "abc/doc-1.pdf", "application/pdf", bytes.NewReader([]byte("%PDF-1.4 body")))
	require.NoError(t, err)

	var got indexing.Job
	var gotRequestID string
	p := &Processor{Store: store, Indexer: indexing.TriggerFunc(func(ctx context.Context, job indexing.Job) bool {
		got = job
		gotRequestID = indexing.RequestIDFromContext(ctx)
		return true
	})}

	require.NoError(t, p.Process(context.Background(), validMessage()))
	assert.Equal(t, []byte("%PDF-1.4 body"), got.Data)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "ds-1", got.DatasetID)
	assert.Equal(t, "req-1", gotRequestID)
}

func TestProcessFailures(t *testing.T) {
	store := local.New(t.TempDir(), "http://api.test", "k")
	never := indexing.TriggerFunc(func(context.Context, indexing.Job) bool { return false })

	err := (&Processor{Store: store, Indexer: never}).Process(context.Background(), validMessage())
	var procErr ErrProcess
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "doc-1", procErr.DocumentID)
	assert.False(t, errors.Is(err, ErrIndexingFailed), "missing blob fails before indexing")

	_, err = store.Save(context.Background(), "abc/doc-1.pdf", "application/pdf", io.LimitReader(bytes.NewReader([]byte("pdf")), 3))
	require.NoError(t, err)
	err = (&Processor{Store: store, Indexer: never}).Process(context.Background(), validMessage())
	assert.ErrorIs(t, err, ErrIndexingFailed)

	assert.Error(t, (&Processor{}).Process(context.Background(), validMessage()))
}
