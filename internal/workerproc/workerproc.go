package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/storage/object"
)

// ErrIndexingFailed is wrapped by ErrProcess when the indexing service
// rejected the document.
var ErrIndexingFailed = errors.New("indexing failed")

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingField indicates a message without a document id, storage key or dataset.
type ErrMissingField struct {
	Meta      MessageMeta
	Field     string
	RequestID string
}

func (e ErrMissingField) Error() string { return "missing " + e.Field }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	DocumentID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process indexing job"
	}
	return "process indexing job: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	for _, f := range []struct{ name, value string }{
		{"document id", msg.DocumentID},
		{"storage key", msg.StorageKey},
		{"dataset id", msg.DatasetID},
	} {
		if strings.TrimSpace(f.value) == "" {
			return msg, meta, ErrMissingField{Meta: meta, Field: f.name, RequestID: msg.RequestID}
		}
	}
	return msg, meta, nil
}

// Processor runs one queued indexing job.
type Processor struct {
	Store   object.ObjectStore
	Indexer indexing.Trigger
}

// Process reloads the document bytes from the blob store and hands them to
// the indexer. There is no retry; the caller drops the message either way.
func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	if p == nil || p.Store == nil || p.Indexer == nil {
		return errors.New("index processor not configured")
	}
	fail := func(err error) error {
		return ErrProcess{DocumentID: msg.DocumentID, RequestID: msg.RequestID, Err: err}
	}

	body, err := p.Store.Open(ctx, msg.StorageKey)
	if err != nil {
		return fail(fmt.Errorf("open blob %s: %w", msg.StorageKey, err))
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fail(fmt.Errorf("read blob %s: %w", msg.StorageKey, err))
	}

	ok := p.Indexer.TriggerIndexing(indexing.WithRequestID(ctx, msg.RequestID), indexing.Job{
		DocumentID:  msg.DocumentID,
		UserID:      msg.UserID,
		DatasetID:   msg.DatasetID,
		FileName:    msg.FileName,
		ContentType: msg.ContentType,
		StorageKey:  msg.StorageKey,
		Data:        data,
	})
	if !ok {
		return fail(ErrIndexingFailed)
	}
	return nil
}
