package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/metrics"
	"carevault-backend/internal/shared/storage/object"
	"carevault-backend/internal/shared/telemetry"
	"carevault-backend/internal/shared/util"
)

// SignedURLTTL is how long retrieval links handed to clients stay valid.
const SignedURLTTL = 7 * 24 * time.Hour

const signConcurrency = 8

// IngestInput is one upload as received from a client.
type IngestInput struct {
	UserID       string
	FileName     string
	ContentType  string
	Data         []byte
	Title        string
	DocumentType string
	Description  string
	DocumentDate string
	Notes        string
	Tags         []string
	ProviderID   string
}

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  Repo

	// Indexer and DatasetID are optional; indexing runs only when both are set.
	Indexer   indexing.Trigger
	DatasetID string

	Now   func() time.Time
	NewID func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Ingest validates, stores and records an upload, then hands it to indexing.
// A stored blob is never left without a metadata row: when the insert fails
// the blob is deleted on a best-effort basis before the error is returned.
// Indexing outcome never changes the result.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (Summary, error) {
	start := time.Now()
	metrics.IncIngestStarted()
	summary, err := s.ingest(ctx, in)
	metrics.ObserveIngestDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncIngestFailed()
		return Summary{}, err
	}
	metrics.IncIngestCompleted()
	return summary, nil
}

func (s *Service) ingest(ctx context.Context, in IngestInput) (Summary, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Summary{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	v, err := validate(in, s.now())
	if err != nil {
		return Summary{}, err
	}
	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	contentType := resolveContentType(in.ContentType, v.ext, in.Data)
	storageKey := path.Join(util.HashUserKey(in.UserID), s.newID()+v.ext)

	size, err := s.Store.Save(ctx, storageKey, contentType, bytes.NewReader(in.Data))
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrBlobUpload, err)
	}

	url, err := s.Store.SignedURL(ctx, storageKey, SignedURLTTL)
	if err == nil && url == "" {
		err = errors.New("empty signed url")
	}
	if err != nil {
		s.rollback(ctx, storageKey, err)
		return Summary{}, fmt.Errorf("%w: sign url: %v", ErrBlobUpload, err)
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := Document{
		ID:           s.newID(),
		UserID:       in.UserID,
		Title:        v.title,
		DocumentType: v.docType,
		Description:  strings.TrimSpace(in.Description),
		DocumentDate: v.date,
		StoragePath:  storageKey,
		FileName:     fileName,
		ContentType:  contentType,
		SizeBytes:    size,
		Notes:        strings.TrimSpace(in.Notes),
		Tags:         tags,
		ProviderID:   strings.TrimSpace(in.ProviderID),
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.Repo.Create(ctx, doc)
	if err == nil && created.ID == "" {
		err = ErrNoRowReturned
	}
	if err != nil {
		s.rollback(ctx, storageKey, err)
		if errors.Is(err, ErrUnknownProvider) {
			return Summary{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return Summary{}, fmt.Errorf("%w: %v", ErrMetadataInsert, err)
	}

	if s.DatasetID != "" && s.Indexer != nil {
		s.index(ctx, created, in.Data)
	}

	return Summary{
		ID:        created.ID,
		Name:      fileName,
		Type:      contentType,
		Size:      size,
		URL:       url,
		Processed: true,
	}, nil
}

func (s *Service) rollback(ctx context.Context, storageKey string, cause error) {
	metrics.IncIngestRollback()
	fields := map[string]any{
		"storage_key": storageKey,
		"cause":       cause,
	}
	// The request may already be cancelled; the cleanup must still run.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := s.Store.Delete(cleanupCtx, storageKey); err != nil {
		fields["error"] = err
		telemetry.Error("documents.ingest.rollback_failed", fields)
		return
	}
	telemetry.Warn("documents.ingest.rollback", fields)
}

func (s *Service) index(ctx context.Context, doc Document, data []byte) {
	metrics.IncIndexingTriggered()
	ok := s.Indexer.TriggerIndexing(context.WithoutCancel(ctx), indexing.Job{
		DocumentID:  doc.ID,
		UserID:      doc.UserID,
		DatasetID:   s.DatasetID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		StorageKey:  doc.StoragePath,
		Data:        data,
	})
	if !ok {
		metrics.IncIndexingFailed()
		telemetry.Warn("documents.indexing.failed", map[string]any{
			"document_id": doc.ID,
			"user_id":     doc.UserID,
			"dataset_id":  s.DatasetID,
		})
	}
}

// Get returns a document owned by userID with a fresh retrieval link.
func (s *Service) Get(ctx context.Context, userID, documentID string) (DocumentView, error) {
	if strings.TrimSpace(documentID) == "" {
		return DocumentView{}, fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	if !IsID(documentID) {
		return DocumentView{}, ErrNotFound
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return DocumentView{}, err
	}
	if doc.UserID != userID {
		return DocumentView{}, ErrForbidden
	}
	return toView(doc, s.signOrEmpty(ctx, doc.StoragePath)), nil
}

// List returns the user's documents newest first, each with a fresh link.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]DocumentView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	docs, err := s.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			urls[i] = s.signOrEmpty(gctx, docs[i].StoragePath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]DocumentView, 0, len(docs))
	for i, doc := range docs {
		out = append(out, toView(doc, urls[i]))
	}
	return out, nil
}

// signOrEmpty degrades to no link rather than failing a read.
func (s *Service) signOrEmpty(ctx context.Context, storageKey string) string {
	url, err := s.Store.SignedURL(ctx, storageKey, SignedURLTTL)
	if err != nil {
		telemetry.Warn("documents.sign_url_failed", map[string]any{
			"storage_key": storageKey,
			"error":       err,
		})
		return ""
	}
	return url
}

func resolveContentType(declared, ext string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
