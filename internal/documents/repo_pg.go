package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `
SELECT d.id, d.user_id, d.title, d.document_type, d.description, d.document_date,
       d.file_path, d.file_name, d.content_type, d.file_size, d.notes, d.tags,
       d.provider_id, d.created_at, p.name
FROM documents d
LEFT JOIN providers p ON p.id = d.provider_id`

// Create inserts a new document and returns the persisted row.
func (r *PGRepo) Create(ctx context.Context, doc Document) (Document, error) {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    title,
    document_type,
    description,
    document_date,
    file_path,
    file_name,
    content_type,
    file_size,
    notes,
    tags,
    provider_id,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::jsonb, $13, $14)
RETURNING id, created_at`

	tags := doc.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return Document{}, fmt.Errorf("encode tags: %w", err)
	}

	err = r.DB.QueryRowContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Title,
		string(doc.DocumentType),
		nullString(doc.Description),
		doc.DocumentDate,
		doc.StoragePath,
		doc.FileName,
		doc.ContentType,
		doc.SizeBytes,
		nullString(doc.Notes),
		string(tagsJSON),
		nullString(doc.ProviderID),
		doc.CreatedAt,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNoRowReturned
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation && pgErr.ConstraintName == "documents_provider_id_fkey" {
			return Document{}, ErrUnknownProvider
		}
		return Document{}, err
	}
	doc.Tags = tags
	return doc, nil
}

// GetByID fetches a document by ID regardless of owner; callers check ownership.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := selectColumns + `
WHERE d.id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := selectColumns + `
WHERE d.user_id = $1
ORDER BY d.created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var docType string
	var description sql.NullString
	var notes sql.NullString
	var tagsRaw []byte
	var providerID sql.NullString
	var providerName sql.NullString
	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&docType,
		&description,
		&doc.DocumentDate,
		&doc.StoragePath,
		&doc.FileName,
		&doc.ContentType,
		&doc.SizeBytes,
		&notes,
		&tagsRaw,
		&providerID,
		&doc.CreatedAt,
		&providerName,
	); err != nil {
		return Document{}, err
	}
	doc.DocumentType = DocumentType(docType)
	if description.Valid {
		doc.Description = description.String
	}
	if notes.Valid {
		doc.Notes = notes.String
	}
	if providerID.Valid {
		doc.ProviderID = providerID.String
	}
	if providerName.Valid {
		doc.ProviderName = providerName.String
	}
	doc.Tags = []string{}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &doc.Tags); err != nil {
			return Document{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return doc, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
