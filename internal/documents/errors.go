package documents

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidDateFormat  = errors.New("invalid document_date format")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrBlobUpload         = errors.New("blob upload failed")
	ErrMetadataInsert     = errors.New("metadata insert failed")
	ErrNotFound           = errors.New("document not found")
	ErrForbidden          = errors.New("access denied to this document")
	ErrUnknownProvider    = errors.New("provider not found")

	// ErrNoRowReturned means the insert completed without yielding the new row.
	ErrNoRowReturned = errors.New("insert returned no row")
)
