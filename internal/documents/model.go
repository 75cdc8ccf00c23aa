package documents

import (
	"strings"
	"time"
)

// DocumentType classifies a medical document.
type DocumentType string

const (
	TypePrescription DocumentType = "prescription"
	TypeLabReport    DocumentType = "lab_report"
	TypeDoctorNote   DocumentType = "doctor_note"
	TypeInsurance    DocumentType = "insurance"
	TypeVaccination  DocumentType = "vaccination"
	TypeImaging      DocumentType = "imaging"
	TypeOther        DocumentType = "other"
)

// DocumentTypes lists every accepted document type.
var DocumentTypes = []DocumentType{
	TypePrescription,
	TypeLabReport,
	TypeDoctorNote,
	TypeInsurance,
	TypeVaccination,
	TypeImaging,
	TypeOther,
}

// ParseDocumentType normalizes raw and reports whether it is a known type.
func ParseDocumentType(raw string) (DocumentType, bool) {
	norm := DocumentType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range DocumentTypes {
		if t == norm {
			return t, true
		}
	}
	return "", false
}

// Document is the persisted metadata for one stored file.
type Document struct {
	ID           string
	UserID       string
	Title        string
	DocumentType DocumentType
	Description  string
	DocumentDate time.Time
	StoragePath  string
	FileName     string
	ContentType  string
	SizeBytes    int64
	Notes        string
	Tags         []string
	ProviderID   string
	CreatedAt    time.Time

	// ProviderName is populated on reads from the providers table.
	ProviderName string
}
