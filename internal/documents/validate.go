package documents

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	dateLayout     = "2006-01-02"
	maxTitleLength = 255
	maxTags        = 20
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".txt":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// AllowedFile reports whether name carries an accepted extension.
func AllowedFile(name string) bool {
	_, ok := allowedExtensions[fileExt(name)]
	return ok
}

// IsID reports whether s has the shape of a document or provider id.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func fileExt(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

// ParseDocumentDate parses YYYY-MM-DD. An empty value yields today's date in UTC.
func ParseDocumentDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, raw)
	}
	return t, nil
}

// ParseTags accepts a JSON array of strings or a comma-separated list.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var parts []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			parts = strings.Split(strings.Trim(raw, "[]"), ",")
		}
	} else {
		parts = strings.Split(raw, ",")
	}
	return cleanTags(parts, maxTags)
}

func cleanTags(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(strings.Trim(strings.TrimSpace(t), `"`))
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

type validated struct {
	title   string
	docType DocumentType
	date    time.Time
	ext     string
}

// validate checks everything that can be rejected before touching storage.
func validate(in IngestInput, now time.Time) (validated, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.DocumentType) == "" {
		return validated{}, fmt.Errorf("%w: missing required fields: title, document_type", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FileName) == "" {
		return validated{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if !AllowedFile(in.FileName) {
		return validated{}, fmt.Errorf("%w: %q", ErrFileTypeNotAllowed, fileExt(in.FileName))
	}
	if len(in.Data) == 0 {
		return validated{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	docType, ok := ParseDocumentType(in.DocumentType)
	if !ok {
		return validated{}, fmt.Errorf("%w: unknown document_type %q", ErrInvalidInput, in.DocumentType)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return validated{}, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
	}
	if p := strings.TrimSpace(in.ProviderID); p != "" && !IsID(p) {
		return validated{}, fmt.Errorf("%w: provider_id must be a UUID", ErrInvalidInput)
	}
	date, err := ParseDocumentDate(in.DocumentDate, now)
	if err != nil {
		return validated{}, err
	}
	return validated{
		title:   title,
		docType: docType,
		date:    date,
		ext:     fileExt(in.FileName),
	}, nil
}
