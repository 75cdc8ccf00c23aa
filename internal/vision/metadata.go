package vision

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"carevault-backend/internal/documents"
)

const (
	maxTags        = 5
	maxTitleLength = 255
)

// ExtractedMetadata is the normalized model output for one document.
// DocumentDate is YYYY-MM-DD or empty when the model found none.
type ExtractedMetadata struct {
	DocumentType documents.DocumentType `json:"document_type"`
	DocumentDate string                 `json:"document_date,omitempty"`
	Title        string                 `json:"title"`
	ProviderName string                 `json:"provider_name,omitempty"`
	Notes        string                 `json:"notes,omitempty"`
	Tags         []string               `json:"tags"`
}

type rawExtraction struct {
	DocumentType *string  `json:"document_type"`
	DocumentDate *string  `json:"document_date"`
	Title        *string  `json:"title"`
	ProviderName *string  `json:"provider_name"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
}

// ParseExtraction decodes a model response. Anything that is not a single JSON
// object of the expected shape is treated as an empty extraction. degraded
// reports whether fallbacks had to fill the title or document type.
func ParseExtraction(raw, fallbackTitle string) (m ExtractedMetadata, degraded bool) {
	var parsed rawExtraction
	if err := decodeStrict(raw, &parsed); err != nil {
		return WithDefaults(ExtractedMetadata{}, fallbackTitle), true
	}
	m = ExtractedMetadata{
		DocumentType: documents.DocumentType(deref(parsed.DocumentType)),
		DocumentDate: deref(parsed.DocumentDate),
		Title:        deref(parsed.Title),
		ProviderName: deref(parsed.ProviderName),
		Notes:        deref(parsed.Notes),
		Tags:         parsed.Tags,
	}
	_, typeOK := documents.ParseDocumentType(string(m.DocumentType))
	degraded = strings.TrimSpace(m.Title) == "" || !typeOK
	return WithDefaults(m, fallbackTitle), degraded
}

// WithDefaults returns a fully populated copy of m: missing title becomes
// fallbackTitle, an empty or unknown type becomes other, an unparseable date is
// dropped and tags are trimmed to at most five.
func WithDefaults(m ExtractedMetadata, fallbackTitle string) ExtractedMetadata {
	out := ExtractedMetadata{
		ProviderName: strings.TrimSpace(m.ProviderName),
		Notes:        strings.TrimSpace(m.Notes),
	}

	out.Title = strings.TrimSpace(m.Title)
	if out.Title == "" {
		out.Title = strings.TrimSpace(fallbackTitle)
	}
	out.Title = truncateRunes(out.Title, maxTitleLength)

	if t, ok := documents.ParseDocumentType(string(m.DocumentType)); ok {
		out.DocumentType = t
	} else {
		out.DocumentType = documents.TypeOther
	}

	if d := strings.TrimSpace(m.DocumentDate); d != "" {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			out.DocumentDate = d
		}
	}

	out.Tags = make([]string, 0, len(m.Tags))
	for _, tag := range m.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out.Tags = append(out.Tags, tag)
		if len(out.Tags) == maxTags {
			break
		}
	}
	return out
}

func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(raw))))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
