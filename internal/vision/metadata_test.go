package vision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"carevault-backend/internal/documents"
)

func TestParseExtractionComplete(t *testing.T) {
	raw := `{
		"document_type": "lab_report",
		"document_date": "2025-05-01",
		"title": "Complete Blood Count (CBC)",
		"provider_name": "Dr. Evelyn Reed",
		"notes": "Results within normal limits.",
		"tags": ["cbc", "blood test", "normal"]
	}`

	m, degraded := ParseExtraction(raw, "scan.pdf")

	assert.False(t, degraded)
	assert.Equal(t, ExtractedMetadata{
		DocumentType: documents.TypeLabReport,
		DocumentDate: "2025-05-01",
		Title:        "Complete Blood Count (CBC)",
		ProviderName: "Dr. Evelyn Reed",
		Notes:        "Results within normal limits.",
		Tags:         []string{"cbc", "blood test", "normal"},
	}, m)
}

func TestParseExtractionFallbacks(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantType documents.DocumentType
		wantDate string
	}{
		{name: "missing title", raw: `{"document_type":"imaging","tags":[]}`, wantType: documents.TypeImaging},
		{name: "null fields", raw: `{"document_type":null,"title":null,"document_date":null,"tags":null}`, wantType: documents.TypeOther},
		{name: "unknown type", raw: `{"document_type":"xray","document_date":"2024-02-30"}`, wantType: documents.TypeOther},
		{name: "not json", raw: `Here is the metadata you asked for`, wantType: documents.TypeOther},
		{name: "array", raw: `["lab_report"]`, wantType: documents.TypeOther},
		{name: "trailing text", raw: `{"title":"X","document_type":"other"} thanks!`, wantType: documents.TypeOther},
		{name: "wrong tag type", raw: `{"title":"X","document_type":"lab_report","tags":"a,b"}`, wantType: documents.TypeOther},
		{name: "empty", raw: ``, wantType: documents.TypeOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, degraded := ParseExtraction(tc.raw, "scan.pdf")
			assert.True(t, degraded)
			assert.Equal(t, "scan.pdf", m.Title)
			assert.Equal(t, tc.wantType, m.DocumentType)
			assert.Equal(t, tc.wantDate, m.DocumentDate)
			assert.NotNil(t, m.Tags)
		})
	}
}

func TestWithDefaultsIsPure(t *testing.T) {
	in := ExtractedMetadata{
		DocumentType: "Prescription",
		DocumentDate: "05/01/2025",
		Title:        "  ",
		Tags:         []string{" a ", "", "b", "c", "d", "e", "f"},
	}
	snapshot := in
	snapshot.Tags = append([]string(nil), in.Tags...)

	out := WithDefaults(in, "rx.jpg")

	assert.Equal(t, snapshot, in)
	assert.Equal(t, documents.TypePrescription, out.DocumentType)
	assert.Equal(t, "", out.DocumentDate)
	assert.Equal(t, "rx.jpg", out.Title)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out.Tags)
}

func TestWithDefaultsTruncatesLongTitle(t *testing.T) {
	out := WithDefaults(ExtractedMetadata{}, strings.Repeat("é", 300)+".pdf")
	assert.Len(t, []rune(out.Title), maxTitleLength)
}
