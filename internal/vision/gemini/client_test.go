package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault-backend/internal/vision"
)

func TestBuildPartsInlinesPayload(t *testing.T) {
	parts := buildParts("prompt", vision.Payload{MimeType: "image/png", Data: []byte("png")})
	require.Len(t, parts, 2)
	assert.Equal(t, genai.Text("prompt"), parts[0])
	assert.Equal(t, genai.Blob{MIMEType: "image/png", Data: []byte("png")}, parts[1])

	parts = buildParts("prompt", vision.Payload{MimeType: "application/pdf", Data: []byte("%PDF"), Text: "BP 120/80"})
	require.Len(t, parts, 3)
	assert.Contains(t, string(parts[2].(genai.Text)), "BP 120/80")
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"X"} `)}},
		}},
	}
	assert.Equal(t, `{"title":"X"}`, responseText(resp))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")
	assert.Error(t, err)
}
