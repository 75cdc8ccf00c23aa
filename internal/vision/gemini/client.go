package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"carevault-backend/internal/vision"
)

const defaultModel = "gemini-1.5-flash"

// Client implements vision.Model with Gemini multimodal generation.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient connects to Gemini with apiKey. modelName defaults to gemini-1.5-flash.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = defaultModel
	}
	return &Client{client: cl, modelName: modelName}, nil
}

func (g *Client) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Complete asks Gemini for a JSON answer about the inline payload.
func (g *Client) Complete(ctx context.Context, prompt string, p vision.Payload) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0)
	m.SetMaxOutputTokens(400)

	resp, err := m.GenerateContent(ctx, buildParts(prompt, p)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out := responseText(resp)
	if out == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return out, nil
}

func buildParts(prompt string, p vision.Payload) []genai.Part {
	parts := []genai.Part{
		genai.Text(prompt),
		genai.Blob{MIMEType: p.MimeType, Data: p.Data},
	}
	if p.Text != "" {
		parts = append(parts, genai.Text("Extracted first-page text:\n"+p.Text))
	}
	return parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

var _ vision.Model = (*Client)(nil)
