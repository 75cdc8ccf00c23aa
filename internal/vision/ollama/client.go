package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"carevault-backend/internal/vision"
)

const defaultModel = "llava"

// Client implements vision.Model against a local Ollama server.
type Client struct {
	llm llms.Model
}

// NewClient connects to the Ollama server at baseURL. model defaults to llava.
func NewClient(baseURL, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:11434"
	}
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(baseURL),
		ollama.WithFormat("json"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama: %w", err)
	}
	return &Client{llm: llm}, nil
}

// Complete sends the prompt with the payload attached as binary content.
func (c *Client) Complete(ctx context.Context, prompt string, p vision.Payload) (string, error) {
	resp, err := c.llm.GenerateContent(ctx, buildMessages(prompt, p),
		llms.WithTemperature(0),
		llms.WithMaxTokens(400),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama response missing choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Content)
	if out == "" {
		return "", fmt.Errorf("ollama response empty content")
	}
	return out, nil
}

func buildMessages(prompt string, p vision.Payload) []llms.MessageContent {
	parts := []llms.ContentPart{llms.TextContent{Text: prompt}}
	if p.IsImage() {
		parts = append(parts, llms.BinaryContent{MIMEType: p.MimeType, Data: p.Data})
	}
	// Ollama only accepts images; an unrendered PDF is described by its text.
	if p.Text != "" {
		parts = append(parts, llms.TextContent{Text: "Extracted first-page text:\n" + p.Text})
	}
	return []llms.MessageContent{{Role: llms.ChatMessageTypeHuman, Parts: parts}}
}

var _ vision.Model = (*Client)(nil)
