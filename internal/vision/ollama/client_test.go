package ollama

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"carevault-backend/internal/vision"
)

type fakeLLM struct {
	messages []llms.MessageContent
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not used")
}

func TestCompleteAttachesImage(t *testing.T) {
	fake := &fakeLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ` {"document_type":"vaccination"} `}}}}
	c := &Client{llm: fake}

	out, err := c.Complete(context.Background(), "prompt", vision.Payload{MimeType: "image/jpeg", Data: []byte("jpg")})
	require.NoError(t, err)
	assert.Equal(t, `{"document_type":"vaccination"}`, out)

	require.Len(t, fake.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[0].Role)
	require.Len(t, fake.messages[0].Parts, 2)
	assert.Equal(t, llms.BinaryContent{MIMEType: "image/jpeg", Data: []byte("jpg")}, fake.messages[0].Parts[1])
}

func TestBuildMessagesPDFFallbackUsesText(t *testing.T) {
	msgs := buildMessages("prompt", vision.Payload{MimeType: "application/pdf", Data: []byte("%PDF"), Text: "Rx amoxicillin"})
	parts := msgs[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, llms.TextContent{Text: "Extracted first-page text:\nRx amoxicillin"}, parts[1])
}

func TestCompleteErrors(t *testing.T) {
	c := &Client{llm: &fakeLLM{err: errors.New("connection refused")}}
	_, err := c.Complete(context.Background(), "p", vision.Payload{MimeType: "image/png"})
	assert.Error(t, err)

	c = &Client{llm: &fakeLLM{resp: &llms.ContentResponse{}}}
	_, err = c.Complete(context.Background(), "p", vision.Payload{MimeType: "image/png"})
	assert.Error(t, err)
}
