// Package ragflow talks to a RAGFlow server: it uploads documents into a
// dataset and asks the server to chunk them for retrieval.
package ragflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/telemetry"
)

const defaultTimeout = 60 * time.Second

// Client uploads documents to a RAGFlow dataset.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a RAGFlow client. apiKey may be empty for servers
// without auth.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type uploadedDocument struct {
	ID string `json:"id"`
}

// TriggerIndexing uploads job.Data with the owning user's id as metadata.
// Any transport error, non-2xx status or non-zero service code yields false.
// On success the parse step is requested; its outcome is only logged.
func (c *Client) TriggerIndexing(ctx context.Context, job indexing.Job) bool {
	fields := map[string]any{
		"document_id": job.DocumentID,
		"user_id":     job.UserID,
		"dataset_id":  job.DatasetID,
		"file_name":   job.FileName,
	}
	if c == nil || c.baseURL == "" || job.DatasetID == "" {
		telemetry.Error("indexing.ragflow.not_configured", fields)
		return false
	}
	if len(job.Data) == 0 {
		fields["error"] = "empty document body"
		telemetry.Error("indexing.ragflow.upload_failed", fields)
		return false
	}

	remoteID, err := c.upload(ctx, job)
	if err != nil {
		fields["error"] = err
		telemetry.Error("indexing.ragflow.upload_failed", fields)
		return false
	}
	fields["ragflow_document_id"] = remoteID
	telemetry.Info("indexing.ragflow.uploaded", fields)

	if remoteID != "" {
		if err := c.TriggerParse(ctx, job.DatasetID, remoteID); err != nil {
			telemetry.Warn("indexing.ragflow.parse_failed", map[string]any{
				"document_id":         job.DocumentID,
				"ragflow_document_id": remoteID,
				"error":               err,
			})
		}
	}
	return true
}

// TriggerParse asks the server to chunk documentID for retrieval.
func (c *Client) TriggerParse(ctx context.Context, datasetID, documentID string) error {
	payload, err := json.Marshal(map[string]any{"document_ids": []string{documentID}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.datasetURL(datasetID, "chunks"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	_, err = c.do(req)
	return err
}

func (c *Client) upload(ctx context.Context, job indexing.Job) (string, error) {
	meta, err := json.Marshal(map[string]string{"user_id": job.UserID})
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("metadata", string(meta)); err != nil {
		return "", err
	}
	part, err := mw.CreatePart(filePartHeader(job.FileName, job.ContentType))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(job.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.datasetURL(job.DatasetID, "documents"), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}

	var docs []uploadedDocument
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &docs); err != nil {
			return "", fmt.Errorf("ragflow upload response: %w", err)
		}
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].ID, nil
}

func (c *Client) do(req *http.Request) (apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return apiResponse{}, fmt.Errorf("ragflow request timeout: %w", err)
		}
		return apiResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiResponse{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiResponse{}, fmt.Errorf("ragflow http %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return apiResponse{}, fmt.Errorf("ragflow response parse: %w", err)
	}
	if parsed.Code != 0 {
		msg := parsed.Message
		if msg == "" {
			msg = "unknown ragflow error"
		}
		return apiResponse{}, fmt.Errorf("ragflow code %d: %s", parsed.Code, msg)
	}
	return parsed, nil
}

func (c *Client) datasetURL(datasetID, resource string) string {
	return fmt.Sprintf("%s/api/v1/datasets/%s/%s", c.baseURL, datasetID, resource)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func filePartHeader(fileName, contentType string) textproto.MIMEHeader {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(fileName)))
	h.Set("Content-Type", contentType)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ indexing.Trigger = (*Client)(nil)
