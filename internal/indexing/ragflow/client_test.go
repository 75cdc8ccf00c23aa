package ragflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault-backend/internal/indexing"
	"carevault-backend/internal/shared/telemetry"
)

type recorded struct {
	mu        sync.Mutex
	paths     []string
	auth      []string
	metadata  string
	fileName  string
	fileType  string
	fileBody  string
	parseBody map[string][]string
}

func newServer(t *testing.T, uploadStatus int, uploadBody string, parseStatus int) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.auth = append(rec.auth, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/datasets/ds-1/documents":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			rec.metadata = r.FormValue("metadata")
			f, hdr, err := r.FormFile("file")
			if err == nil {
				data, _ := io.ReadAll(f)
				rec.fileBody = string(data)
				rec.fileName = hdr.Filename
				rec.fileType = hdr.Header.Get("Content-Type")
			}
			w.WriteHeader(uploadStatus)
			_, _ = w.Write([]byte(uploadBody))
		case "/api/v1/datasets/ds-1/chunks":
			_ = json.NewDecoder(r.Body).Decode(&rec.parseBody)
			w.WriteHeader(parseStatus)
			_, _ = w.Write([]byte(`{"code":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testJob() indexing.Job {
	return indexing.Job{
		DocumentID:  "doc-1",
		UserID:      "user-42",
		DatasetID:   "ds-1",
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	}
}

func TestTriggerIndexingSuccessRequestsParse(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"data":[{"id":"rf-7"}]}`, http.StatusOK)

	c := NewClient(srv.URL+"/", "secret")
	ok := c.TriggerIndexing(context.Background(), testJob())

	require.True(t, ok)
	assert.Equal(t, []string{"/api/v1/datasets/ds-1/documents", "/api/v1/datasets/ds-1/chunks"}, rec.paths)
	assert.Equal(t, []string{"Bearer secret", "Bearer secret"}, rec.auth)
	assert.JSONEq(t, `{"user_id":"user-42"}`, rec.metadata)
	assert.Equal(t, "report.pdf", rec.fileName)
	assert.Equal(t, "application/pdf", rec.fileType)
	assert.Equal(t, "%PDF-1.4", rec.fileBody)
	assert.Equal(t, map[string][]string{"document_ids": {"rf-7"}}, rec.parseBody)
}

func TestTriggerIndexingWithoutAPIKeyOmitsAuth(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"data":[]}`, http.StatusOK)

	ok := NewClient(srv.URL, "").TriggerIndexing(context.Background(), testJob())

	require.True(t, ok)
	assert.Equal(t, []string{""}, rec.auth, "no parse call without a remote id")
}

func TestTriggerIndexingFailures(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "service code", status: http.StatusOK, body: `{"code":102,"message":"dataset missing"}`},
		{name: "http status", status: http.StatusInternalServerError, body: `oops`},
		{name: "bad json", status: http.StatusOK, body: `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, rec := newServer(t, tc.status, tc.body, http.StatusOK)
			ok := NewClient(srv.URL, "k").TriggerIndexing(context.Background(), testJob())
			assert.False(t, ok)
			assert.Len(t, rec.paths, 1)
		})
	}
}

func TestTriggerIndexingParseFailureStillSucceeds(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"data":[{"id":"rf-1"}]}`, http.StatusBadGateway)

	ok := NewClient(srv.URL, "").TriggerIndexing(context.Background(), testJob())

	assert.True(t, ok)
	assert.Len(t, rec.paths, 2)
}

func TestTriggerIndexingTimeout(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.httpClient.Timeout = 20 * time.Millisecond
	assert.False(t, c.TriggerIndexing(context.Background(), testJob()))
}

func TestTriggerIndexingNotConfigured(t *testing.T) {
	defer telemetry.SetOutput(io.Discard)()
	job := testJob()
	assert.False(t, NewClient("", "").TriggerIndexing(context.Background(), job))

	job.DatasetID = ""
	assert.False(t, NewClient("http://ragflow", "").TriggerIndexing(context.Background(), job))

	var nilClient *Client
	assert.False(t, nilClient.TriggerIndexing(context.Background(), testJob()))
}
