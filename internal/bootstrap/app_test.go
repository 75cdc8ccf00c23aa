package bootstrap

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault-backend/internal/documents"
	"carevault-backend/internal/shared/config"
	"carevault-backend/internal/shared/storage/db"
	"carevault-backend/internal/shared/telemetry"
)

func devConfig(t *testing.T) config.Config {
	return config.Config{
		Env:              "dev",
		CORSAllowOrigin:  []string{"http://localhost:3000"},
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		PublicBaseURL:    "http://localhost:8080",
		BlobSigningKey:   "test-key",
		VisionProvider:   "none",
		IndexingMode:     "inline",
		UploadRatePerMin: 20,
		UploadBurst:      5,
	}
}

func TestBuildDevUsesMemoryAndLocalStore(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	app, err := Build(devConfig(t))
	require.NoError(t, err)

	assert.Nil(t, app.DB)
	assert.IsType(t, &documents.MemoryRepo{}, app.DocumentsRepo)
	assert.Nil(t, app.Vision)
	assert.Nil(t, app.RAGFlow)
	assert.Nil(t, app.Indexer)
	require.NotNil(t, app.Router)
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuiltRouterUploadsAndServesBlob(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	app, err := Build(devConfig(t))
	require.NoError(t, err)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("title", "Discharge note"))
	require.NoError(t, w.WriteField("document_type", "doctor_note"))
	part, err := w.CreateFormFile("file", "note.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Patient discharged in good condition."))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Guest-Id", "erin")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Document documents.Summary `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Document.URL)

	download := httptest.NewRequest(http.MethodGet, resp.Document.URL, nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, download)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Patient discharged in good condition.", rec.Body.String())
}

func TestChatUploadWithoutVisionProvider(t *testing.T) {
	t.Cleanup(telemetry.SetOutput(io.Discard))
	app, err := Build(devConfig(t))
	require.NoError(t, err)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="scan.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Guest-Id", "erin")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type dbCalls struct {
	opts     db.Options
	migrated bool
}

func stubDatabase(t *testing.T) *dbCalls {
	t.Helper()
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	calls := &dbCalls{}
	prevConnect, prevMigrate := connectDB, runMigrations
	connectDB = func(ctx context.Context, url string, opts db.Options) (*sql.DB, error) {
		calls.opts = opts
		return sqlDB, nil
	}
	runMigrations = func(ctx context.Context, _ *sql.DB) error {
		calls.migrated = true
		return nil
	}
	t.Cleanup(func() { connectDB, runMigrations = prevConnect, prevMigrate })
	return calls
}

func TestBuildDBMigratesOnServer(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	calls := stubDatabase(t)
	cfg := devConfig(t)
	cfg.DatabaseURL = "postgres://carevault"

	got, err := buildDB(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, calls.migrated)
	assert.Equal(t, 10, calls.opts.MaxOpenConns)
}

func TestBuildDBOnLambdaUsesSmallPoolWithoutMigrations(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "carevault-api")
	calls := stubDatabase(t)
	cfg := devConfig(t)
	cfg.DatabaseURL = "postgres://carevault"

	got, err := buildDB(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, calls.migrated)
	assert.Equal(t, 2, calls.opts.MaxOpenConns)
}
