package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"carevault-backend/internal/chat"
	"carevault-backend/internal/documents"
	"carevault-backend/internal/indexing"
	"carevault-backend/internal/indexing/ragflow"
	"carevault-backend/internal/queue"
	"carevault-backend/internal/shared/config"
	"carevault-backend/internal/shared/server"
	"carevault-backend/internal/shared/storage/db"
	"carevault-backend/internal/shared/storage/object"
	localstore "carevault-backend/internal/shared/storage/object/local"
	miniostore "carevault-backend/internal/shared/storage/object/minio"
	s3store "carevault-backend/internal/shared/storage/object/s3"
	"carevault-backend/internal/vision"
	"carevault-backend/internal/vision/gemini"
	"carevault-backend/internal/vision/ollama"
	"carevault-backend/internal/vision/openai"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	Vision           *vision.Client
	RAGFlow          *ragflow.Client
	Indexer          indexing.Trigger
	DocumentsHandler *documents.Handler
	ChatHandler      *chat.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	visionClient, err := buildVision(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Vision: visionClient,
	}
	if strings.TrimSpace(cfg.RAGFlowURL) != "" {
		app.RAGFlow = ragflow.NewClient(cfg.RAGFlowURL, cfg.RAGFlowAPIKey)
	}

	app.Indexer, err = buildIndexer(ctx, cfg, app.RAGFlow)
	if err != nil {
		return nil, err
	}

	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
	}
	app.DocumentsService = &documents.Service{
		Store:     app.Store,
		Repo:      app.DocumentsRepo,
		Indexer:   app.Indexer,
		DatasetID: cfg.RAGFlowDatasetID,
	}
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.ChatHandler = chat.NewHandler(app.Vision, app.DocumentsService)

	deps := server.RouterDeps{
		Config:          cfg,
		DB:              app.DB,
		DocumentHandler: app.DocumentsHandler,
		ChatHandler:     app.ChatHandler,
	}
	if blobs, ok := store.(server.BlobServer); ok {
		deps.Blobs = blobs
	}
	app.Router = server.NewRouter(deps)

	return app, nil
}

var (
	connectDB     = db.Shared
	runMigrations = db.RunMigrations
)

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDev() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	role := db.DetectRole(db.RoleServer)
	sqlDB, err := connectDB(ctx, cfg.DatabaseURL, db.PoolOptions(role))
	if err == nil && role.RunsMigrations() {
		err = runMigrations(ctx, sqlDB)
	}
	if err != nil {
		if cfg.IsDev() {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			KMSKeyID:  cfg.SSEKMSKeyID,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		if !cfg.IsDev() && cfg.BlobSigningKey == "dev-blob-key" {
			return nil, fmt.Errorf("BLOB_SIGNING_KEY must be set outside dev")
		}
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL, cfg.BlobSigningKey), nil
	}
}

// buildVision returns nil when the selected provider has no credentials in
// dev; chat uploads then answer "AI service not configured".
func buildVision(ctx context.Context, cfg config.Config) (*vision.Client, error) {
	var (
		model vision.Model
		err   error
	)
	switch cfg.VisionProvider {
	case "none", "":
		return nil, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" && cfg.IsDev() {
			return nil, nil
		}
		model, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.VisionModel)
	case "ollama":
		model, err = ollama.NewClient(cfg.OllamaURL, cfg.VisionModel)
	default:
		if cfg.OpenAIAPIKey == "" && cfg.IsDev() {
			return nil, nil
		}
		model, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.VisionModel)
	}
	if err != nil {
		return nil, fmt.Errorf("vision provider %s: %w", cfg.VisionProvider, err)
	}
	return vision.NewClient(model), nil
}

func buildIndexer(ctx context.Context, cfg config.Config, rag *ragflow.Client) (indexing.Trigger, error) {
	if cfg.IndexingMode == "queue" {
		q, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.IndexQueueURL)
		if err != nil {
			return nil, err
		}
		return indexing.NewQueueTrigger(q), nil
	}
	if rag == nil {
		return nil, nil
	}
	return rag, nil
}
