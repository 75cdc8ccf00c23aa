package server

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carevault-backend/internal/chat"
	"carevault-backend/internal/documents"
	"carevault-backend/internal/shared/config"
	"carevault-backend/internal/shared/metrics"
	"carevault-backend/internal/shared/server/middleware"
	"carevault-backend/internal/shared/server/respond"
	"carevault-backend/internal/shared/storage/db"
)

const uploadGroup = "UPLOAD"

// RouterDeps carries what NewRouter wires. Nil handlers leave their routes out.
type RouterDeps struct {
	Config          config.Config
	DB              *sql.DB
	DocumentHandler *documents.Handler
	ChatHandler     *chat.Handler
	Blobs           BlobServer
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.IsDev()),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				uploadGroup: middleware.PerMinute(cfg.UploadRatePerMin, cfg.UploadBurst),
			},
			GroupFor: uploadGroupFor,
			Limiter:  deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.DB))
	registerMeRoutes(api)
	if deps.Blobs != nil {
		registerBlobRoutes(api, deps.Blobs)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}

	return r
}

// uploadGroupFor puts multipart uploads in their own rate limit bucket.
func uploadGroupFor(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/upload") {
		return uploadGroup
	}
	return ""
}

func healthHandler(sqlDB *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sqlDB == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "memory"})
			return
		}
		if err := db.Ping(c.Request.Context(), sqlDB, 2*time.Second); err != nil {
			respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "database": "unreachable"})
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "database": "ok"})
	}
}

// Run serves r until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, r http.Handler, port string) error {
	srv := &http.Server{
		Addr:              Addr(port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
