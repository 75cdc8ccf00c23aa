package respond

import (
	"github.com/gin-gonic/gin"

	"carevault-backend/internal/shared/telemetry"
)

// ErrorResponse is the envelope returned for every 4xx/5xx.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Error sends a standardized error response. code is a short machine-readable
// identifier, message is safe to show to the caller.
func Error(c *gin.Context, status int, code, message string) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if isGuest, ok := c.Get("isGuest"); ok {
		fields["is_guest"] = isGuest
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Success: false,
	})
}
