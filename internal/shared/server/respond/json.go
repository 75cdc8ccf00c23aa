package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Success writes the 200 envelope {error:null, message, success:true} merged with extra keys.
func Success(c *gin.Context, message string, extra gin.H) {
	body := gin.H{
		"error":   nil,
		"message": message,
		"success": true,
	}
	for k, v := range extra {
		body[k] = v
	}
	OK(c, body)
}
