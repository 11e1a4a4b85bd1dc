package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// BodyLimit answers 413 when the declared Content-Length exceeds maxBytes.
// Bodies of unknown length are wrapped so reading past maxBytes fails.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	tooLarge := fmt.Sprintf("Request body larger than %d bytes", maxBytes)
	return func(c *gin.Context) {
		req := c.Request
		if req.Body == nil || req.Body == http.NoBody {
			c.Next()
			return
		}
		if req.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, tooLarge, GetRequestID(c)))
			return
		}
		req.Body = http.MaxBytesReader(c.Writer, req.Body, maxBytes)
		c.Next()
	}
}
