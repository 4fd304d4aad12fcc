package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obsmiddleware "github.com/smallbiznis/paybridge/internal/observability/logger"
)

const contextUserIDKey = "user_id"

// UserRequired resolves the caller from the X-User-ID header. Authentication
// happens upstream of this service.
func UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(obsmiddleware.HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextUserIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}
