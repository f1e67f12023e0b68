package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"training-app/internal/identity"
	"training-app/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userNameKey = "userName"
)

// Identity resolves the caller with the configured extractor and stores the
// user id in context. Requests without a usable identity are rejected.
func Identity(mode identity.Mode) gin.HandlerFunc {
	extract := identity.ExtractorFor(mode)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		id, err := extract(c.Request.Header)
		if err != nil {
			status := identity.StatusForMode(mode, err)
			code := "unauthorized"
			if status == http.StatusBadRequest {
				code = "bad_request"
			}
			respond.Error(c, status, code, err.Error(), nil)
			return
		}

		SetUser(c, id.UserID, "")
		c.Next()
	}
}

// SetUser stores the resolved identity for handlers and the request logger.
func SetUser(c *gin.Context, userID, userName string) {
	c.Set(userIDKey, userID)
	if userName != "" {
		c.Set(userNameKey, userName)
	}
}

// UserIDFromContext fetches the user ID set by the identity middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserNameFromContext fetches the user name set by the session middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
