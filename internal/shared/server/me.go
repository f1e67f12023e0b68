package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/server/respond"
)

// RegisterMeRoutes attaches GET /me, which echoes the derived caller.
func RegisterMeRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	rg.GET("/me", auth, meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	response := gin.H{"userId": userID}
	if name := middleware.UserNameFromContext(c); name != "" {
		response["username"] = name
	}
	respond.OK(c, response)
}
