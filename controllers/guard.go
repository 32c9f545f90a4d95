package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blogium/middleware"
	"blogium/utils"
)

// getUserID extracts the authenticated user ID placed by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// currentUsername returns the authenticated username from the request context.
func currentUsername(ctx *gin.Context) string {
	value, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return ""
	}
	name, _ := value.(string)
	return name
}

// ownerGate is the authorization gate for mutations on owned entities. It
// requires an authenticated identity and that identity to equal the entity
// owner. It writes the error response itself and reports whether the mutation
// may proceed. Applied identically to posts and comments.
func ownerGate(ctx *gin.Context, ownerID uint) bool {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return false
	}
	if ownerID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "only the author may modify this")
		return false
	}
	return true
}
