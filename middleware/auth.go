package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"blogium/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"

	// LoginPath is where unauthenticated clients are sent. The original
	// request path is preserved in the next parameter.
	LoginPath = "/login"
)

// loginRedirect builds the login target carrying the return path.
func loginRedirect(ctx *gin.Context) gin.H {
	next := ctx.Request.URL.RequestURI()
	return gin.H{"login": LoginPath + "?next=" + url.QueryEscape(next)}
}

// AuthRequired ensures the request is authenticated via JWT. Failures answer
// 401 with a login redirect target so clients can resume after signing in.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorData(ctx, http.StatusUnauthorized, 40101, "authorization header missing", loginRedirect(ctx))
			ctx.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.ErrorData(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format", loginRedirect(ctx))
			ctx.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.ErrorData(ctx, http.StatusUnauthorized, 40103, "empty bearer token", loginRedirect(ctx))
			ctx.Abort()
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.ErrorData(ctx, http.StatusUnauthorized, 40104, "token revoked", loginRedirect(ctx))
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.ErrorData(ctx, http.StatusUnauthorized, 40105, "invalid token", loginRedirect(ctx))
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}
