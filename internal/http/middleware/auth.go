package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/http/response"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, errInvalidToken)
			c.Abort()
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, errInvalidToken)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingToken = authError("missing bearer token")
	errInvalidToken = authError("invalid or expired token")
)

func extractBearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
