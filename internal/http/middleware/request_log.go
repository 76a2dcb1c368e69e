package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

// quietRoutes are logged at debug level when they succeed.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
}

// RequestLogger writes one line per request once the handler chain is done.
// Level follows the status class. Watch requests also carry the video id so a
// user's progress writes can be followed through the log.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		ctx := c.Request.Context()

		fields := append([]interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}, ctxutil.LogFields(ctx)...)
		if rd := ctxutil.GetRequestData(ctx); rd != nil && rd.UserID != uuid.Nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if child := c.Param("childUserId"); child != "" {
			fields = append(fields, "child_user_id", child)
		}
		if vid, ok := c.Get(VideoIDKey); ok {
			fields = append(fields, "video_id", vid)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case quietRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// VideoIDKey is the gin context key handlers set to the video a request acts on.
const VideoIDKey = "video_id"
