package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxInboundIDLen = 128
)

// inboundID returns a caller-supplied correlation id, or "" when it is absent,
// oversized or contains anything beyond visible ASCII.
func inboundID(c *gin.Context, header string) string {
	v := strings.TrimSpace(c.GetHeader(header))
	if v == "" || len(v) > maxInboundIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}

// AttachTraceContext must run after otelgin so an active span's trace id
// wins over a caller-supplied or generated one.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		td := &ctxutil.TraceData{RequestID: inboundID(c, headerRequestID)}
		if td.RequestID == "" {
			td.RequestID = uuid.NewString()
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		} else if td.TraceID = inboundID(c, headerTraceID); td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		h := c.Writer.Header()
		h.Set(headerTraceID, td.TraceID)
		h.Set(headerRequestID, td.RequestID)
		c.Next()
	}
}
