package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/p", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name        string
		reqID       string
		traceID     string
		wantReqID   string
		wantTraceID string
	}{
		{"propagates caller ids", "req-1", "trace-1", "req-1", "trace-1"},
		{"generates when absent", "", "", "", ""},
		{"rejects oversized", strings.Repeat("a", maxInboundIDLen+1), "", "", ""},
		{"rejects control chars", "abc\tdef", "x y", "", ""},
	}
	for _, tc := range tests {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if tc.reqID != "" {
			req.Header.Set(headerRequestID, tc.reqID)
		}
		if tc.traceID != "" {
			req.Header.Set(headerTraceID, tc.traceID)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if seen == nil {
			t.Fatalf("%s: no trace data in context", tc.name)
		}
		if tc.wantReqID != "" && seen.RequestID != tc.wantReqID {
			t.Fatalf("%s: request id %q want %q", tc.name, seen.RequestID, tc.wantReqID)
		}
		if tc.wantReqID == "" {
			if _, err := uuid.Parse(seen.RequestID); err != nil {
				t.Fatalf("%s: request id %q not generated", tc.name, seen.RequestID)
			}
		}
		if tc.wantTraceID != "" && seen.TraceID != tc.wantTraceID {
			t.Fatalf("%s: trace id %q want %q", tc.name, seen.TraceID, tc.wantTraceID)
		}
		if tc.wantTraceID == "" {
			if _, err := uuid.Parse(seen.TraceID); err != nil {
				t.Fatalf("%s: trace id %q not generated", tc.name, seen.TraceID)
			}
		}
		if got := rec.Header().Get(headerRequestID); got != seen.RequestID {
			t.Fatalf("%s: response request id %q want %q", tc.name, got, seen.RequestID)
		}
		if got := rec.Header().Get(headerTraceID); got != seen.TraceID {
			t.Fatalf("%s: response trace id %q want %q", tc.name, got, seen.TraceID)
		}
	}
}
