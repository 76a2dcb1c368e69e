package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/ctxutil"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	am := NewAuthMiddleware(log, services.NewAuthService(log, "secret"))

	var seen uuid.UUID
	r := gin.New()
	r.GET("/p", am.RequireAuth(), func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			seen = rd.UserID
		}
		c.Status(http.StatusNoContent)
	})

	sign := func(key string, sub string, exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, services.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)},
		}).SignedString([]byte(key))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return tok
	}
	user := uuid.New()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer " + sign("other", user.String(), time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + sign("secret", user.String(), time.Now().Add(-time.Minute)), http.StatusUnauthorized},
		{"bad subject", "Bearer " + sign("secret", "alice", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"valid", "bearer " + sign("secret", user.String(), time.Now().Add(time.Hour)), http.StatusNoContent},
	}
	for _, tc := range tests {
		seen = uuid.Nil
		req := httptest.NewRequest(http.MethodGet, "/p", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%s: status %d want %d", tc.name, rec.Code, tc.want)
		}
		if tc.want == http.StatusNoContent && seen != user {
			t.Fatalf("%s: request data user %s want %s", tc.name, seen, user)
		}
		if tc.want != http.StatusNoContent && seen != uuid.Nil {
			t.Fatalf("%s: handler ran for rejected request", tc.name)
		}
	}
}
