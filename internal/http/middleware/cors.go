package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the given origins, or the local dev origins when none are set.
// A single "*" allows any origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-Id", "X-Trace-Id"},
		ExposeHeaders: []string{"X-Request-Id", "X-Trace-Id"},
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cors.New(cfg)
}
