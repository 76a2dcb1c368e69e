package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/tej1010/spongier-backend-sub001/internal/http/handlers"
	httpMW "github.com/tej1010/spongier-backend-sub001/internal/http/middleware"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	WatchHandler      *httpH.WatchHandler
	StatisticsHandler *httpH.StatisticsHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	httpH.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		video := protected.Group("/video")

		if cfg.WatchHandler != nil {
			video.POST("/watch", cfg.WatchHandler.RecordWatch)
			video.GET("/watch-history", cfg.WatchHandler.WatchHistory)
			video.GET("/my-learning", cfg.WatchHandler.MyLearning)
		}

		if cfg.StatisticsHandler != nil {
			video.GET("/watch-statistics", cfg.StatisticsHandler.WatchStatistics)
			video.GET("/watch-statistics/:childUserId", cfg.StatisticsHandler.WatchStatistics)
			video.GET("/weekly-progress", cfg.StatisticsHandler.WeeklyProgress)
			video.GET("/weekly-progress/:childUserId", cfg.StatisticsHandler.WeeklyProgress)
		}
	}

	return r
}
