package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apphttp "github.com/tej1010/spongier-backend-sub001/internal/http"
	httpH "github.com/tej1010/spongier-backend-sub001/internal/http/handlers"
	httpMW "github.com/tej1010/spongier-backend-sub001/internal/http/middleware"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Watch      *httpH.WatchHandler
	Statistics *httpH.StatisticsHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Watch:      httpH.NewWatchHandler(log, services.Progress, services.Statistics),
		Statistics: httpH.NewStatisticsHandler(log, services.Statistics),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		WatchHandler:      handlers.Watch,
		StatisticsHandler: handlers.Statistics,
		HealthHandler:     handlers.Health,
	})
}
