package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tej1010/spongier-backend-sub001/internal/data/db"
	apphttp "github.com/tej1010/spongier-backend-sub001/internal/http"
	"github.com/tej1010/spongier-backend-sub001/internal/observability"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime/bus"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Bus      bus.Bus

	pg           *db.PostgresService
	server       *apphttp.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// Options tweak New for commands that do not serve traffic.
type Options struct {
	SkipMigrate bool
}

func New(opts Options) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.Info("Loaded configuration", "port", cfg.Port, "db_driver", cfg.DB.Driver, "stats_timezone", cfg.StatsLocation.String())

	// Tracing goes up before anything that may open spans.
	otelShutdown := observability.InitOTel(context.Background(), log, cfg.Otel)

	pg, err := db.NewPostgresService(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if !opts.SkipMigrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := pg.DB()

	notifications, err := bus.New(log, cfg.Redis)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("init notification bus: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, notifications)
	if err != nil {
		_ = notifications.Close()
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Bus:          notifications,
		pg:           pg,
		server:       apphttp.NewServer(router),
		otelShutdown: otelShutdown,
	}, nil
}

// Migrate runs the schema migration on its own.
func (a *App) Migrate() error {
	if a == nil || a.pg == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.pg.AutoMigrateAll()
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.Dispatcher != nil {
		a.Services.Dispatcher.Start(ctx)
	}
	if a.Bus != nil {
		log := a.Log.With("component", "NotificationForwarder")
		if err := a.Bus.StartForwarder(ctx, func(m realtime.Notification) {
			log.Debug("notification delivered", "user_id", m.Channel, "event", string(m.Event))
		}); err != nil {
			a.Log.Warn("notification forwarder not started", "error", err)
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Addr())
	return a.server.Run(a.Cfg.Addr())
}

// Close stops intake first, then drains queued side effects, then releases
// the bus, tracer and database in that order.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.Services.Dispatcher != nil {
		if err := a.Services.Dispatcher.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bus close: %w", err))
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
