package app

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/tej1010/spongier-backend-sub001/internal/data/db"
	"github.com/tej1010/spongier-backend-sub001/internal/observability"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/envutil"
	"github.com/tej1010/spongier-backend-sub001/internal/realtime/bus"
	"github.com/tej1010/spongier-backend-sub001/internal/services"
)

type Config struct {
	Port         string
	LogMode      string
	JWTSecretKey string
	CORSOrigins  []string

	DB       db.Config
	Redis    bus.RedisConfig
	Dispatch services.DispatcherConfig
	Otel     observability.OtelConfig

	StatsLocation  *time.Location
	BadgeRulesPath string
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Port:         envutil.String("PORT", "8080"),
		LogMode:      envutil.String("LOG_MODE", "development"),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		CORSOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil),
		DB: db.Config{
			Driver:          envutil.String("DB_DRIVER", db.DriverPostgres),
			DSN:             envutil.String("DATABASE_URL", ""),
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", ""),
			Name:            envutil.String("POSTGRES_NAME", "spongier"),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:      envutil.String("SQLITE_PATH", "spongier.db"),
			MaxOpenConns:    envutil.Int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envutil.Int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envutil.Duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			SlowThreshold:   envutil.Duration("DB_SLOW_THRESHOLD", time.Second),
		},
		Redis: bus.RedisConfig{
			Addr:    envutil.String("REDIS_ADDR", ""),
			Channel: envutil.String("REDIS_CHANNEL", "spongier:notifications"),
		},
		Dispatch: services.DispatcherConfig{
			Workers:     envutil.Int("DISPATCH_WORKERS", 4),
			QueueSize:   envutil.Int("DISPATCH_QUEUE_SIZE", 256),
			TaskTimeout: envutil.Duration("DISPATCH_TASK_TIMEOUT", 10*time.Second),
		},
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "spongier-backend"),
			Environment: envutil.String("OTEL_ENVIRONMENT", ""),
			Version:     envutil.String("OTEL_SERVICE_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 1.0),
		},
		BadgeRulesPath: envutil.String("BADGE_RULES_PATH", ""),
	}

	if cfg.Otel.Environment == "" {
		cfg.Otel.Environment = cfg.LogMode
	}
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY is required")
	}

	tz := envutil.String("STATS_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("STATS_TIMEZONE %q: %w", tz, err)
	}
	cfg.StatsLocation = loc
	return cfg, nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
