package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

func (c Config) postgresDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	ssl := c.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		ssl,
	)
}

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewPostgresService opens the configured database. The name is kept from the
// Postgres-only days; DB_DRIVER=sqlite opens a local file for development.
func NewPostgresService(logg *logger.Logger, cfg Config) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	slow := cfg.SlowThreshold
	if slow <= 0 {
		slow = time.Second
	}
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.NewGormLogger(logg, gormLogger.Warn, slow),
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "spongier.db"
		}
		dialector = sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000")
	case "", DriverPostgres:
		dialector = postgres.Open(cfg.postgresDSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("Connecting to database...", "driver", dialector.Name())
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
