package testutil

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/tej1010/spongier-backend-sub001/internal/data/db"
	"github.com/tej1010/spongier-backend-sub001/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error

	sqliteSeq atomic.Int64
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns the shared Postgres database when TEST_POSTGRES_DSN is set and a
// fresh in-memory SQLite database otherwise.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		return sqliteDB(tb)
	}

	pgOnce.Do(func() {
		var err error
		pgDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			pgErr = err
			return
		}
		pgErr = appdb.AutoMigrateAll(pgDB)
	})
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pgDB
}

func sqliteDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", sqliteSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	// one connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := appdb.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
