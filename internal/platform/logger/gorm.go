package logger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's SQL tracing through the application logger.
type GormLogger struct {
	log           *Logger
	level         gormLogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log *Logger, level gormLogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{log: log.With("component", "gorm"), level: level, slowThreshold: slowThreshold}
}

func (g *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Info {
		g.log.Info(msg, "args", args)
	}
}

func (g *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Warn {
		g.log.Warn(msg, "args", args)
	}
}

func (g *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Error {
		g.log.Error(msg, "args", args)
	}
}

func (g *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.log.Error("sql error", "error", err, "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormLogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow sql", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	case g.level >= gormLogger.Info:
		sql, rows := fc()
		g.log.Debug("sql", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	}
}
