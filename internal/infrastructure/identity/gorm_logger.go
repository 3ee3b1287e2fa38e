package identity

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger forwards gorm diagnostics to logrus. Statements are logged with their
// placeholders only; broker rows carry password hashes.
type GormLogger struct {
	entry              *logrus.Entry
	level              gormlogger.LogLevel
	slowQueryThreshold time.Duration
}

var (
	_ gormlogger.Interface = (*GormLogger)(nil)
	_ gorm.ParamsFilter    = (*GormLogger)(nil)
)

func NewGormLogger(logger *logrus.Logger, slowQueryThreshold time.Duration) *GormLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GormLogger{
		entry:              logger.WithField("component", "gorm"),
		level:              gormlogger.Warn,
		slowQueryThreshold: slowQueryThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// ParamsFilter drops bound values before gorm renders the statement for Trace.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.entry.WithContext(ctx).Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.entry.WithContext(ctx).Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.entry.WithContext(ctx).Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.entry.WithContext(ctx).WithFields(logrus.Fields{
		"duration": elapsed,
		"rows":     rows,
		"sql":      sql,
	})
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithError(err).Error("sql execution failed")
	case l.slowQueryThreshold > 0 && elapsed > l.slowQueryThreshold && l.level >= gormlogger.Warn:
		entry.Warn("slow query detected")
	case l.level >= gormlogger.Info:
		entry.Debug("sql executed")
	}
}
