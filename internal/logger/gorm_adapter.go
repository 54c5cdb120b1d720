package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// GormLoggerAdapter adapts Logger to GORM's logger.Interface.
// Statements are logged at TRACE so they only appear when the datastore
// module runs at "trace". Slow statements and failures are logged at WARN.
type GormLoggerAdapter struct {
	logger        Logger
	slowThreshold time.Duration
}

// NewGormLoggerAdapter creates a new GORM logger adapter. A zero
// slowThreshold disables slow statement warnings.
func NewGormLoggerAdapter(log Logger, slowThreshold time.Duration) *GormLoggerAdapter {
	if log == nil {
		log = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &GormLoggerAdapter{
		logger:        log,
		slowThreshold: slowThreshold,
	}
}

// LogMode returns the adapter itself; levels come from the logging config.
func (a *GormLoggerAdapter) LogMode(_ gorm_logger.LogLevel) gorm_logger.Interface {
	return a
}

func (a *GormLoggerAdapter) Info(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Debug(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Warn(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Warn(fmt.Sprintf(msg, data...))
}

func (a *GormLoggerAdapter) Error(ctx context.Context, msg string, data ...any) {
	a.logger.WithContext(ctx).Error(fmt.Sprintf(msg, data...))
}

// Trace logs one executed statement. Record-not-found and duplicate key
// results are expected by the tag registry and stay at TRACE.
func (a *GormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	log := a.logger.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		log.Warn("query error",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed),
			Error(err))

	case a.slowThreshold > 0 && elapsed > a.slowThreshold:
		log.Warn("slow query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed),
			Duration("threshold", a.slowThreshold))

	default:
		log.Trace("sql query",
			String("sql", sql),
			Int64("rows_affected", rows),
			Duration("elapsed", elapsed))
	}
}
