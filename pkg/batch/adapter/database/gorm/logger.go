package gorm

import (
	"fmt"
	"strings"
	"time"

	gorm_logger "gorm.io/gorm/logger"

	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// NewGormLogger creates a gorm logger whose verbosity follows the application log level.
// SQL statements are only traced when the application runs at DEBUG.
func NewGormLogger(level logger.LogLevel) gorm_logger.Interface {
	var gormLevel gorm_logger.LogLevel
	switch level {
	case logger.LevelDebug:
		gormLevel = gorm_logger.Info
	case logger.LevelInfo, logger.LevelWarn:
		gormLevel = gorm_logger.Warn
	case logger.LevelError:
		gormLevel = gorm_logger.Error
	default:
		gormLevel = gorm_logger.Silent
	}

	return gorm_logger.New(
		NewGormWriter(),
		gorm_logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GormWriter redirects gorm log output to the application logger.
type GormWriter struct{}

// NewGormWriter creates a new instance of GormWriter.
func NewGormWriter() *GormWriter {
	return &GormWriter{}
}

// statementTraceFormat is the format gorm uses for plain (non-slow, non-error) statement traces.
const statementTraceFormat = "%s\n[%.3fms] [rows:%v] %s"

// Printf implements gorm_logger.Writer.
// Statement traces are logged at DEBUG, anything else (slow queries, errors) at WARN.
func (w *GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	if format == statementTraceFormat {
		logger.Debugf("[GORM] %s", msg)
		return
	}
	logger.Warnf("[GORM] %s", msg)
}
