// Package logger provides the logging utilities for userload.
// Diagnostic output goes through leveled package functions that wrap the standard `log` package
// and filter messages by level. Run statistics go to a separate append-mode file, see StatisticsLog.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevel is a type representing the logging level.
type LogLevel int

const (
	// LevelDebug is the log level used for detailed debugging information.
	LevelDebug LogLevel = iota
	// LevelInfo is the log level used for general informational messages.
	LevelInfo
	// LevelWarn is the log level used for potential issues or warning messages.
	LevelWarn
	// LevelError is the log level used for error messages.
	LevelError
	// LevelFatal is the log level used for fatal error messages that cause application termination.
	LevelFatal
)

// logLevel is the currently set global log level. Only messages at or above this level are written.
var logLevel = LevelInfo

// SetLogLevel sets the global log level.
// Valid string values are "DEBUG", "INFO", "WARN", "ERROR", "FATAL" (case-insensitive).
// If an invalid value is specified, the default "INFO" level is used and a warning is logged.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "INFO":
		logLevel = LevelInfo
	case "WARN":
		logLevel = LevelWarn
	case "ERROR":
		logLevel = LevelError
	case "FATAL":
		logLevel = LevelFatal
	case "DEBUG":
		logLevel = LevelDebug
	default:
		logLevel = LevelInfo
		log.Printf("[WARN] Unknown log level '%s' specified. Defaulting to INFO level.", level)
	}
}

// GetLogLevel returns the current global log level.
func GetLogLevel() LogLevel {
	return logLevel
}

// SetOutput redirects diagnostic output. The default is stderr.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debugf formats and outputs a DEBUG level log message.
// It is only output if the current log level is DEBUG.
func Debugf(format string, v ...interface{}) {
	if logLevel <= LevelDebug {
		log.Printf("[DEBUG] "+format, v...)
	}
}

// Infof formats and outputs an INFO level log message.
// It is only output if the current log level is INFO or lower.
func Infof(format string, v ...interface{}) {
	if logLevel <= LevelInfo {
		log.Printf("[INFO] "+format, v...)
	}
}

// Warnf formats and outputs a WARN level log message.
// It is only output if the current log level is WARN or lower.
func Warnf(format string, v ...interface{}) {
	if logLevel <= LevelWarn {
		log.Printf("[WARN] "+format, v...)
	}
}

// Errorf formats and outputs an ERROR level log message.
// It is only output if the current log level is ERROR or lower.
func Errorf(format string, v ...interface{}) {
	if logLevel <= LevelError {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Fatalf formats and outputs a FATAL level log message,
// then terminates the program by calling os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.Fatalf("[FATAL] "+format, v...)
}

// Labels written in front of each statistics line.
const (
	ReceivedLabel   = "Received: "
	SuccessfulLabel = "Successful: "
	FailedLabel     = "Failed: "
)

// StatisticsLog is an append-mode log that receives the three counters of a run.
type StatisticsLog struct {
	out    *log.Logger
	closer io.Closer
	once   sync.Once
}

// NewStatisticsLog wraps w. If w is also an io.Closer it is closed by Close.
func NewStatisticsLog(w io.Writer) *StatisticsLog {
	s := &StatisticsLog{out: log.New(w, "", log.LstdFlags)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenStatisticsLog opens path in append mode, creating it and its parent directory if needed.
func OpenStatisticsLog(path string) (*StatisticsLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create statistics log directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open statistics log %s: %w", path, err)
	}
	return NewStatisticsLog(f), nil
}

// WriteCounts writes exactly three lines: received, accepted and rejected.
func (s *StatisticsLog) WriteCounts(received, accepted, rejected int) error {
	for _, line := range []string{
		fmt.Sprintf("INFO: %s%d", ReceivedLabel, received),
		fmt.Sprintf("INFO: %s%d", SuccessfulLabel, accepted),
		fmt.Sprintf("INFO: %s%d", FailedLabel, rejected),
	} {
		if err := s.out.Output(2, line); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying file. Calling Close more than once is safe.
func (s *StatisticsLog) Close() error {
	var err error
	s.once.Do(func() {
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}
