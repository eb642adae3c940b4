package debuglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       = zerolog.Nop()
	logFile      *os.File
)

// DefaultPath is where the log goes when Setup gets no explicit path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cntry", "cntry.log")
}

// Setup configures the logging system with the specified level and optional file path.
// If filePath is empty, defaults to ~/.cntry/cntry.log.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	if level == LevelOff {
		logger = zerolog.Nop()
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logFile = f
	logger = newLogger(f, level)
	return nil
}

// SetupWriter logs to w instead of a file. Used by tests and the CLI's
// --debug flag.
func SetupWriter(level LogLevel, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	currentLevel = level
	if level == LevelOff {
		logger = zerolog.Nop()
		return
	}
	logger = newLogger(w, level)
}

func newLogger(w io.Writer, level LogLevel) zerolog.Logger {
	return zerolog.New(w).
		Level(level.zerolog()).
		With().
		Timestamp().
		Str("app", "cntry").
		Logger()
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	logger = logger.Level(level.zerolog())
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	logger = zerolog.Nop()
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func event(level LogLevel) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	if level < currentLevel {
		return nil
	}
	switch level {
	case LevelDebug:
		return logger.Debug()
	case LevelInfo:
		return logger.Info()
	case LevelWarn:
		return logger.Warn()
	default:
		return logger.Error()
	}
}

func logf(level LogLevel, fields map[string]interface{}, format string, args ...any) {
	e := event(level)
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, nil, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, nil, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, nil, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, nil, format, args...)
}

// FieldLogger attaches key-value fields to every message.
type FieldLogger struct {
	fields map[string]interface{}
}

// WithFields returns a new logger with the specified fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{fields: fields}
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	logf(LevelDebug, fl.fields, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	logf(LevelInfo, fl.fields, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	logf(LevelWarn, fl.fields, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	logf(LevelError, fl.fields, format, args...)
}
