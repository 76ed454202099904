package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger provides a unified logging interface with structured key-value pairs
type Logger struct {
	entry *logrus.Entry
}

var (
	base        = logrus.New()
	defaultLog  = &Logger{entry: logrus.NewEntry(base)}
	logFile     *os.File
	initialized bool
)

// Init initializes the default logger. Level is one of debug, info, warn,
// error, fatal. When logPath is non-empty, output goes to that file; the
// file is truncated unless preserve is set.
func Init(level, logPath string, preserve bool) error {
	if initialized {
		return nil
	}

	base.SetLevel(parseLevel(level))
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
		if !preserve {
			flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		}

		file, err := os.OpenFile(logPath, flags, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		logFile = file
		base.SetOutput(file)
	} else {
		base.SetOutput(os.Stderr)
	}

	initialized = true
	return nil
}

// WithComponent returns a logger tagged with a component name
func WithComponent(name string) *Logger {
	return &Logger{entry: base.WithField("component", name)}
}

// Close closes the log file if one is open
func Close() error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

// SetOutput sets the output writer for the logger (useful for testing)
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func parseLevel(levelStr string) logrus.Level {
	switch levelStr {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// fields pairs up variadic key-value arguments into logrus fields.
// A trailing key without a value is logged under "arg".
func fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		f[key] = keysAndValues[i+1]
	}
	if len(keysAndValues)%2 != 0 {
		f["arg"] = keysAndValues[len(keysAndValues)-1]
	}
	return f
}

// Debug logs a debug message with optional key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

// Info logs an info message with optional key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Info(msg)
}

// Warn logs a warning message with optional key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Warn(msg)
}

// Error logs an error message with optional key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Error(msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Fatal(msg)
}

// Package-level convenience functions using the default logger

func Debug(msg string, keysAndValues ...interface{}) {
	defaultLog.Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...interface{}) {
	defaultLog.Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	defaultLog.Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...interface{}) {
	defaultLog.Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	defaultLog.Fatal(msg, keysAndValues...)
}
