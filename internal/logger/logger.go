// Package logger provides the leveled loggers used by the mpcdata commands.
//
// Every implementation is safe for concurrent use. ConsoleLogger writes to a
// terminal or any io.Writer, FileLogger keeps one log file per run, and
// MultiLogger fans out to several loggers.
package logger

import (
	"strings"
	"time"

	"github.com/harrison/mpcdata/internal/models"
)

// Logger is the logging surface used by commands and the watcher
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	// LogFileResult reports the outcome of one data file
	LogFileResult(result models.FileResult)
	// LogSummary reports the totals of a run
	LogSummary(summary models.RunSummary)
}

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ValidLevels lists the accepted level names, most verbose first
var ValidLevels = []string{"trace", "debug", "info", "warn", "error"}

// normalizeLogLevel lowercases level and falls back to "info" when it is
// empty or unknown
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for _, l := range ValidLevels {
		if l == normalized {
			return normalized
		}
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// enabled reports whether a message at messageLevel passes configured
func enabled(configured, messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(configured)
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration renders short durations in ms and longer ones in seconds
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (NoOpLogger) LogTrace(string) {}
func (NoOpLogger) LogDebug(string) {}
func (NoOpLogger) LogInfo(string) {}
func (NoOpLogger) LogWarn(string) {}
func (NoOpLogger) LogError(string) {}
func (NoOpLogger) LogFileResult(models.FileResult) {}
func (NoOpLogger) LogSummary(models.RunSummary) {}

// MultiLogger forwards every call to each of its loggers in order
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers; nil entries are skipped
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogFileResult(result models.FileResult) {
	for _, l := range m.loggers {
		l.LogFileResult(result)
	}
}

func (m *MultiLogger) LogSummary(summary models.RunSummary) {
	for _, l := range m.loggers {
		l.LogSummary(summary)
	}
}
