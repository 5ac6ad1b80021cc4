package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/mpcdata/internal/models"
)

// ConsoleLogger logs to a writer with [HH:MM:SS] timestamps.
// Color output is enabled only for os.Stdout/os.Stderr attached to a TTY.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger writing to writer. A nil writer
// discards messages. An empty or unknown logLevel means "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is the process stdout or stderr and a TTY.
// NO_COLOR disables color through fatih/color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Level returns the normalized log level
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !enabled(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	lvl := level
	if cl.colorOutput {
		lvl = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), lvl, message)
}

// LogFileResult logs one processed file at INFO level, or WARN/ERROR when
// the file was only partly processed or failed.
// Format: "[HH:MM:SS] <status> <path>: <n> sessions -> <m> files (<duration>)"
func (cl *ConsoleLogger) LogFileResult(result models.FileResult) {
	level := "info"
	switch result.Status {
	case models.StatusPartial:
		level = "warn"
	case models.StatusFailed:
		level = "error"
	}
	if cl.writer == nil || !enabled(cl.logLevel, level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	status := result.Status
	if cl.colorOutput {
		status = statusColor(result.Status).Sprint(result.Status)
	}

	line := fmt.Sprintf("[%s] %s %s: %s", timestamp(), status, result.Path, sessionCount(result.Sessions))
	if len(result.Outputs) > 0 {
		line += fmt.Sprintf(" -> %d %s", len(result.Outputs), plural(len(result.Outputs), "file", "files"))
	}
	if result.Issues > 0 {
		line += fmt.Sprintf(", %d %s", result.Issues, plural(result.Issues, "issue", "issues"))
	}
	line += fmt.Sprintf(" (%s)\n", formatDuration(result.Duration))
	if result.Error != nil {
		for _, msg := range strings.Split(result.Error.Error(), "\n") {
			line += fmt.Sprintf("[%s]     %s\n", timestamp(), msg)
		}
	}
	io.WriteString(cl.writer, line)
}

// LogSummary logs the totals of a run at INFO level.
func (cl *ConsoleLogger) LogSummary(summary models.RunSummary) {
	if cl.writer == nil || !enabled(cl.logLevel, "info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] === Summary ===\n", ts)
	if cl.colorOutput {
		b.WriteString(formatColorizedSummary(ts, summary))
	} else {
		fmt.Fprintf(&b, "[%s] Files: %d (ok: %d, partial: %d, failed: %d)\n",
			ts, summary.Files, summary.Succeeded, summary.Partial, summary.Failed)
		fmt.Fprintf(&b, "[%s] Sessions: %d\n", ts, summary.Sessions)
		fmt.Fprintf(&b, "[%s] Outputs: %d\n", ts, summary.Outputs)
	}
	fmt.Fprintf(&b, "[%s] Duration: %s\n", ts, formatDuration(summary.Duration))

	for _, failed := range summary.FailedFiles {
		fmt.Fprintf(&b, "[%s]   %s %s\n", ts, failed.Status, failed.Path)
	}
	io.WriteString(cl.writer, b.String())
}

func sessionCount(n int) string {
	return fmt.Sprintf("%d %s", n, plural(n, "session", "sessions"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
