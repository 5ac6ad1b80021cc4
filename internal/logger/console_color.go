package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/mpcdata/internal/models"
)

// colorScheme defines consistent colors for summary figures.
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

func levelColor(level string) *color.Color {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case models.StatusOK:
		return color.New(color.FgGreen)
	case models.StatusPartial:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// formatColorizedSummary renders the count lines of a summary. Zero failure
// counts stay uncolored so a clean run reads green.
func formatColorizedSummary(ts string, s models.RunSummary) string {
	scheme := newColorScheme()

	counts := []string{
		fmt.Sprintf("ok: %s", scheme.success.Sprint(s.Succeeded)),
		fmt.Sprintf("partial: %s", colorIfNonZero(s.Partial, scheme.warn, scheme.value)),
		fmt.Sprintf("failed: %s", colorIfNonZero(s.Failed, scheme.fail, scheme.value)),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %d (%s)\n", ts, scheme.label.Sprint("Files"), s.Files, strings.Join(counts, ", "))
	fmt.Fprintf(&b, "[%s] %s: %s\n", ts, scheme.label.Sprint("Sessions"), scheme.value.Sprint(s.Sessions))
	fmt.Fprintf(&b, "[%s] %s: %s\n", ts, scheme.label.Sprint("Outputs"), scheme.value.Sprint(s.Outputs))
	return b.String()
}

func colorIfNonZero(n int, hot, cold *color.Color) string {
	if n > 0 {
		return hot.Sprint(n)
	}
	return cold.Sprint(n)
}
