package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/mpcdata/internal/models"
)

// MarkdownExporter writes a human-readable report of all sessions
type MarkdownExporter struct {
	IncludeTimestamp bool // include generation time under the title

	now func() time.Time
}

// Extension returns "md"
func (me *MarkdownExporter) Extension() string { return "md" }

// PerSession returns false
func (me *MarkdownExporter) PerSession() bool { return false }

// Export writes the Markdown report
func (me *MarkdownExporter) Export(w io.Writer, sessions []*models.Session) error {
	report, err := me.render(sessions)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, report)
	return err
}

func (me *MarkdownExporter) render(sessions []*models.Session) (string, error) {
	var sb strings.Builder

	sb.WriteString("# MED-PC Session Report\n\n")
	if me.IncludeTimestamp {
		now := time.Now
		if me.now != nil {
			now = me.now
		}
		sb.WriteString(fmt.Sprintf("**Generated**: %s\n\n", now().Format("2006-01-02 15:04:05")))
	}
	sb.WriteString(fmt.Sprintf("**Sessions**: %d\n\n", len(sessions)))

	for i, s := range sessions {
		if s == nil {
			return "", fmt.Errorf("session %d is nil", i)
		}
		writeSessionSection(&sb, i+1, s)
	}

	return sb.String(), nil
}

func writeSessionSection(sb *strings.Builder, n int, s *models.Session) {
	title := fmt.Sprintf("Session %d", n)
	if s.Subject != "" {
		title += ": " + escapeCell(s.Subject)
	}
	if box := s.Box.String(); box != "" {
		title += " (Box " + escapeCell(box) + ")"
	}
	sb.WriteString("## " + title + "\n\n")

	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	for _, field := range s.HeaderFields() {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", field.Label, escapeCell(field.Value)))
	}
	sb.WriteString("\n")

	if names := s.ScalarNames(); len(names) > 0 {
		sb.WriteString("### Scalar Variables\n\n")
		sb.WriteString("| Name | Value |\n")
		sb.WriteString("|------|-------|\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", name, formatNumber(s.ScalarVars[name])))
		}
		sb.WriteString("\n")
	}

	if names := s.ArrayNames(); len(names) > 0 {
		sb.WriteString("### Array Variables\n\n")
		sb.WriteString("| Name | Length |\n")
		sb.WriteString("|------|--------|\n")
		for _, name := range names {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", name, len(s.ArrayVars[name])))
		}
		sb.WriteString("\n")
	}

	if len(s.Issues) > 0 {
		sb.WriteString("### Issues\n\n")
		for _, issue := range s.Issues {
			sb.WriteString(fmt.Sprintf("- %s\n", escapeCell(issue.Error())))
		}
		sb.WriteString("\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HTMLExporter renders the Markdown report to an HTML page with goldmark
type HTMLExporter struct {
	Markdown MarkdownExporter
}

// Extension returns "html"
func (he *HTMLExporter) Extension() string { return FormatHTML }

// PerSession returns false
func (he *HTMLExporter) PerSession() bool { return false }

// Export writes the HTML report
func (he *HTMLExporter) Export(w io.Writer, sessions []*models.Session) error {
	report, err := he.Markdown.render(sessions)
	if err != nil {
		return err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert([]byte(report), &body); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString("<title>MED-PC Session Report</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	_, err = w.Write(page.Bytes())
	return err
}
