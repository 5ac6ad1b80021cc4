// Package export writes parsed MED-PC sessions to spreadsheets and reports.
//
// Every format implements Exporter. Tabular formats (xlsx, csv) hold one
// session per file; report formats (json, markdown, html) hold every session
// of a source file.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/mpcdata/internal/models"
)

// Supported format names
const (
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists the accepted format names
var Formats = []string{FormatXLSX, FormatJSON, FormatCSV, FormatMarkdown, FormatHTML}

// Exporter serializes sessions to a writer
type Exporter interface {
	Export(w io.Writer, sessions []*models.Session) error
	// Extension is the file extension without the dot
	Extension() string
	// PerSession reports whether each file holds exactly one session
	PerSession() bool
}

// NewExporter returns the exporter for a format name.
// Format names are case-insensitive; "md" is accepted for markdown.
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatXLSX, "":
		return &XLSXExporter{}, nil
	case FormatJSON:
		return &JSONExporter{Pretty: true}, nil
	case FormatCSV:
		return &CSVExporter{}, nil
	case FormatMarkdown, "md":
		return &MarkdownExporter{}, nil
	case FormatHTML:
		return &HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (valid: %s)", format, strings.Join(Formats, ", "))
	}
}

func requireOne(sessions []*models.Session) (*models.Session, error) {
	if len(sessions) != 1 {
		return nil, fmt.Errorf("expected exactly one session, got %d", len(sessions))
	}
	if sessions[0] == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	return sessions[0], nil
}

// arrayColumns returns the array names in column order and the row count
// of the arrays table
func arrayColumns(s *models.Session) ([]string, int) {
	return s.ArrayNames(), s.MaxArrayLen()
}
