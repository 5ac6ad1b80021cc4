package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/harrison/mpcdata/internal/models"
)

// arrayPreview is how many leading values of an array the session text shows
const arrayPreview = 8

// Table is a plain column-aligned text table
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty, extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the table with columns padded to their widest cell. The
// header is bold on a terminal.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	colored := ColorEnabled(w)
	fmt.Fprintln(w, paint(colored, formatRow(t.headers, widths), color.Bold))
	for _, row := range t.rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			parts[i] = cell
			continue
		}
		parts[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// WriteSession prints one session as readable text: the header fields, the
// scalar variables and a short preview of every array.
func WriteSession(w io.Writer, n int, s *models.Session) {
	colored := ColorEnabled(w)

	title := fmt.Sprintf("Session %d", n)
	if s.Subject != "" {
		title += ": " + s.Subject
	}
	fmt.Fprintln(w, paint(colored, title, color.Bold, color.FgCyan))

	header := NewTable("Field", "Value")
	for _, f := range s.HeaderFields() {
		header.AddRow(f.Label, f.Value)
	}
	header.Render(w)

	if names := s.ScalarNames(); len(names) > 0 {
		fmt.Fprintln(w)
		scalars := NewTable("Scalar", "Value")
		for _, name := range names {
			scalars.AddRow(name, FormatValue(s.ScalarVars[name]))
		}
		scalars.Render(w)
	}

	if names := s.ArrayNames(); len(names) > 0 {
		fmt.Fprintln(w)
		arrays := NewTable("Array", "Length", "Values")
		for _, name := range names {
			values := s.ArrayVars[name]
			arrays.AddRow(name, strconv.Itoa(len(values)), previewValues(values))
		}
		arrays.Render(w)
	}

	for _, issue := range s.Issues {
		fmt.Fprintln(w, paint(colored, "issue: "+issue.Error(), color.FgYellow))
	}
}

// FormatValue renders a number with the fewest digits that round-trip
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func previewValues(values []float64) string {
	n := len(values)
	if n > arrayPreview {
		n = arrayPreview
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = FormatValue(values[i])
	}
	out := strings.Join(parts, " ")
	if len(values) > arrayPreview {
		out += " ..."
	}
	return out
}
