package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/harrison/mpcdata/internal/models"
)

// CSVExporter writes the arrays table of one session: a row of names, then
// one row per index. Cells past the end of a shorter array are empty.
type CSVExporter struct{}

// Extension returns "csv"
func (ce *CSVExporter) Extension() string { return FormatCSV }

// PerSession returns true
func (ce *CSVExporter) PerSession() bool { return true }

// Export writes the arrays table
func (ce *CSVExporter) Export(w io.Writer, sessions []*models.Session) error {
	s, err := requireOne(sessions)
	if err != nil {
		return err
	}

	names, rows := arrayColumns(s)
	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(names))
	for i := 0; i < rows; i++ {
		for j, name := range names {
			values := s.ArrayVars[name]
			if i < len(values) {
				record[j] = strconv.FormatFloat(values[i], 'f', -1, 64)
			} else {
				record[j] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
