package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/harrison/mpcdata/internal/models"
)

// Worksheet names of an exported workbook
const (
	SheetHeader = "Header"
	SheetScalar = "ScalarVariables"
	SheetArray  = "ArrayVariables"
)

// XLSXExporter writes one session as a workbook with three sheets:
// Header (label/value rows), ScalarVariables (name/value rows) and
// ArrayVariables (one array per column, name in the first row).
type XLSXExporter struct{}

// Extension returns "xlsx"
func (xe *XLSXExporter) Extension() string { return FormatXLSX }

// PerSession returns true
func (xe *XLSXExporter) PerSession() bool { return true }

// Export writes the workbook for the single session in sessions
func (xe *XLSXExporter) Export(w io.Writer, sessions []*models.Session) error {
	s, err := requireOne(sessions)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetHeader); err != nil {
		return fmt.Errorf("failed to name header sheet: %w", err)
	}
	for _, name := range []string{SheetScalar, SheetArray} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	if err := writeHeaderSheet(f, s); err != nil {
		return err
	}
	if err := writeScalarSheet(f, s); err != nil {
		return err
	}
	if err := writeArraySheet(f, s); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeaderSheet(f *excelize.File, s *models.Session) error {
	for i, field := range s.HeaderFields() {
		if err := setRow(f, SheetHeader, i+1, field.Label, field.Value); err != nil {
			return err
		}
	}
	return nil
}

func writeScalarSheet(f *excelize.File, s *models.Session) error {
	for i, name := range s.ScalarNames() {
		if err := setRow(f, SheetScalar, i+1, name, s.ScalarVars[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeArraySheet(f *excelize.File, s *models.Session) error {
	names, _ := arrayColumns(s)
	for i, name := range names {
		values := s.ArrayVars[name]
		col := make([]interface{}, 0, len(values)+1)
		col = append(col, name)
		for _, v := range values {
			col = append(col, v)
		}

		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetSheetCol(SheetArray, cell, &col); err != nil {
			return fmt.Errorf("failed to write array %s: %w", name, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
