package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/harrison/mpcdata/internal/filelock"
	"github.com/harrison/mpcdata/internal/models"
)

func sampleSession(subject string, box int) *models.Session {
	s := models.NewSession()
	s.StartDate = time.Date(2019, 1, 30, 0, 0, 0, 0, time.UTC)
	s.EndDate = s.StartDate
	s.StartTime = models.NewTimeOfDay(9, 15, 11)
	s.EndTime = models.NewTimeOfDay(10, 15, 13)
	s.StartDateTime = s.StartTime.On(s.StartDate)
	s.Subject = subject
	s.Experiment = "FR1"
	s.Group = "A"
	s.Box = models.NumericBox(box)
	s.MSN = "FR1_lever"
	s.ScalarVars["B"] = 3
	s.ScalarVars["A"] = 12.5
	s.ArrayVars["D"] = []float64{}
	s.ArrayVars["C"] = []float64{1, 2, 3}
	s.ArrayVars["E"] = []float64{0.5}
	return s
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{format: "xlsx", wantExt: "xlsx"},
		{format: "", wantExt: "xlsx"},
		{format: "JSON", wantExt: "json"},
		{format: "csv", wantExt: "csv"},
		{format: "md", wantExt: "md"},
		{format: "markdown", wantExt: "md"},
		{format: "html", wantExt: "html"},
		{format: "ods", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := NewExporter(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if exp.Extension() != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", exp.Extension(), tt.wantExt)
			}
		})
	}
}

func TestXLSXExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&XLSXExporter{}).Export(&buf, []*models.Session{sampleSession("rat12", 3)}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to read workbook back: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetHeader, SheetScalar, SheetArray}
	if strings.Join(sheets, ",") != strings.Join(want, ",") {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}

	header, err := f.GetRows(SheetHeader)
	if err != nil {
		t.Fatalf("GetRows(Header): %v", err)
	}
	if len(header) != len(models.HeaderLabels) {
		t.Fatalf("expected %d header rows, got %d", len(models.HeaderLabels), len(header))
	}
	for i, label := range []string{"Start Date", "End Date", "Start Time", "End Time", "Subject"} {
		if len(header[i]) == 0 || header[i][0] != label {
			t.Errorf("Header row %d = %v, want label %q", i+1, header[i], label)
		}
	}
	got := make(map[string]string)
	for _, row := range header {
		if len(row) == 2 {
			got[row[0]] = row[1]
		}
	}
	for label, value := range map[string]string{
		"Start Date": "01/30/2019",
		"Start Time": "09:15:11",
		"End Time":   "10:15:13",
		"Subject":    "rat12",
		"Box":        "3",
		"MSN":        "FR1_lever",
	} {
		if got[label] != value {
			t.Errorf("Header %s = %q, want %q", label, got[label], value)
		}
	}

	scalars, err := f.GetRows(SheetScalar)
	if err != nil {
		t.Fatalf("GetRows(ScalarVariables): %v", err)
	}
	if len(scalars) != 2 || scalars[0][0] != "A" || scalars[0][1] != "12.5" || scalars[1][0] != "B" || scalars[1][1] != "3" {
		t.Errorf("unexpected scalar rows: %v", scalars)
	}

	cols, err := f.GetCols(SheetArray)
	if err != nil {
		t.Fatalf("GetCols(ArrayVariables): %v", err)
	}
	if len(cols) != 3 {
		t.Fatalf("expected 3 array columns, got %d: %v", len(cols), cols)
	}
	if strings.Join(cols[0], ",") != "C,1,2,3" {
		t.Errorf("column C = %v", cols[0])
	}
	if cols[1][0] != "D" {
		t.Errorf("column D header = %v", cols[1])
	}
	if cols[2][0] != "E" || cols[2][1] != "0.5" {
		t.Errorf("column E = %v", cols[2])
	}
}

func TestXLSXExporter_RequiresOneSession(t *testing.T) {
	var buf bytes.Buffer
	err := (&XLSXExporter{}).Export(&buf, []*models.Session{sampleSession("a", 1), sampleSession("b", 2)})
	if err == nil {
		t.Fatal("expected error for two sessions in one workbook")
	}
}

func TestJSONExporter_Export(t *testing.T) {
	s := sampleSession("rat12", 3)
	s.Issues = []error{errors.New("start time before start date")}

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(&buf, []*models.Session{s}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var docs []SessionDocument
	if err := json.Unmarshal(buf.Bytes(), &docs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.Header["Subject"] != "rat12" || doc.Header["Start Date"] != "01/30/2019" {
		t.Errorf("unexpected header: %v", doc.Header)
	}
	if doc.StartedAt != "2019-01-30T09:15:11" {
		t.Errorf("StartedAt = %q", doc.StartedAt)
	}
	if doc.Scalars["A"] != 12.5 {
		t.Errorf("Scalars = %v", doc.Scalars)
	}
	if arr, ok := doc.Arrays["D"]; !ok || len(arr) != 0 {
		t.Errorf("empty array D not kept: %v", doc.Arrays)
	}
	if len(doc.Issues) != 1 {
		t.Errorf("Issues = %v", doc.Issues)
	}
}

func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&CSVExporter{}).Export(&buf, []*models.Session{sampleSession("rat12", 3)}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"C", "D", "E"},
		{"1", "", "0.5"},
		{"2", "", ""},
		{"3", "", ""},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(records), len(want), records)
	}
	for i := range want {
		if strings.Join(records[i], ",") != strings.Join(want[i], ",") {
			t.Errorf("row %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestMarkdownExporter_Export(t *testing.T) {
	exp := &MarkdownExporter{
		IncludeTimestamp: true,
		now:              func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}

	var buf bytes.Buffer
	sessions := []*models.Session{sampleSession("rat12", 1), sampleSession("rat13", 2)}
	if err := exp.Export(&buf, sessions); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# MED-PC Session Report",
		"**Generated**: 2024-05-01 12:00:00",
		"**Sessions**: 2",
		"## Session 1: rat12 (Box 1)",
		"## Session 2: rat13 (Box 2)",
		"| Start Date | 01/30/2019 |",
		"| A | 12.5 |",
		"| C | 3 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestHTMLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&HTMLExporter{}).Export(&buf, []*models.Session{sampleSession("rat12", 1)}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "<h1>MED-PC Session Report</h1>", "<table>", "<td>rat12</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		total int
		box   models.Box
		want  string
	}{
		{name: "single session", n: 1, total: 1, box: models.NumericBox(3), want: "2019-01-30_rat12.xlsx"},
		{name: "numeric box", n: 2, total: 4, box: models.NumericBox(7), want: "2019-01-30_rat12_2_box7.xlsx"},
		{name: "text box sanitized", n: 1, total: 2, box: models.TextBox("left/1"), want: "2019-01-30_rat12_1_boxleft_1.xlsx"},
		{name: "no box", n: 1, total: 2, want: "2019-01-30_rat12_1.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputName("/data/2019-01-30_rat12.txt", tt.n, tt.total, tt.box, "xlsx")
			if got != tt.want {
				t.Errorf("OutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteFiles(t *testing.T) {
	outDir := t.TempDir()
	source := filepath.Join("data", "box_run.txt")
	sessions := []*models.Session{sampleSession("rat12", 1), sampleSession("rat13", 2)}

	xlsx, _ := NewExporter(FormatXLSX)
	paths, err := WriteFiles(sessions, source, outDir, xlsx, false)
	if err != nil {
		t.Fatalf("WriteFiles(xlsx) failed: %v", err)
	}
	wantXLSX := []string{
		filepath.Join(outDir, "box_run_1_box1.xlsx"),
		filepath.Join(outDir, "box_run_2_box2.xlsx"),
	}
	if strings.Join(paths, ",") != strings.Join(wantXLSX, ",") {
		t.Errorf("paths = %v, want %v", paths, wantXLSX)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}

	jsonExp, _ := NewExporter(FormatJSON)
	paths, err = WriteFiles(sessions, source, outDir, jsonExp, false)
	if err != nil {
		t.Fatalf("WriteFiles(json) failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != filepath.Join(outDir, "box_run.json") {
		t.Errorf("json paths = %v", paths)
	}

	_, err = WriteFiles(sessions, source, outDir, jsonExp, false)
	if !errors.Is(err, filelock.ErrExists) {
		t.Errorf("expected ErrExists on second write, got %v", err)
	}
	if _, err := WriteFiles(sessions, source, outDir, jsonExp, true); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}

	paths, err = WriteFiles(nil, source, outDir, jsonExp, true)
	if err != nil || paths != nil {
		t.Errorf("no sessions should write nothing, got %v, %v", paths, err)
	}
}

func TestWriteSession(t *testing.T) {
	outDir := t.TempDir()
	s := sampleSession("rat12", 4)
	name := SessionOutputName("/data/box_run.txt", 3, s.Box, "csv")
	if name != "box_run_3_box4.csv" {
		t.Fatalf("SessionOutputName() = %q", name)
	}

	csvExp, _ := NewExporter(FormatCSV)
	path := filepath.Join(outDir, name)
	if err := WriteSession(path, s, csvExp, false); err != nil {
		t.Fatalf("WriteSession failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "C,D,E\n") {
		t.Errorf("unexpected csv content %q", data)
	}
}
