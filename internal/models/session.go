package models

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Header labels in the order MED-PC writes them
const (
	LabelStartDate  = "Start Date"
	LabelEndDate    = "End Date"
	LabelSubject    = "Subject"
	LabelExperiment = "Experiment"
	LabelGroup      = "Group"
	LabelBox        = "Box"
	LabelStartTime  = "Start Time"
	LabelEndTime    = "End Time"
	LabelMSN        = "MSN"
)

// HeaderLabels lists the nine header fields of a session in export order:
// dates, times, then the descriptive fields
var HeaderLabels = []string{
	LabelStartDate,
	LabelEndDate,
	LabelStartTime,
	LabelEndTime,
	LabelSubject,
	LabelExperiment,
	LabelGroup,
	LabelBox,
	LabelMSN,
}

// Export formats for header values
const (
	ExportDateLayout = "01/02/2006"
	ExportTimeLayout = "15:04:05"
)

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
	Valid  bool // false until the time has been parsed
}

// NewTimeOfDay returns a valid TimeOfDay
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute, Second: second, Valid: true}
}

// String formats the time as MED-PC writes it (H:MM:SS, hour not padded)
func (t TimeOfDay) String() string {
	if !t.Valid {
		return ""
	}
	return fmt.Sprintf("%d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Padded formats the time as HH:MM:SS
func (t TimeOfDay) Padded() string {
	if !t.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Duration returns the offset of the time from midnight
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second
}

// On combines the time with a calendar date
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, date.Location())
}

// Box identifies the chamber a session ran in. Depending on the file variant
// it is kept as text or as a number.
type Box struct {
	Text    string
	Number  int
	Numeric bool
}

// NumericBox returns a Box holding a number
func NumericBox(n int) Box {
	return Box{Text: strconv.Itoa(n), Number: n, Numeric: true}
}

// TextBox returns a Box holding verbatim text
func TextBox(s string) Box {
	return Box{Text: s}
}

// String returns the box identifier as written in the file
func (b Box) String() string {
	if b.Numeric {
		return strconv.Itoa(b.Number)
	}
	return b.Text
}

// HeaderField is one label/value pair of the Header sheet
type HeaderField struct {
	Label string
	Value string
}

// Session is one parsed experiment session (one box of a MED-PC file)
type Session struct {
	StartDate     time.Time // date at midnight UTC, zero until parsed
	EndDate       time.Time
	StartTime     TimeOfDay
	EndTime       TimeOfDay
	StartDateTime time.Time // StartDate + StartTime, zero if it could not be derived

	Subject    string
	Experiment string
	Group      string
	Box        Box
	MSN        string // program name

	ScalarVars map[string]float64
	ArrayVars  map[string][]float64

	// Issues holds non-fatal problems found while parsing this session
	Issues []error
}

// NewSession returns an empty session with initialized variable maps
func NewSession() *Session {
	return &Session{
		ScalarVars: make(map[string]float64),
		ArrayVars:  make(map[string][]float64),
	}
}

// IsEmpty reports whether nothing has been stored in the session yet
func (s *Session) IsEmpty() bool {
	return s.StartDate.IsZero() && s.EndDate.IsZero() &&
		!s.StartTime.Valid && !s.EndTime.Valid &&
		s.Subject == "" && s.Experiment == "" && s.Group == "" &&
		s.Box == (Box{}) && s.MSN == "" &&
		len(s.ScalarVars) == 0 && len(s.ArrayVars) == 0
}

// ScalarNames returns the scalar variable names in alphabetical order
func (s *Session) ScalarNames() []string {
	return sortedKeys(s.ScalarVars)
}

// ArrayNames returns the array variable names in alphabetical order
func (s *Session) ArrayNames() []string {
	return sortedKeys(s.ArrayVars)
}

// MaxArrayLen returns the length of the longest array
func (s *Session) MaxArrayLen() int {
	n := 0
	for _, values := range s.ArrayVars {
		if len(values) > n {
			n = len(values)
		}
	}
	return n
}

// HeaderFields returns the nine header fields formatted for export
// (dates MM/DD/YYYY, times HH:MM:SS, unset values empty)
func (s *Session) HeaderFields() []HeaderField {
	return []HeaderField{
		{Label: LabelStartDate, Value: formatDate(s.StartDate)},
		{Label: LabelEndDate, Value: formatDate(s.EndDate)},
		{Label: LabelStartTime, Value: s.StartTime.Padded()},
		{Label: LabelEndTime, Value: s.EndTime.Padded()},
		{Label: LabelSubject, Value: s.Subject},
		{Label: LabelExperiment, Value: s.Experiment},
		{Label: LabelGroup, Value: s.Group},
		{Label: LabelBox, Value: s.Box.String()},
		{Label: LabelMSN, Value: s.MSN},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(ExportDateLayout)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
