package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/harrison/mpcdata/internal/models"
)

// LineKind is the grammar rule a physical line matched
type LineKind int

const (
	// LineNone matches no rule; the assembler skips it
	LineNone LineKind = iota
	// LineSessionStart is a blank separator line between boxes
	LineSessionStart
	LineStartDate
	LineEndDate
	LineStartTime
	LineEndTime
	LineSubject
	LineExperiment
	LineGroup
	LineBox
	LineMSN
	// LineArrayStart declares an array ("X:" alone on the line)
	LineArrayStart
	// LineArrayFragment holds values starting at an index ("  37:  1.0 2.0 3.0")
	LineArrayFragment
	// LineScalar holds a single named value ("X: 12.34")
	LineScalar
)

// String returns the name of the line kind
func (k LineKind) String() string {
	switch k {
	case LineSessionStart:
		return "SessionStart"
	case LineStartDate:
		return "StartDate"
	case LineEndDate:
		return "EndDate"
	case LineStartTime:
		return "StartTime"
	case LineEndTime:
		return "EndTime"
	case LineSubject:
		return "Subject"
	case LineExperiment:
		return "Experiment"
	case LineGroup:
		return "Group"
	case LineBox:
		return "Box"
	case LineMSN:
		return "MSN"
	case LineArrayStart:
		return "ArrayStart"
	case LineArrayFragment:
		return "ArrayFragment"
	case LineScalar:
		return "Scalar"
	default:
		return "None"
	}
}

// IsHeader reports whether the kind is one of the nine header labels
func (k LineKind) IsHeader() bool {
	return k >= LineStartDate && k <= LineMSN
}

// Line is a classified physical line
type Line struct {
	Kind   LineKind
	Name   string   // variable letter for scalars and arrays
	Text   string   // header value or scalar value text
	Index  int      // starting index of an array fragment, -1 when it overflows int
	Fields []string // whitespace-separated value tokens of an array fragment
}

type rule struct {
	kind LineKind
	re   *regexp.Regexp
}

func headerRule(kind LineKind, label string) rule {
	return rule{kind: kind, re: regexp.MustCompile(`^` + regexp.QuoteMeta(label) + `:(?: (.*))?$`)}
}

// rules are tried in order, most specific first. The table is never mutated.
var rules = []rule{
	{kind: LineSessionStart, re: regexp.MustCompile(`^\s*$`)},
	headerRule(LineStartDate, models.LabelStartDate),
	headerRule(LineEndDate, models.LabelEndDate),
	headerRule(LineStartTime, models.LabelStartTime),
	headerRule(LineEndTime, models.LabelEndTime),
	headerRule(LineSubject, models.LabelSubject),
	headerRule(LineExperiment, models.LabelExperiment),
	headerRule(LineGroup, models.LabelGroup),
	headerRule(LineBox, models.LabelBox),
	headerRule(LineMSN, models.LabelMSN),
	{kind: LineArrayStart, re: regexp.MustCompile(`^([A-Z]):\s*$`)},
	{kind: LineArrayFragment, re: regexp.MustCompile(`^\s*(\d+):(.*)$`)},
	{kind: LineScalar, re: regexp.MustCompile(`^([A-Z]):\s*(.*?)\s*$`)},
}

// normalizeLine strips any trailing line terminator so LF and CRLF files
// classify identically.
func normalizeLine(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// Classify determines which grammar rule a physical line matches.
// ok is false when no rule matches.
func Classify(line string) (Line, bool) {
	line = normalizeLine(line)
	for _, r := range rules {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch {
		case r.kind == LineSessionStart:
			return Line{Kind: r.kind}, true
		case r.kind.IsHeader():
			return Line{Kind: r.kind, Text: m[1]}, true
		case r.kind == LineArrayStart:
			return Line{Kind: r.kind, Name: m[1]}, true
		case r.kind == LineArrayFragment:
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				// too large for int; readArray rejects negative indices
				idx = -1
			}
			return Line{Kind: r.kind, Index: idx, Fields: strings.Fields(m[2])}, true
		case r.kind == LineScalar:
			return Line{Kind: r.kind, Name: m[1], Text: m[2]}, true
		}
	}
	return Line{}, false
}
