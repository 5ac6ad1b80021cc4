package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies parse failures
type ErrorKind int

const (
	// KindMalformedDate is a Start/End Date value that is not MM/DD/YY
	KindMalformedDate ErrorKind = iota + 1
	// KindMalformedTime is a Start/End Time value that is not H:MM:SS
	KindMalformedTime
	// KindMalformedScalar is a scalar line whose value is not a decimal number
	KindMalformedScalar
	// KindMalformedArrayFragment is an array fragment with a non-numeric token
	KindMalformedArrayFragment
	// KindMissingStartDate is a Start Time seen before any Start Date
	KindMissingStartDate
	// KindUnreadableFile is an I/O failure opening or reading the source
	KindUnreadableFile
	// KindMalformedBox is a non-integer Box value in numeric box mode
	KindMalformedBox
	// KindNameConflict is a letter used both as scalar and array when conflicts are rejected
	KindNameConflict
)

// Sentinel errors matched by errors.Is against a *ParseError of the same kind
var (
	ErrMalformedDate          = errors.New("malformed date")
	ErrMalformedTime          = errors.New("malformed time")
	ErrMalformedScalar        = errors.New("malformed scalar")
	ErrMalformedArrayFragment = errors.New("malformed array fragment")
	ErrMissingStartDate       = errors.New("start time before start date")
	ErrUnreadableFile         = errors.New("unreadable file")
	ErrMalformedBox           = errors.New("malformed box")
	ErrNameConflict           = errors.New("variable name conflict")
)

// String returns the name of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedDate:
		return "MalformedDate"
	case KindMalformedTime:
		return "MalformedTime"
	case KindMalformedScalar:
		return "MalformedScalar"
	case KindMalformedArrayFragment:
		return "MalformedArrayFragment"
	case KindMissingStartDate:
		return "MissingStartDate"
	case KindUnreadableFile:
		return "UnreadableFile"
	case KindMalformedBox:
		return "MalformedBox"
	case KindNameConflict:
		return "NameConflict"
	default:
		return "Unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformedDate:
		return ErrMalformedDate
	case KindMalformedTime:
		return ErrMalformedTime
	case KindMalformedScalar:
		return ErrMalformedScalar
	case KindMalformedArrayFragment:
		return ErrMalformedArrayFragment
	case KindMissingStartDate:
		return ErrMissingStartDate
	case KindUnreadableFile:
		return ErrUnreadableFile
	case KindMalformedBox:
		return ErrMalformedBox
	case KindNameConflict:
		return ErrNameConflict
	default:
		return nil
	}
}

// ParseError describes a failure at a specific place in a MED-PC file.
// Path is empty when parsing a plain reader, Line is 0 when no line applies.
type ParseError struct {
	Kind ErrorKind
	Path string
	Line int
	Text string // offending text
	Err  error  // underlying error (optional)
}

func newParseError(kind ErrorKind, text string, err error) *ParseError {
	return &ParseError{Kind: kind, Text: text, Err: err}
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
		sb.WriteString(": ")
	} else if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d: ", e.Line)
	}
	if s := e.Kind.sentinel(); s != nil {
		sb.WriteString(s.Error())
	} else {
		sb.WriteString("parse error")
	}
	if e.Text != "" {
		fmt.Fprintf(&sb, " %q", e.Text)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error for this kind
func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// at fills in position information unless already present
func (e *ParseError) at(path string, line int) *ParseError {
	if e.Path == "" {
		e.Path = path
	}
	if e.Line == 0 {
		e.Line = line
	}
	return e
}
