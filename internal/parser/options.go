package parser

import (
	"fmt"
	"strings"
)

// Layout selects how a file is split into sessions
type Layout int

const (
	// LayoutAuto starts a new session after a blank line only when the next
	// header would overwrite one already seen in the current session
	LayoutAuto Layout = iota
	// LayoutMulti starts a new session at every run of blank lines
	LayoutMulti
	// LayoutSingle treats the whole file as one session
	LayoutSingle
)

// BoxMode selects how the Box header is stored
type BoxMode int

const (
	// BoxText keeps the Box value verbatim
	BoxText BoxMode = iota
	// BoxNumeric requires an integer Box value
	BoxNumeric
)

// ErrorPolicy selects what happens after a field fails to parse
type ErrorPolicy int

const (
	// StopOnError ends the parse and returns the sessions finished so far with the error
	StopOnError ErrorPolicy = iota
	// SkipSession drops the failing session and continues at the next separator
	SkipSession
)

// ConflictPolicy selects what happens when one letter is used as both scalar and array
type ConflictPolicy int

const (
	// ConflictLastWins keeps whichever kind was written last
	ConflictLastWins ConflictPolicy = iota
	// ConflictReject fails the session with a NameConflict error
	ConflictReject
)

// Options configures a Parser. The zero value is the default configuration.
type Options struct {
	Layout       Layout
	BoxMode      BoxMode
	OnError      ErrorPolicy
	NameConflict ConflictPolicy
}

// String returns the configuration name of the layout
func (l Layout) String() string {
	switch l {
	case LayoutMulti:
		return "multi"
	case LayoutSingle:
		return "single"
	default:
		return "auto"
	}
}

// String returns the configuration name of the box mode
func (m BoxMode) String() string {
	if m == BoxNumeric {
		return "numeric"
	}
	return "text"
}

// String returns the configuration name of the error policy
func (p ErrorPolicy) String() string {
	if p == SkipSession {
		return "skip"
	}
	return "stop"
}

// String returns the configuration name of the conflict policy
func (p ConflictPolicy) String() string {
	if p == ConflictReject {
		return "reject"
	}
	return "last-wins"
}

// ParseLayout converts a configuration name into a Layout
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "multi":
		return LayoutMulti, nil
	case "single":
		return LayoutSingle, nil
	default:
		return LayoutAuto, fmt.Errorf("invalid layout %q, must be one of: auto, multi, single", s)
	}
}

// ParseBoxMode converts a configuration name into a BoxMode
func ParseBoxMode(s string) (BoxMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return BoxText, nil
	case "numeric":
		return BoxNumeric, nil
	default:
		return BoxText, fmt.Errorf("invalid box mode %q, must be one of: text, numeric", s)
	}
}

// ParseErrorPolicy converts a configuration name into an ErrorPolicy
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stop":
		return StopOnError, nil
	case "skip":
		return SkipSession, nil
	default:
		return StopOnError, fmt.Errorf("invalid error policy %q, must be one of: stop, skip", s)
	}
}

// ParseConflictPolicy converts a configuration name into a ConflictPolicy
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-wins":
		return ConflictLastWins, nil
	case "reject":
		return ConflictReject, nil
	default:
		return ConflictLastWins, fmt.Errorf("invalid name conflict policy %q, must be one of: last-wins, reject", s)
	}
}
