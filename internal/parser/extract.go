package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/mpcdata/internal/models"
)

// DateLayout is the MED-PC header date format (MM/DD/YY)
const DateLayout = "01/02/06"

var (
	timeRe   = regexp.MustCompile(`^\s*(\d+):(\d{2}):(\d{2})\s*$`)
	numberRe = regexp.MustCompile(`^-?\d+\.\d*$`)
)

// ParseDate parses a MM/DD/YY header date
func ParseDate(text string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, newParseError(KindMalformedDate, text, err)
	}
	return t, nil
}

// FormatDate formats a date the way MED-PC writes it
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseTime parses an H:MM:SS header time. The hour may have any number of digits
// but must be below 24.
func ParseTime(text string) (models.TimeOfDay, error) {
	m := timeRe.FindStringSubmatch(text)
	if m == nil {
		return models.TimeOfDay{}, newParseError(KindMalformedTime, text, nil)
	}
	h, err := strconv.Atoi(m[1])
	if err != nil {
		return models.TimeOfDay{}, newParseError(KindMalformedTime, text, err)
	}
	// minute and second are exactly two digits, Atoi cannot fail
	minute, _ := strconv.Atoi(m[2])
	second, _ := strconv.Atoi(m[3])
	if h > 23 || minute > 59 || second > 59 {
		return models.TimeOfDay{}, newParseError(KindMalformedTime, text, nil)
	}
	return models.NewTimeOfDay(h, minute, second), nil
}

// ParseScalar parses a scalar variable value
func ParseScalar(text string) (float64, error) {
	v, err := parseNumber(text)
	if err != nil {
		return 0, newParseError(KindMalformedScalar, text, err)
	}
	return v, nil
}

// ParseBox parses the Box header according to mode
func ParseBox(text string, mode BoxMode) (models.Box, error) {
	if mode != BoxNumeric {
		return models.TextBox(text), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return models.Box{}, newParseError(KindMalformedBox, text, err)
	}
	return models.NumericBox(n), nil
}

// parseNumber accepts the MED-PC value shape only: digits, a decimal point and
// an optional fraction, with an optional leading minus. strconv alone would
// also take integers, exponents, "NaN", "Inf" and hex floats.
func parseNumber(text string) (float64, error) {
	if !numberRe.MatchString(text) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(text, 64)
}
