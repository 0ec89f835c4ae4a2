package parse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date used on the wire.
const DateLayout = "2006-01-02"

var (
	dateRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Date parses a YYYY-MM-DD string into midnight UTC of that day.
// Timestamps and partial dates are rejected.
func Date(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if !dateRe.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD using its own calendar day.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to midnight UTC of the calendar day t falls on in its
// own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InstrumentNumber trims and collapses whitespace in an instrument number.
func InstrumentNumber(raw string) (string, error) {
	s := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	if s == "" {
		return "", fmt.Errorf("instrument number is empty")
	}
	return s, nil
}
