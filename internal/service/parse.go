package service

import (
	"strings"
	"time"

	apperrors "remindd/internal/errors"
)

// absoluteLayouts are tried in order for inputs that spell out a full
// date. Layouts without a time component resolve to midnight.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseDueAt turns user-supplied schedule text into a concrete UTC time.
// Accepted forms:
//
//	+<duration>        relative offset, e.g. "+2h30m", "+45m"
//	RFC 3339           "2026-03-01T15:00:00Z"
//	date and time      "2026-03-01 15:00", "01.03.2026 15:00"
//	date only          "2026-03-01", "01.03.2026" (midnight)
//	time only          "15:04" (today, or tomorrow if already past)
//
// Unparseable input yields a PARSE_FAILURE with a user-facing message.
func ParseDueAt(input string, now time.Time) (time.Time, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return time.Time{}, apperrors.NewParseFailureError(input, nil)
	}
	now = now.UTC()

	if strings.HasPrefix(text, "+") {
		d, err := time.ParseDuration(text[1:])
		if err != nil {
			return time.Time{}, apperrors.NewParseFailureError(input, err)
		}
		return now.Add(d), nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}

	// Bare clock time rolls forward to the next occurrence.
	if t, err := time.Parse("15:04", text); err == nil {
		due := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
		if !due.After(now) {
			due = due.AddDate(0, 0, 1)
		}
		return due, nil
	}

	return time.Time{}, apperrors.NewParseFailureError(input, nil)
}
