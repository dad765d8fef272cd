package util

import (
	"fmt"
	"time"
)

// ISODate is the calendar-date layout used on every external surface.
const ISODate = "2006-01-02"

// ParseISODate parses a YYYY-MM-DD string as a UTC date.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatISODate renders t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(ISODate)
}

// ParseBarDate accepts the date forms found in exported price files: a plain
// date, an RFC3339 timestamp, or "2006-01-02 15:04:05" with optional zone offset.
// The result is truncated to the UTC calendar day.
func ParseBarDate(s string) (time.Time, bool) {
	for _, layout := range []string{ISODate, time.RFC3339, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
