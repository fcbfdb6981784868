package utils

import (
	"time"

	"campus-cafeteria/internal/apperr"
)

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay accepts YYYY-MM-DD or RFC3339 and returns the start of that calendar day in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.Validation("date is required")
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected YYYY-MM-DD", value)
	}
	return StartOfDay(t, loc), nil
}
