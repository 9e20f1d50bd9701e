package types

import (
	"time"

	ierr "github.com/poolstack/poolstack/internal/errors"
)

// CalendarDateLayout is the wire and storage format for calendar dates.
// Invoice issue and due dates are calendar dates with no time component.
const CalendarDateLayout = "2006-01-02"

// ParseCalendarDate parses a YYYY-MM-DD date. It also accepts RFC3339
// timestamps and truncates them to the date, so clients sending full
// timestamps are normalized rather than rejected.
func ParseCalendarDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, ierr.NewError("date is required").
			WithHint("Please provide a date in YYYY-MM-DD format").
			Mark(ierr.ErrValidation)
	}

	if d, err := time.Parse(CalendarDateLayout, value); err == nil {
		return d.UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return TruncateToDate(t), nil
	}

	return time.Time{}, ierr.NewError("invalid date").
		WithHintf("Date %q is not in YYYY-MM-DD format", value).
		Mark(ierr.ErrValidation)
}

// FormatCalendarDate renders a time as YYYY-MM-DD in UTC.
func FormatCalendarDate(t time.Time) string {
	return t.UTC().Format(CalendarDateLayout)
}

// TruncateToDate drops the time component, keeping the UTC calendar day.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date.
func Today() time.Time {
	return TruncateToDate(time.Now())
}
