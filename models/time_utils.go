package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in file names, API calls and reports.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDates returns the last `days` weekdays ending at end (inclusive),
// oldest first. Weekends are skipped; exchange holidays are not known here.
func TradingDates(end time.Time, days int) []string {
	if days <= 0 {
		return nil
	}

	dates := make([]string, days)
	current := end
	for i := days - 1; i >= 0; {
		if IsWeekday(current) {
			dates[i] = current.Format(DateLayout)
			i--
		}
		current = current.AddDate(0, 0, -1)
	}
	return dates
}

// BaselineWindow returns the `days` trading dates preceding target.
func BaselineWindow(target time.Time, days int) []string {
	return TradingDates(target.AddDate(0, 0, -1), days)
}

// PreviousWeekday returns the closest weekday strictly before now.
func PreviousWeekday(now time.Time) time.Time {
	d := now.AddDate(0, 0, -1)
	for !IsWeekday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
