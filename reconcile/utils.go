package reconcile

import "time"

// Day truncates a time to its UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// YearMonth formats the month key of a date.
func YearMonth(t time.Time) string {
	return t.Format("2006-01")
}

// ParseDate parses a settlement date argument.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
