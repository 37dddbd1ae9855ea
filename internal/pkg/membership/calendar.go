package membership

import "time"

// Quota windows are calendar periods in UTC.

func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Clock returns the current time. Implementations must return UTC.
type Clock func() time.Time

// SystemClock is the wall clock in UTC truncated to storage precision.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
