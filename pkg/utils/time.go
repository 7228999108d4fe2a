package utils

import "time"

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// UnixToTime converts a unix timestamp to a UTC time.Time
func UnixToTime(timestamp int64) time.Time {
	if timestamp <= 0 {
		return time.Time{}
	}
	return time.Unix(timestamp, 0).UTC()
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// DaysSince returns the number of whole days elapsed between t and now.
func DaysSince(t time.Time, now time.Time) int {
	if t.IsZero() {
		return 0
	}
	return int(now.UTC().Sub(t.UTC()).Hours() / 24)
}
