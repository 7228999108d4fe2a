package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	utilsTime := Now()
	standardTime := time.Now().UTC()

	assert.WithinDuration(t, standardTime, utilsTime, 10*time.Millisecond)
	assert.Equal(t, time.UTC, utilsTime.Location())
}

func TestUnixToTime(t *testing.T) {
	tests := []struct {
		name      string
		timestamp int64
		expected  time.Time
	}{
		{
			name:      "valid timestamp",
			timestamp: 1609459200, // 2021-01-01 00:00:00 UTC
			expected:  time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "zero timestamp",
			timestamp: 0,
			expected:  time.Time{},
		},
		{
			name:      "negative timestamp",
			timestamp: -1,
			expected:  time.Time{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := UnixToTime(tc.timestamp)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestFormatISO8601(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "UTC time",
			input:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: "2021-01-01T00:00:00Z",
		},
		{
			name:     "non-UTC time is converted to UTC",
			input:    time.Date(2021, 1, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*60*60)),
			expected: "2021-01-01T05:00:00Z", // 00:00 EST is 05:00 UTC
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := FormatISO8601(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    time.Time
		expected int
	}{
		{
			name:     "exact days",
			input:    time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC),
			expected: 10,
		},
		{
			name:     "partial day rounds down",
			input:    time.Date(2024, 6, 5, 13, 0, 0, 0, time.UTC),
			expected: 9,
		},
		{
			name:     "same instant",
			input:    now,
			expected: 0,
		},
		{
			name:     "zero time",
			input:    time.Time{},
			expected: 0,
		},
		{
			name:     "non-UTC input normalized",
			input:    time.Date(2024, 6, 5, 7, 0, 0, 0, time.FixedZone("EST", -5*60*60)), // 12:00 UTC
			expected: 10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DaysSince(tc.input, now))
		})
	}
}
