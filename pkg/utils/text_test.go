package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			max:      10,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			max:      5,
			expected: "hello",
		},
		{
			name:     "truncated with ellipsis",
			input:    "hello world",
			max:      8,
			expected: "hello...",
		},
		{
			name:     "max too small for ellipsis",
			input:    "hello",
			max:      2,
			expected: "he",
		},
		{
			name:     "empty string",
			input:    "",
			max:      5,
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := TruncateWithEllipsis(tc.input, tc.max)
			assert.Equal(t, tc.expected, result)
			assert.LessOrEqual(t, len(result), tc.max)
		})
	}
}

func TestJoinNonEmpty(t *testing.T) {
	assert.Equal(t, "a, b", JoinNonEmpty(", ", "a", "", "b"))
	assert.Equal(t, "a", JoinNonEmpty(", ", "a", "  "))
	assert.Equal(t, "", JoinNonEmpty(", ", "", ""))
}
