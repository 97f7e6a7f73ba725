package utils

import (
	"testing"

	"mse-harvester/src/models"

	"github.com/stretchr/testify/assert"
)

// Test_FormatAmount verifies canonical amount formatting and that
// unparsable input always passes through unchanged.
func Test_FormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Grouped input with comma separators",
			raw:      "1,234.50",
			expected: "1 234.50",
		},
		{
			name:     "Plain integer gains two decimals",
			raw:      "120",
			expected: "120.00",
		},
		{
			name:     "Three-digit integer part stays ungrouped",
			raw:      "999.9",
			expected: "999.90",
		},
		{
			name:     "Millions grouped in threes",
			raw:      "1234567.891",
			expected: "1 234 567.89",
		},
		{
			name:     "Multiple comma groups",
			raw:      "21,600,000.00",
			expected: "21 600 000.00",
		},
		{
			name:     "Negative amount keeps sign before grouping",
			raw:      "-1234.5",
			expected: "-1 234.50",
		},
		{
			name:     "Surrounding whitespace is tolerated",
			raw:      "  4200 ",
			expected: "4 200.00",
		},
		{
			name:     "Non-numeric text unchanged",
			raw:      "not-a-number",
			expected: "not-a-number",
		},
		{
			name:     "Already space-grouped value unchanged",
			raw:      "1 234.50",
			expected: "1 234.50",
		},
		{
			name:     "Empty string unchanged",
			raw:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatAmount(tt.raw))
		})
	}
}

// Test_FormatDate verifies canonical date formatting with raw-text
// fallback on unrecognized input.
func Test_FormatDate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "Canonical date unchanged",
			raw:      "31.12.2023",
			expected: "31.12.2023",
		},
		{
			name:     "Single-digit day and month padded",
			raw:      "5.3.2024",
			expected: "05.03.2024",
		},
		{
			name:     "Whitespace trimmed",
			raw:      " 01.02.2024 ",
			expected: "01.02.2024",
		},
		{
			name:     "Garbage unchanged",
			raw:      "yesterday",
			expected: "yesterday",
		},
		{
			name:     "ISO date not recognized, unchanged",
			raw:      "2024-03-05",
			expected: "2024-03-05",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDate(tt.raw))
		})
	}
}

// Test_NormalizeRecord checks that every amount field is normalized
// independently and pass-through fields are untouched, even when some
// fields are malformed.
func Test_NormalizeRecord(t *testing.T) {
	raw := models.MHistoryRecord{
		PublisherCode: "ALK",
		Date:          "5.3.2024",
		Price:         "21,600.00",
		Max:           "21,700",
		Min:           "bad-value",
		Avg:           "21,650.5",
		PercentChange: "-0,51",
		Quantity:      "35",
		BestTurnover:  "756,000.00",
		TotalTurnover: "756,000.00",
	}

	got := NormalizeRecord(raw)

	assert.Equal(t, "05.03.2024", got.Date)
	assert.Equal(t, "21 600.00", got.Price)
	assert.Equal(t, "21 700.00", got.Max)
	assert.Equal(t, "bad-value", got.Min, "malformed field keeps raw text, record survives")
	assert.Equal(t, "21 650.50", got.Avg)
	assert.Equal(t, "-0,51", got.PercentChange, "percent change passes through")
	assert.Equal(t, "35", got.Quantity, "quantity passes through")
	assert.Equal(t, "756 000.00", got.BestTurnover)
	assert.Equal(t, "756 000.00", got.TotalTurnover)
	assert.Equal(t, "ALK", got.PublisherCode)
}
