package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(h int) time.Time {
	return time.Date(2026, time.March, 10, h, 0, 0, 0, time.UTC)
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                   string
		aStart, aEnd           time.Time
		bStart, bEnd           time.Time
		expected               bool
	}{
		{"disjoint before", at(9), at(10), at(10), at(11), false},
		{"disjoint after", at(12), at(13), at(10), at(11), false},
		{"touching endpoints do not overlap", at(9), at(11), at(11), at(13), false},
		{"partial overlap", at(9), at(11), at(10), at(12), true},
		{"contained", at(10), at(11), at(9), at(13), true},
		{"identical", at(9), at(11), at(9), at(11), true},
		{"zero-length never overlaps", at(10), at(10), at(9), at(12), false},
		{"zero-length at boundary", at(9), at(9), at(9), at(12), false},
		{"both zero-length identical", at(10), at(10), at(10), at(10), false},
		{"inverted interval never overlaps", at(12), at(10), at(9), at(13), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// symmetric
			assert.Equal(t, tt.expected, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestDateRangeDays(t *testing.T) {
	assert.Equal(t, 1, NewDateRange(day(2026, 3, 10), day(2026, 3, 10)).Days())
	assert.Equal(t, 3, NewDateRange(day(2026, 3, 10), day(2026, 3, 12)).Days())
	assert.Equal(t, 31, NewDateRange(day(2026, 3, 1), day(2026, 3, 31)).Days())
}

func TestDateRangeOverlapsRange(t *testing.T) {
	tests := []struct {
		name     string
		a, b     DateRange
		expected bool
	}{
		{
			"shared single day overlaps",
			NewDateRange(day(2026, 3, 10), day(2026, 3, 12)),
			NewDateRange(day(2026, 3, 12), day(2026, 3, 14)),
			true,
		},
		{
			"adjacent days do not overlap",
			NewDateRange(day(2026, 3, 10), day(2026, 3, 11)),
			NewDateRange(day(2026, 3, 12), day(2026, 3, 13)),
			false,
		},
		{
			"contained range overlaps",
			NewDateRange(day(2026, 3, 11), day(2026, 3, 11)),
			NewDateRange(day(2026, 3, 10), day(2026, 3, 14)),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.OverlapsRange(tt.b))
			assert.Equal(t, tt.expected, tt.b.OverlapsRange(tt.a))
		})
	}
}

func TestDateRangeValidity(t *testing.T) {
	assert.False(t, NewDateRange(day(2026, 3, 12), day(2026, 3, 10)).Valid())
	assert.True(t, NewDateRange(day(2026, 3, 10), day(2026, 3, 10)).Valid())

	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	assert.True(t, NewDateRange(day(2026, 3, 9), day(2026, 3, 11)).InPast(now))
	// today still bookable even though the clock has passed midnight
	assert.False(t, NewDateRange(day(2026, 3, 10), day(2026, 3, 11)).InPast(now))
}
