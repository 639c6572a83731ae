package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestTradingDates(t *testing.T) {
	tests := []struct {
		name     string
		end      string
		days     int
		expected []string
	}{
		{
			name:     "Mid-week window",
			end:      "2026-01-29", // Thursday
			days:     3,
			expected: []string{"2026-01-27", "2026-01-28", "2026-01-29"},
		},
		{
			name:     "Window crossing a weekend",
			end:      "2026-01-27", // Tuesday
			days:     5,
			expected: []string{"2026-01-21", "2026-01-22", "2026-01-23", "2026-01-26", "2026-01-27"},
		},
		{
			name:     "End on Sunday",
			end:      "2026-02-01",
			days:     2,
			expected: []string{"2026-01-29", "2026-01-30"},
		},
		{
			name:     "Zero days",
			end:      "2026-02-01",
			days:     0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TradingDates(day(tt.end), tt.days)
			assert.Equal(t, tt.expected, got)
			for _, d := range got {
				assert.True(t, IsWeekday(day(d)), "weekend date %s in window", d)
			}
		})
	}
}

func TestBaselineWindowExcludesTarget(t *testing.T) {
	window := BaselineWindow(day("2026-02-02"), 5) // Monday
	assert.Equal(t, []string{"2026-01-26", "2026-01-27", "2026-01-28", "2026-01-29", "2026-01-30"}, window)
}

func TestPreviousWeekday(t *testing.T) {
	assert.Equal(t, "2026-01-30", PreviousWeekday(day("2026-02-02")).Format(DateLayout)) // Monday -> Friday
	assert.Equal(t, "2026-01-30", PreviousWeekday(day("2026-02-01")).Format(DateLayout)) // Sunday -> Friday
	assert.Equal(t, "2026-02-03", PreviousWeekday(day("2026-02-04")).Format(DateLayout))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("31.01.2026")
	require.Error(t, err)

	got, err := ParseDate("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Saturday, got.Weekday())
}

func TestAnomalyShareZeroTotal(t *testing.T) {
	r := &Report{}
	assert.Zero(t, r.AnomalyShare())

	r.Metadata.TotalTickers = 200
	r.Metadata.AnomaliesFound = 3
	assert.InDelta(t, 1.5, r.AnomalyShare(), 1e-9)
}
