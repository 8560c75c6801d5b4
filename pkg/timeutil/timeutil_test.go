package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestStartOfDayNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 on the 15th in UTC+5 is still the 14th in UTC.
	in := time.Date(2025, 3, 15, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		b    time.Time
		want int
	}{
		{"same day", time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC), 0},
		{"next morning", time.Date(2025, 1, 2, 1, 0, 0, 0, time.UTC), 1},
		{"a month later", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 31},
		{"day before", time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(a, tt.b))
		})
	}
}

func TestDaysUntilCeil(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"in the past", now.Add(-time.Hour), 0},
		{"exactly now", now, 0},
		{"one hour out rounds up", now.Add(time.Hour), 1},
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"one day and a minute", now.Add(24*time.Hour + time.Minute), 2},
		{"exactly thirty days", now.Add(30 * 24 * time.Hour), 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilCeil(now, tt.t))
		})
	}
}

func TestFormatDate(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	in := time.Date(2025, 12, 31, 22, 0, 0, 0, loc)
	assert.Equal(t, "2026-01-01", FormatDate(in))
}
