package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2025, 10))
	assert.Equal(t, 30, DaysInMonth(2025, 9))
	assert.Equal(t, 28, DaysInMonth(2025, 2))
	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 31, DaysInMonth(2025, 12))
}

func TestReportMonth(t *testing.T) {
	t.Run("majority month wins", func(t *testing.T) {
		dates := []ParsedDate{
			{2025, 9, 30},
			{2025, 10, 1},
			{2025, 10, 2},
			{2025, 10, 3},
		}
		year, month, ok := ReportMonth(dates)
		assert.True(t, ok)
		assert.Equal(t, 2025, year)
		assert.Equal(t, 10, month)
	})

	t.Run("tie goes to earlier month", func(t *testing.T) {
		dates := []ParsedDate{
			{2025, 10, 31},
			{2025, 11, 1},
		}
		year, month, ok := ReportMonth(dates)
		assert.True(t, ok)
		assert.Equal(t, 2025, year)
		assert.Equal(t, 10, month)
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, ok := ReportMonth(nil)
		assert.False(t, ok)
	})
}

func TestMissingDays(t *testing.T) {
	t.Run("complement of present days sorted ascending", func(t *testing.T) {
		present := map[int]bool{1: true, 2: true, 3: true, 5: true}
		missing := MissingDays(2025, 9, present)

		want := []int{4}
		for day := 6; day <= 30; day++ {
			want = append(want, day)
		}
		assert.Equal(t, want, missing)
	})

	t.Run("full month has no missing days", func(t *testing.T) {
		present := make(map[int]bool)
		for day := 1; day <= 31; day++ {
			present[day] = true
		}
		assert.Empty(t, MissingDays(2025, 10, present))
	})

	t.Run("empty present set misses every day", func(t *testing.T) {
		assert.Len(t, MissingDays(2024, 2, nil), 29)
	})

	t.Run("deterministic", func(t *testing.T) {
		present := map[int]bool{7: true, 20: true}
		assert.Equal(t, MissingDays(2025, 10, present), MissingDays(2025, 10, present))
	})
}
