package checks

import (
	"sort"
	"time"
)

// DaysInMonth returns the calendar day count of the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ReportMonth derives the reporting month from a column's parsed dates: the
// (year, month) pair with the most entries. Ties go to the earlier month so
// the result stays deterministic. ok is false for an empty input.
func ReportMonth(dates []ParsedDate) (year, month int, ok bool) {
	if len(dates) == 0 {
		return 0, 0, false
	}

	type yearMonth struct{ year, month int }
	counts := make(map[yearMonth]int)
	for _, d := range dates {
		counts[yearMonth{d.Year, d.Month}]++
	}

	var best yearMonth
	bestCount := -1
	for ym, count := range counts {
		switch {
		case count > bestCount:
			best, bestCount = ym, count
		case count == bestCount && (ym.year < best.year || (ym.year == best.year && ym.month < best.month)):
			best = ym
		}
	}

	return best.year, best.month, true
}

// MissingDays computes the days of the given month with zero entries: the
// ordered set-difference between all calendar days and the present set. A
// pure function of its inputs.
func MissingDays(year, month int, present map[int]bool) []int {
	missing := make([]int, 0)
	for day := 1; day <= DaysInMonth(year, month); day++ {
		if !present[day] {
			missing = append(missing, day)
		}
	}
	sort.Ints(missing)
	return missing
}
