package checks

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParsedDate is one date value resolved under a detected column format.
type ParsedDate struct {
	Year  int
	Month int
	Day   int
}

// Date converts the parsed components to a time.Time.
func (d ParsedDate) Date() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// DateFormat assigns year/month/day to the three numeric positions of a
// date string. One format is resolved per column; mixed-format columns are
// not supported, rows that fail to parse under the resolved format are
// reported as failed rows, never silently dropped.
type DateFormat struct {
	Separator string
	YearPos   int
	MonthPos  int
	DayPos    int
	// Assumed is true when all components were <= 12 with no invariant
	// position, so ISO year-month-day order was taken on faith.
	Assumed bool
}

func (f DateFormat) String() string {
	parts := []string{"", "", ""}
	parts[f.YearPos] = "yyyy"
	parts[f.MonthPos] = "mm"
	parts[f.DayPos] = "dd"
	return strings.Join(parts, f.Separator)
}

// Parse resolves a single raw value under the format. Time-of-day suffixes
// are ignored; out-of-range components are errors.
func (f DateFormat) Parse(value string) (ParsedDate, error) {
	components, _, ok := splitComponents(value)
	if !ok {
		return ParsedDate{}, fmt.Errorf("value %q is not a three-component date", value)
	}

	d := ParsedDate{
		Year:  components[f.YearPos],
		Month: components[f.MonthPos],
		Day:   components[f.DayPos],
	}
	if d.Year < 100 {
		d.Year += 2000
	}
	if d.Month < 1 || d.Month > 12 {
		return ParsedDate{}, fmt.Errorf("value %q has month %d out of range", value, d.Month)
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return ParsedDate{}, fmt.Errorf("value %q has day %d out of range", value, d.Day)
	}
	return d, nil
}

// monthRolloverBound allows the month position up to two distinct values,
// covering rollover at period boundaries.
const monthRolloverBound = 2

// DetectFormat infers the year/month/day positions from every raw value of
// a column. Positions holding 4-digit values are the year. Of the remaining
// two, the more invariant position (cardinality <= 2, all values plausible
// months) is the month; a position containing any value > 12 is the day.
// When everything stays <= 12 and nothing is distinctly invariant the ISO
// year-month-day order is assumed and recorded.
func DetectFormat(values []string) DateFormat {
	var (
		distinct  [3]map[int]bool
		maxima    [3]int
		separator string
	)
	for i := range distinct {
		distinct[i] = make(map[int]bool)
	}

	for _, v := range values {
		components, sep, ok := splitComponents(v)
		if !ok {
			continue
		}
		if separator == "" {
			separator = sep
		}
		for i, c := range components {
			distinct[i][c] = true
			if c > maxima[i] {
				maxima[i] = c
			}
		}
	}

	iso := DateFormat{Separator: separator, YearPos: 0, MonthPos: 1, DayPos: 2, Assumed: true}
	if separator == "" {
		return iso
	}

	yearPos := -1
	for i, max := range maxima {
		if max >= 1000 {
			yearPos = i
			break
		}
	}
	if yearPos < 0 {
		// Two-digit years cannot be told apart from days here; fall back to
		// ISO ordering and record the assumption.
		return iso
	}

	rest := make([]int, 0, 2)
	for i := range maxima {
		if i != yearPos {
			rest = append(rest, i)
		}
	}

	// The month is the most invariant plausible position: cardinality 1
	// beats 2. When both candidates are equally invariant neither can be
	// told apart here, so the decision falls through to the >12 test.
	monthPos, dayPos := -1, -1
	bestCardinality := monthRolloverBound + 1
	tied := false
	for _, pos := range rest {
		cardinality := len(distinct[pos])
		if cardinality > monthRolloverBound || maxima[pos] < 1 || maxima[pos] > 12 {
			continue
		}
		switch {
		case cardinality < bestCardinality:
			monthPos, bestCardinality, tied = pos, cardinality, false
		case cardinality == bestCardinality:
			tied = true
		}
	}
	if tied {
		monthPos = -1
	}
	if monthPos >= 0 {
		for _, pos := range rest {
			if pos != monthPos {
				dayPos = pos
			}
		}
		return DateFormat{Separator: separator, YearPos: yearPos, MonthPos: monthPos, DayPos: dayPos}
	}

	for _, pos := range rest {
		if maxima[pos] > 12 {
			dayPos = pos
			break
		}
	}
	if dayPos >= 0 {
		for _, pos := range rest {
			if pos != dayPos {
				monthPos = pos
			}
		}
		return DateFormat{Separator: separator, YearPos: yearPos, MonthPos: monthPos, DayPos: dayPos}
	}

	// All components <= 12 and nothing invariant.
	if yearPos == 0 {
		return iso
	}
	// Year at the end, e.g. dd-mm-yyyy headers; keep day-month order.
	return DateFormat{Separator: separator, YearPos: yearPos, MonthPos: rest[1], DayPos: rest[0], Assumed: true}
}

var separators = []string{"-", "/", "."}

// splitComponents extracts the three numeric date components of a value.
// The date part is the token before any time-of-day suffix.
func splitComponents(value string) ([3]int, string, bool) {
	datePart := strings.TrimSpace(value)
	if idx := strings.IndexAny(datePart, " T"); idx > 0 {
		datePart = datePart[:idx]
	}

	for _, sep := range separators {
		parts := strings.Split(datePart, sep)
		if len(parts) != 3 {
			continue
		}
		var components [3]int
		valid := true
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 {
				valid = false
				break
			}
			components[i] = n
		}
		if valid {
			return components, sep, true
		}
	}

	return [3]int{}, "", false
}
