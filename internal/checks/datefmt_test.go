package checks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		values      []string
		wantFormat  string
		wantAssumed bool
	}{
		{
			name:       "iso with days above twelve",
			values:     []string{"2025-10-01", "2025-10-15", "2025-10-31"},
			wantFormat: "yyyy-mm-dd",
		},
		{
			name:       "german dotted day first",
			values:     []string{"01.10.2025", "15.10.2025", "31.10.2025"},
			wantFormat: "dd.mm.yyyy",
		},
		{
			name:       "us slash month first",
			values:     []string{"10/01/2025", "10/15/2025", "10/31/2025"},
			wantFormat: "mm/dd/yyyy",
		},
		{
			name: "invariant month even when all days are small",
			// Day position varies over 3 distinct small values, month
			// position holds a single value: the invariant one is the month.
			values:     []string{"03.10.2025", "04.10.2025", "05.10.2025"},
			wantFormat: "dd.mm.yyyy",
		},
		{
			name: "month rollover keeps invariance",
			values: []string{
				"30.09.2025", "01.10.2025", "02.10.2025",
			},
			wantFormat: "dd.mm.yyyy",
		},
		{
			name: "single invariant position wins over two-value position",
			// Both positions stay plausible as months, but only one holds a
			// single value: {3,4} varies, {10} does not, so 10 is the month.
			values:     []string{"03.10.2025", "04.10.2025"},
			wantFormat: "dd.mm.yyyy",
		},
		{
			name: "equally invariant positions stay ambiguous",
			values: []string{
				"2025-03-04", "2025-03-04", "2025-05-06",
			},
			wantFormat:  "yyyy-mm-dd",
			wantAssumed: true,
		},
		{
			name:        "ambiguous falls back to iso order",
			values:      []string{"2025-03-04", "2025-05-06", "2025-07-08"},
			wantFormat:  "yyyy-mm-dd",
			wantAssumed: true,
		},
		{
			name:        "empty input assumes iso",
			values:      nil,
			wantFormat:  "yyyy-mm-dd",
			wantAssumed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format := DetectFormat(tt.values)
			if tt.values == nil {
				// No separator observed; only the assumption flag matters.
				assert.True(t, format.Assumed)
				return
			}
			assert.Equal(t, tt.wantFormat, format.String())
			assert.Equal(t, tt.wantAssumed, format.Assumed)
		})
	}
}

func TestDetectFormatRoundTrip(t *testing.T) {
	// Every value of a full October must parse back to its own day under
	// the detected format.
	values := make([]string, 0, 31)
	for day := 1; day <= 31; day++ {
		values = append(values, fmt.Sprintf("%02d.10.2025", day))
	}

	format := DetectFormat(values)
	require.Equal(t, "dd.mm.yyyy", format.String())
	require.False(t, format.Assumed)

	for day, value := range values {
		date, err := format.Parse(value)
		require.NoError(t, err)
		assert.Equal(t, ParsedDate{Year: 2025, Month: 10, Day: day + 1}, date)
	}
}

func TestDateFormatParse(t *testing.T) {
	iso := DateFormat{Separator: "-", YearPos: 0, MonthPos: 1, DayPos: 2}

	t.Run("time suffix ignored", func(t *testing.T) {
		date, err := iso.Parse("2025-10-05 14:30:00")
		require.NoError(t, err)
		assert.Equal(t, ParsedDate{Year: 2025, Month: 10, Day: 5}, date)
	})

	t.Run("t separator ignored", func(t *testing.T) {
		date, err := iso.Parse("2025-10-05T14:30:00")
		require.NoError(t, err)
		assert.Equal(t, 5, date.Day)
	})

	t.Run("two digit year expands", func(t *testing.T) {
		german := DateFormat{Separator: ".", YearPos: 2, MonthPos: 1, DayPos: 0}
		date, err := german.Parse("05.10.25")
		require.NoError(t, err)
		assert.Equal(t, 2025, date.Year)
	})

	t.Run("month out of range", func(t *testing.T) {
		_, err := iso.Parse("2025-13-05")
		assert.Error(t, err)
	})

	t.Run("day out of range for month", func(t *testing.T) {
		_, err := iso.Parse("2025-02-30")
		assert.Error(t, err)
	})

	t.Run("not a date", func(t *testing.T) {
		_, err := iso.Parse("n/a")
		assert.Error(t, err)
	})
}
