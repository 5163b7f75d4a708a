package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportaudit/internal/model"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Condition
		wantErr bool
	}{
		{
			name:  "greater than",
			input: "failed_count > 0",
			want:  Condition{Field: "failed_count", Op: OpGreater, Value: 0},
		},
		{
			name:  "greater equal multi char",
			input: "missing_days >= 2",
			want:  Condition{Field: "missing_days", Op: OpGreaterEqual, Value: 2},
		},
		{
			name:  "less than rate",
			input: "success_rate < 90",
			want:  Condition{Field: "success_rate", Op: OpLess, Value: 90},
		},
		{
			name:  "equality",
			input: "total_rows == 0",
			want:  Condition{Field: "total_rows", Op: OpEqual, Value: 0},
		},
		{
			name:    "unknown operator",
			input:   "failed_count != 0",
			wantErr: true,
		},
		{
			name:    "non numeric value",
			input:   "failed_count > many",
			wantErr: true,
		},
		{
			name:    "missing field",
			input:   "> 3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConditionOccurrences(t *testing.T) {
	metrics := map[string]float64{
		"failed_count": 2,
		"success_rate": 88,
		"total_rows":   0,
	}

	tests := []struct {
		name      string
		condition string
		want      int
	}{
		{name: "count metric yields its value", condition: "failed_count > 0", want: 2},
		{name: "false condition yields zero", condition: "failed_count > 5", want: 0},
		{name: "rate metric yields its integer value", condition: "success_rate < 90", want: 88},
		{name: "equality yields one", condition: "total_rows == 0", want: 1},
		{name: "absent metric yields zero", condition: "missing_days > 0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition(tt.condition)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cond.Occurrences(metrics))
		})
	}
}

func compiled(t *testing.T, rules []Rule) []Rule {
	t.Helper()
	for i := range rules {
		require.NoError(t, rules[i].Compile())
	}
	return rules
}

func TestCalculate(t *testing.T) {
	t.Run("worked example", func(t *testing.T) {
		// Two failures at 10 points each plus one missing day at 5 points
		// deducts 25: score 75, mittel, mit_einschraenkungen.
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "failed_count > 0", Points: 10, PerOccurrence: true, MaxDeduction: 40},
				{Condition: "missing_days > 0", Points: 5, PerOccurrence: true, MaxDeduction: 30},
			}),
		}
		metrics := map[string]float64{"failed_count": 2, "missing_days": 1}

		result := Calculate(metrics, rules, false)
		assert.Equal(t, 75, result.Score)
		assert.Equal(t, model.RiskMedium, result.RiskLevel)
		assert.Equal(t, model.StatusLimited, result.Status)
		assert.Len(t, result.Deductions, 2)
	})

	t.Run("max deduction caps per occurrence points", func(t *testing.T) {
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "failed_count > 0", Points: 10, PerOccurrence: true, MaxDeduction: 40},
			}),
		}
		result := Calculate(map[string]float64{"failed_count": 9}, rules, false)
		assert.Equal(t, 60, result.Score)
		assert.Equal(t, 40.0, result.TotalDeductions)
	})

	t.Run("group bands are mutually exclusive", func(t *testing.T) {
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "success_rate < 70", Points: 40, Group: "success_band"},
				{Condition: "success_rate < 90", Points: 25, Group: "success_band"},
				{Condition: "success_rate < 95", Points: 10, Group: "success_band"},
			}),
		}
		// 88% matches the second and third band; only the first match in
		// configuration order applies.
		result := Calculate(map[string]float64{"success_rate": 88}, rules, false)
		assert.Equal(t, 75, result.Score)
		require.Len(t, result.Deductions, 1)
		assert.Equal(t, "success_rate < 90", result.Deductions[0].Condition)
	})

	t.Run("score clamps at zero", func(t *testing.T) {
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "failed_count > 0", Points: 50, PerOccurrence: true},
			}),
		}
		result := Calculate(map[string]float64{"failed_count": 10}, rules, false)
		assert.Equal(t, 0, result.Score)
		assert.Equal(t, model.RiskHigh, result.RiskLevel)
		assert.Equal(t, model.StatusError, result.Status)
	})

	t.Run("no deductions keeps base score", func(t *testing.T) {
		result := Calculate(map[string]float64{}, Rules{}, false)
		assert.Equal(t, 100, result.Score)
		assert.Equal(t, model.RiskLow, result.RiskLevel)
		assert.Equal(t, model.StatusOK, result.Status)
	})

	t.Run("hard check failure forces limited status", func(t *testing.T) {
		result := Calculate(map[string]float64{}, Rules{}, true)
		assert.Equal(t, 100, result.Score)
		assert.Equal(t, model.RiskLow, result.RiskLevel)
		assert.Equal(t, model.StatusLimited, result.Status)
	})

	t.Run("deterministic", func(t *testing.T) {
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "failed_count > 0", Points: 10, PerOccurrence: true},
				{Condition: "success_rate < 95", Points: 10},
			}),
		}
		metrics := map[string]float64{"failed_count": 1, "success_rate": 90}

		first := Calculate(metrics, rules, false)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Calculate(metrics, rules, false))
		}
	})

	t.Run("more failures never score higher", func(t *testing.T) {
		rules := Rules{
			Deductions: compiled(t, []Rule{
				{Condition: "failed_count > 0", Points: 10, PerOccurrence: true},
			}),
		}
		previous := 101
		for failures := 0; failures <= 12; failures++ {
			result := Calculate(map[string]float64{"failed_count": float64(failures)}, rules, false)
			assert.LessOrEqual(t, result.Score, previous)
			previous = result.Score
		}
	})
}

func TestThresholdsLevel(t *testing.T) {
	thresholds := DefaultThresholds()

	assert.Equal(t, model.RiskLow, thresholds.Level(100))
	assert.Equal(t, model.RiskLow, thresholds.Level(86))
	assert.Equal(t, model.RiskMedium, thresholds.Level(85))
	assert.Equal(t, model.RiskMedium, thresholds.Level(61))
	assert.Equal(t, model.RiskHigh, thresholds.Level(60))
	assert.Equal(t, model.RiskHigh, thresholds.Level(0))
}

func TestHasHardFailure(t *testing.T) {
	assert.False(t, HasHardFailure(nil))
	assert.False(t, HasHardFailure([]model.CheckResult{
		{Outcome: model.OutcomeFailed, Severity: model.SeverityLow},
		{Outcome: model.OutcomePassed, Severity: model.SeverityHigh},
	}))
	assert.True(t, HasHardFailure([]model.CheckResult{
		{Outcome: model.OutcomeFailed, Severity: model.SeverityMedium},
	}))
}
