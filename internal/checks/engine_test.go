package checks

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportaudit/internal/model"
)

func backupTable(rows []model.Row) *model.ParsedTable {
	return &model.ParsedTable{
		Columns: []string{"VM Name", "Status", "Datum"},
		Rows:    rows,
	}
}

func backupMappings() map[string]FieldMapping {
	return map[string]FieldMapping{
		"vm_name": {Alternatives: []string{"VM Name", "Object"}},
		"status": {
			Alternatives: []string{"Status", "Result"},
			Values: map[string][]string{
				"success": {"Success", "Erfolgreich"},
				"warning": {"Warning", "Warnung"},
				"failed":  {"Failed", "Fehler"},
			},
		},
		"date": {Alternatives: []string{"Datum", "Date"}},
	}
}

func TestEngineResolveField(t *testing.T) {
	engine := NewEngine(backupTable(nil), backupMappings(), 0)

	t.Run("alternative resolves", func(t *testing.T) {
		column, ok := engine.ResolveField("vm_name")
		require.True(t, ok)
		assert.Equal(t, "VM Name", column)
	})

	t.Run("unmapped logical name misses", func(t *testing.T) {
		_, ok := engine.ResolveField("connector")
		assert.False(t, ok)
	})
}

func TestEngineClassifyValue(t *testing.T) {
	engine := NewEngine(backupTable(nil), backupMappings(), 0)

	assert.Equal(t, "success", engine.ClassifyValue("status", "Erfolgreich"))
	assert.Equal(t, "failed", engine.ClassifyValue("status", "Fehlgeschlagen: Fehler"))
	assert.Equal(t, "unknown", engine.ClassifyValue("status", "gelöscht"))
	// Fields without value classes return the normalized raw value.
	assert.Equal(t, "web01", engine.ClassifyValue("vm_name", "WEB 01"))
}

func TestColumnValidation(t *testing.T) {
	table := backupTable([]model.Row{{"VM Name": "web01", "Status": "Success", "Datum": "2025-10-01"}})

	t.Run("all present", func(t *testing.T) {
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:       "required_columns",
			Type:     TypeColumnValidation,
			Severity: model.SeverityHigh,
			Parameters: map[string]any{
				"required_fields": []string{"vm_name", "status", "date"},
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomePassed, results[0].Outcome)
	})

	t.Run("missing field fails with names", func(t *testing.T) {
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:       "required_columns",
			Type:     TypeColumnValidation,
			Severity: model.SeverityHigh,
			Parameters: map[string]any{
				"required_fields": []string{"vm_name", "connector"},
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomeFailed, results[0].Outcome)
		assert.Equal(t, model.SeverityHigh, results[0].Severity)
		assert.Contains(t, results[0].Message, "connector")
	})
}

func TestThresholdCheck(t *testing.T) {
	table := backupTable([]model.Row{
		{"VM Name": "web01", "Status": "Success", "Datum": "2025-10-01"},
		{"VM Name": "web02", "Status": "Failed", "Datum": "2025-10-01"},
		{"VM Name": "db01", "Status": "Fehler", "Datum": "2025-10-01"},
		{"VM Name": "db02", "Status": "Success", "Datum": "2025-10-01"},
	})

	t.Run("value class count over limit fails", func(t *testing.T) {
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:   "failed_jobs",
			Type: TypeThreshold,
			Parameters: map[string]any{
				"field":       "status",
				"value_class": "failed",
				"max_count":   0,
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomeFailed, results[0].Outcome)
		assert.Equal(t, 2, results[0].Details["count"])
		assert.Equal(t, []int{1, 2}, results[0].Details["rows"])
	})

	t.Run("percentage within limit passes", func(t *testing.T) {
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:   "failed_jobs",
			Type: TypeThreshold,
			Parameters: map[string]any{
				"field":          "status",
				"value_class":    "failed",
				"max_percentage": 50,
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomePassed, results[0].Outcome)
	})

	t.Run("literal value match ignores case", func(t *testing.T) {
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:   "exact",
			Type: TypeThreshold,
			Parameters: map[string]any{
				"field":     "status",
				"value":     "failed",
				"max_count": 0,
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Details["count"])
	})
}

func TestDateValidationCheck(t *testing.T) {
	t.Run("invalid rows fail", func(t *testing.T) {
		table := backupTable([]model.Row{
			{"VM Name": "web01", "Status": "Success", "Datum": "2025-10-01"},
			{"VM Name": "web02", "Status": "Success", "Datum": "kein datum"},
		})
		engine := NewEngine(table, backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:         "dates",
			Type:       TypeDateValidation,
			Parameters: map[string]any{"field": "date"},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomeFailed, results[0].Outcome)
		assert.Equal(t, []int{1}, results[0].Details["invalid_rows"])
	})

	t.Run("continuity gap is a low severity warning", func(t *testing.T) {
		rows := make([]model.Row, 0, 30)
		for day := 1; day <= 30; day++ {
			if day == 15 {
				continue
			}
			rows = append(rows, model.Row{
				"VM Name": "web01",
				"Status":  "Success",
				"Datum":   "2025-09-" + pad(day),
			})
		}
		engine := NewEngine(backupTable(rows), backupMappings(), 0)
		results := engine.Run([]Definition{{
			ID:   "dates",
			Type: TypeDateValidation,
			Parameters: map[string]any{
				"field":            "date",
				"check_continuity": true,
			},
		}})
		require.Len(t, results, 1)
		assert.Equal(t, model.OutcomeWarning, results[0].Outcome)
		assert.Equal(t, model.SeverityLow, results[0].Severity)
		assert.Equal(t, []int{15}, results[0].Details["missing_days"])
	})
}

func TestDataQualityCheck(t *testing.T) {
	table := backupTable([]model.Row{
		{"VM Name": "web01", "Status": "Success", "Datum": "2025-10-01"},
		{"VM Name": "", "Status": "Success", "Datum": "2025-10-02"},
		{"VM Name": "web01", "Status": "Failed", "Datum": "2025-10-01"},
	})
	engine := NewEngine(table, backupMappings(), 0)
	results := engine.Run([]Definition{{
		ID:   "quality",
		Type: TypeDataQuality,
		Parameters: map[string]any{
			"required_fields": []string{"vm_name"},
			"key_fields":      []string{"vm_name", "date"},
		},
	}})
	require.Len(t, results, 1)
	assert.Equal(t, model.OutcomeFailed, results[0].Outcome)
	assert.Equal(t, []int{1}, results[0].Details["empty_rows"])
	assert.Equal(t, []int{2}, results[0].Details["duplicate_rows"])
}

func TestEngineFaultEscalation(t *testing.T) {
	// A threshold check on a field no column resolves is an evaluator
	// fault: it must become a failed result at high severity without
	// stopping the remaining checks.
	table := backupTable([]model.Row{{"VM Name": "web01", "Status": "Success", "Datum": "2025-10-01"}})
	engine := NewEngine(table, backupMappings(), 0)

	results := engine.Run([]Definition{
		{
			ID:         "broken",
			Type:       TypeThreshold,
			Severity:   model.SeverityLow,
			Parameters: map[string]any{"field": "connector", "max_count": 0},
		},
		{
			ID:         "still_runs",
			Type:       TypeColumnValidation,
			Parameters: map[string]any{"required_fields": []string{"status"}},
		},
	})

	require.Len(t, results, 2)
	assert.Equal(t, model.OutcomeFailed, results[0].Outcome)
	assert.Equal(t, model.SeverityHigh, results[0].Severity)
	assert.Equal(t, "broken", results[0].CheckID)
	assert.Equal(t, model.OutcomePassed, results[1].Outcome)
}

func pad(day int) string {
	return fmt.Sprintf("%02d", day)
}
