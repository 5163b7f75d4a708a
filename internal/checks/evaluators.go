package checks

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"reportaudit/internal/model"
)

// checkColumnValidation fails when any required logical field cannot be
// resolved against the table's columns.
func (e *Engine) checkColumnValidation(def Definition) (model.CheckResult, error) {
	required := cast.ToStringSlice(def.Parameters["required_fields"])
	if len(required) == 0 {
		return model.CheckResult{}, fmt.Errorf("column_validation requires a required_fields parameter")
	}

	var missing []string
	for _, field := range required {
		if _, ok := e.ResolveField(field); !ok {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return model.CheckResult{
			Name:    "Vollständigkeitsprüfung",
			Outcome: model.OutcomeFailed,
			Message: fmt.Sprintf("Pflichtfelder fehlen: %s", strings.Join(missing, ", ")),
			Details: map[string]any{"missing_fields": missing, "required_fields": required},
		}, nil
	}

	return model.CheckResult{
		Name:    "Vollständigkeitsprüfung",
		Outcome: model.OutcomePassed,
		Message: "Alle Pflichtfelder vorhanden",
		Details: map[string]any{"required_fields": required},
	}, nil
}

// checkThreshold counts rows whose resolved column's value equals the
// target value, or falls into the target value class, and fails when the
// count exceeds max_count or the share exceeds max_percentage.
func (e *Engine) checkThreshold(def Definition) (model.CheckResult, error) {
	field := cast.ToString(def.Parameters["field"])
	if field == "" {
		return model.CheckResult{}, fmt.Errorf("threshold requires a field parameter")
	}

	column, ok := e.ResolveField(field)
	if !ok {
		return model.CheckResult{}, fmt.Errorf("field %q did not resolve to any column", field)
	}

	valueClass := cast.ToString(def.Parameters["value_class"])
	target := cast.ToString(def.Parameters["value"])
	maxCount, hasMaxCount := def.Parameters["max_count"]
	maxPercentage, hasMaxPercentage := def.Parameters["max_percentage"]

	count := 0
	var rows []int
	for i, row := range e.table.Rows {
		var hit bool
		if valueClass != "" {
			hit = e.ClassifyValue(field, row[column]) == valueClass
		} else {
			hit = equalNormalized(row[column], target)
		}
		if hit {
			count++
			rows = append(rows, i)
		}
	}

	total := len(e.table.Rows)
	percentage := 0.0
	if total > 0 {
		percentage = float64(count) / float64(total) * 100
	}

	passed := true
	if hasMaxCount && count > cast.ToInt(maxCount) {
		passed = false
	}
	if hasMaxPercentage && percentage > cast.ToFloat64(maxPercentage) {
		passed = false
	}

	outcome := model.OutcomePassed
	if !passed {
		outcome = model.OutcomeFailed
	}

	return model.CheckResult{
		Name:    "Schwellwertprüfung",
		Outcome: outcome,
		Message: fmt.Sprintf("%d von %d Zeilen betroffen (%.1f%%)", count, total, percentage),
		Details: map[string]any{
			"count":      count,
			"total":      total,
			"percentage": percentage,
			"rows":       rows,
		},
	}, nil
}

// checkDateValidation resolves the date column, detects its format over the
// whole column (mixed formats are unsupported), and flags unparsable rows
// as failures. With check_continuity it additionally reports gap days inside
// the detected reporting month as a warning.
func (e *Engine) checkDateValidation(def Definition) (model.CheckResult, error) {
	field := cast.ToString(def.Parameters["field"])
	if field == "" {
		return model.CheckResult{}, fmt.Errorf("date_validation requires a field parameter")
	}

	column, ok := e.ResolveField(field)
	if !ok {
		return model.CheckResult{}, fmt.Errorf("field %q did not resolve to any column", field)
	}

	values := e.table.Column(column)
	format := DetectFormat(values)

	var invalidRows []int
	parsed := make([]ParsedDate, 0, len(values))
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			invalidRows = append(invalidRows, i)
			continue
		}
		d, err := format.Parse(v)
		if err != nil {
			invalidRows = append(invalidRows, i)
			continue
		}
		parsed = append(parsed, d)
	}

	details := map[string]any{
		"detected_format": format.String(),
		"format_assumed":  format.Assumed,
		"valid_rows":      len(parsed),
		"invalid_rows":    invalidRows,
	}

	if len(invalidRows) > 0 {
		return model.CheckResult{
			Name:    "Datumsprüfung",
			Outcome: model.OutcomeFailed,
			Message: fmt.Sprintf("%d Zeilen mit ungültigem Datum", len(invalidRows)),
			Details: details,
		}, nil
	}

	if cast.ToBool(def.Parameters["check_continuity"]) && len(parsed) > 0 {
		year, month, ok := ReportMonth(parsed)
		if ok {
			missing := MissingDays(year, month, presentDays(parsed, year, month))
			details["report_month"] = fmt.Sprintf("%04d-%02d", year, month)
			details["missing_days"] = missing
			if len(missing) > 0 {
				return model.CheckResult{
					Name:     "Datumsprüfung",
					Outcome:  model.OutcomeWarning,
					Severity: model.SeverityLow,
					Message:  fmt.Sprintf("%d Tage ohne Einträge im Berichtsmonat", len(missing)),
					Details:  details,
				}, nil
			}
		}
	}

	return model.CheckResult{
		Name:    "Datumsprüfung",
		Outcome: model.OutcomePassed,
		Message: fmt.Sprintf("%d gültige Datumswerte", len(parsed)),
		Details: details,
	}, nil
}

// checkDataQuality scans for rows with empty required fields and for
// duplicate natural keys.
func (e *Engine) checkDataQuality(def Definition) (model.CheckResult, error) {
	requiredFields := cast.ToStringSlice(def.Parameters["required_fields"])
	keyFields := cast.ToStringSlice(def.Parameters["key_fields"])

	var issues []string
	details := map[string]any{}

	if len(requiredFields) > 0 {
		var emptyRows []int
		columns := make(map[string]string, len(requiredFields))
		for _, field := range requiredFields {
			if column, ok := e.ResolveField(field); ok {
				columns[field] = column
			}
		}
		for i, row := range e.table.Rows {
			for _, column := range columns {
				if strings.TrimSpace(row[column]) == "" {
					emptyRows = append(emptyRows, i)
					break
				}
			}
		}
		if len(emptyRows) > 0 {
			issues = append(issues, fmt.Sprintf("%d Zeilen mit leeren Pflichtfeldern", len(emptyRows)))
			details["empty_rows"] = emptyRows
		}
	}

	if len(keyFields) > 0 {
		var keyColumns []string
		for _, field := range keyFields {
			if column, ok := e.ResolveField(field); ok {
				keyColumns = append(keyColumns, column)
			}
		}
		if len(keyColumns) == len(keyFields) {
			seen := make(map[string]int)
			var duplicateRows []int
			for i, row := range e.table.Rows {
				parts := make([]string, 0, len(keyColumns))
				for _, column := range keyColumns {
					parts = append(parts, strings.TrimSpace(row[column]))
				}
				key := strings.Join(parts, "\x1f")
				if _, dup := seen[key]; dup {
					duplicateRows = append(duplicateRows, i)
				} else {
					seen[key] = i
				}
			}
			if len(duplicateRows) > 0 {
				issues = append(issues, fmt.Sprintf("%d Zeilen mit doppelten Schlüsseln", len(duplicateRows)))
				details["duplicate_rows"] = duplicateRows
			}
		}
	}

	if len(issues) > 0 {
		return model.CheckResult{
			Name:    "Datenqualitätsprüfung",
			Outcome: model.OutcomeFailed,
			Message: strings.Join(issues, "; "),
			Details: details,
		}, nil
	}

	return model.CheckResult{
		Name:    "Datenqualitätsprüfung",
		Outcome: model.OutcomePassed,
		Message: "Keine Datenqualitätsprobleme gefunden",
		Details: details,
	}, nil
}

func equalNormalized(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func presentDays(dates []ParsedDate, year int, month int) map[int]bool {
	present := make(map[int]bool)
	for _, d := range dates {
		if d.Year == year && d.Month == month {
			present[d.Day] = true
		}
	}
	return present
}
