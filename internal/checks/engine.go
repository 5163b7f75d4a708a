package checks

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"reportaudit/internal/match"
	"reportaudit/internal/model"
)

// Engine evaluates check definitions against one parsed table. Column
// access goes through fuzzy field mapping; literal header lookups are never
// used.
type Engine struct {
	table     *model.ParsedTable
	mappings  map[string]FieldMapping
	resolved  map[string]string
	threshold float64
}

// NewEngine creates a check engine for the given table and field mappings.
// A non-positive threshold falls back to the default similarity bar.
func NewEngine(table *model.ParsedTable, mappings map[string]FieldMapping, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = match.DefaultFieldThreshold
	}
	return &Engine{
		table:     table,
		mappings:  mappings,
		threshold: threshold,
		resolved:  make(map[string]string),
	}
}

// Run executes each check in configuration order and returns one result per
// definition. A check's own internal error produces a failed result with
// severity escalated to at least high; it never aborts the remaining checks.
func (e *Engine) Run(defs []Definition) []model.CheckResult {
	results := make([]model.CheckResult, 0, len(defs))
	for _, def := range defs {
		results = append(results, e.runOne(def))
	}
	return results
}

func (e *Engine) runOne(def Definition) model.CheckResult {
	severity := def.Severity
	if severity == "" {
		severity = model.SeverityMedium
	}

	var (
		result model.CheckResult
		err    error
	)

	switch def.Type {
	case TypeColumnValidation:
		result, err = e.checkColumnValidation(def)
	case TypeThreshold:
		result, err = e.checkThreshold(def)
	case TypeDateValidation:
		result, err = e.checkDateValidation(def)
	case TypeDataQuality:
		result, err = e.checkDataQuality(def)
	default:
		// Unknown types are rejected at load time; reaching this means the
		// definition bypassed the registry.
		err = fmt.Errorf("unknown check type %q", def.Type)
	}

	if err != nil {
		slog.Error("Check evaluation fault", "check_id", def.ID, "error", err)
		return model.CheckResult{
			CheckID:  def.ID,
			Name:     def.Name,
			Outcome:  model.OutcomeFailed,
			Severity: severity.Escalate(model.SeverityHigh),
			Message:  fmt.Sprintf("check execution failed: %v", err),
		}
	}

	result.CheckID = def.ID
	if def.Name != "" {
		result.Name = def.Name
	}
	if result.Severity == "" {
		result.Severity = severity
	}
	return result
}

// ResolveField maps a logical field name to an actual table column using
// fuzzy matching over the configured alternatives. Resolutions are cached
// per engine since the table does not change.
func (e *Engine) ResolveField(logical string) (string, bool) {
	if column, ok := e.resolved[logical]; ok {
		return column, column != ""
	}

	alternatives := []string{logical}
	if mapping, ok := e.mappings[logical]; ok {
		alternatives = append(alternatives, mapping.Alternatives...)
	}

	column, ok := match.MatchField(e.table.Columns, alternatives, e.threshold)
	if !ok {
		e.resolved[logical] = ""
		return "", false
	}
	e.resolved[logical] = column
	return column, true
}

// ClassifyValue maps a raw cell value to its configured value class for the
// logical field (e.g. "Erfolgreich" -> "success"). Returns "unknown" when no
// class matches, or the normalized raw value when the field has no classes.
func (e *Engine) ClassifyValue(logical, raw string) string {
	mapping, ok := e.mappings[logical]
	if !ok || len(mapping.Values) == 0 {
		return match.Normalize(raw)
	}

	normalized := match.Normalize(raw)
	classes := make([]string, 0, len(mapping.Values))
	for class := range mapping.Values {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		for _, alt := range mapping.Values[class] {
			if alt == "" {
				continue
			}
			if strings.Contains(normalized, match.Normalize(alt)) {
				return class
			}
		}
	}
	return "unknown"
}

// Table returns the engine's table.
func (e *Engine) Table() *model.ParsedTable {
	return e.table
}
