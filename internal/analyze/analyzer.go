// Package analyze turns a detected, parsed report into a scored analysis
// result. A generic analyzer handles any configured type through the check
// engine and scoring rules; report types with richer domain semantics
// (Veeam, Keepit, Entra) register specialized analyzers that extend the
// generic metrics.
package analyze

import (
	"context"
	"fmt"
	"strings"

	"reportaudit/internal/checks"
	"reportaudit/internal/model"
	"reportaudit/internal/registry"
)

// Findings is everything an analyzer extracts from one table: the check
// results in configuration order, the numeric metrics scoring conditions
// reference, and display fields for the output document.
type Findings struct {
	Metrics map[string]float64
	Fields  map[string]any
	Checks  []model.CheckResult
}

// Analyzer evaluates one report type's table.
type Analyzer interface {
	Analyze(ctx context.Context, def *registry.Definition, table *model.ParsedTable) (Findings, error)
}

// genericAnalyzer covers any report type straight from configuration: run
// the configured checks, then derive metrics from the status and date
// columns the field mappings describe.
type genericAnalyzer struct{}

func (genericAnalyzer) Analyze(_ context.Context, def *registry.Definition, table *model.ParsedTable) (Findings, error) {
	engine := checks.NewEngine(table, def.FieldMappings, def.FuzzyThreshold)
	findings := Findings{
		Checks:  engine.Run(def.Checks),
		Metrics: make(map[string]float64),
		Fields:  make(map[string]any),
	}
	collectBaseMetrics(engine, def, &findings)
	return findings, nil
}

// collectBaseMetrics fills the metric names scoring conditions use:
// total_rows, one <class>_count per configured status class, success_rate,
// and date-coverage metrics when a date column resolves.
func collectBaseMetrics(engine *checks.Engine, def *registry.Definition, findings *Findings) {
	table := engine.Table()
	total := len(table.Rows)
	findings.Metrics["total_rows"] = float64(total)

	if column, ok := engine.ResolveField("status"); ok {
		counts := make(map[string]int)
		for _, row := range table.Rows {
			counts[engine.ClassifyValue("status", row[column])]++
		}
		for class, count := range counts {
			findings.Metrics[class+"_count"] = float64(count)
		}
		if total > 0 {
			findings.Metrics["success_rate"] = float64(counts["success"]) / float64(total) * 100
		}
		findings.Fields["statusBreakdown"] = counts
	}

	dates, format, ok := parseDateColumn(engine, "date")
	if !ok {
		return
	}
	findings.Fields["dateFormat"] = format.String()
	if format.Assumed {
		findings.Fields["dateFormatAssumed"] = true
	}

	year, month, ok := checks.ReportMonth(dates)
	if !ok {
		return
	}
	missing := checks.MissingDays(year, month, presentDays(dates, year, month))
	findings.Metrics["missing_days"] = float64(len(missing))
	findings.Fields["reportPeriod"] = periodLabel(year, month)
	if len(missing) > 0 {
		findings.Fields["missingDays"] = missing
	}
}

// parseDateColumn resolves a logical date field and parses every non-empty
// value under the detected format. Unparseable values are skipped here; the
// date_validation check reports them.
func parseDateColumn(engine *checks.Engine, logical string) ([]checks.ParsedDate, checks.DateFormat, bool) {
	column, ok := engine.ResolveField(logical)
	if !ok {
		return nil, checks.DateFormat{}, false
	}

	table := engine.Table()
	values := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if v := strings.TrimSpace(row[column]); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, checks.DateFormat{}, false
	}

	format := checks.DetectFormat(values)
	dates := make([]checks.ParsedDate, 0, len(values))
	for _, value := range values {
		if date, err := format.Parse(value); err == nil {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return nil, format, false
	}
	return dates, format, true
}

func periodLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func presentDays(dates []checks.ParsedDate, year, month int) map[int]bool {
	present := make(map[int]bool)
	for _, d := range dates {
		if d.Year == year && d.Month == month {
			present[d.Day] = true
		}
	}
	return present
}
