package analyze

import (
	"context"
	"strings"
	"time"

	"reportaudit/internal/checks"
	"reportaudit/internal/model"
	"reportaudit/internal/registry"
)

// inactivityCutoffDays is how long a device may go without a sign-in before
// it counts as inactive.
const (
	inactivityCutoffDays = 90
	// recentRegistrationDays is the window, relative to the report's newest
	// registration date, inside which a registration counts as recent.
	recentRegistrationDays = 30
)

// entraAnalyzer extends the generic metrics with device-inventory semantics:
// inactive devices by last sign-in age, ownerless devices, and the
// compliance split.
type entraAnalyzer struct {
	genericAnalyzer
}

func (a entraAnalyzer) Analyze(ctx context.Context, def *registry.Definition, table *model.ParsedTable) (Findings, error) {
	findings, err := a.genericAnalyzer.Analyze(ctx, def, table)
	if err != nil {
		return findings, err
	}

	engine := checks.NewEngine(table, def.FieldMappings, def.FuzzyThreshold)
	total := len(table.Rows)

	if column, ok := engine.ResolveField("last_signin"); ok {
		var values []string
		for _, row := range table.Rows {
			if v := strings.TrimSpace(row[column]); v != "" {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			format := checks.DetectFormat(values)
			reference := newestDate(values, format)
			cutoff := reference.AddDate(0, 0, -inactivityCutoffDays)
			inactive := 0
			for _, row := range table.Rows {
				raw := strings.TrimSpace(row[column])
				if raw == "" {
					inactive++
					continue
				}
				if date, err := format.Parse(raw); err == nil && date.Date().Before(cutoff) {
					inactive++
				}
			}
			findings.Metrics["inactive_device_count"] = float64(inactive)
			if total > 0 {
				findings.Metrics["inactive_device_rate"] = float64(inactive) / float64(total) * 100
			}
		}
	}

	if column, ok := engine.ResolveField("owner"); ok {
		ownerless := 0
		for _, row := range table.Rows {
			if strings.TrimSpace(row[column]) == "" {
				ownerless++
			}
		}
		findings.Metrics["ownerless_device_count"] = float64(ownerless)
	}

	if column, ok := engine.ResolveField("compliance"); ok {
		compliant := 0
		for _, row := range table.Rows {
			if engine.ClassifyValue("compliance", row[column]) == "compliant" {
				compliant++
			}
		}
		findings.Metrics["compliant_count"] = float64(compliant)
		findings.Metrics["noncompliant_count"] = float64(total - compliant)
		if total > 0 {
			findings.Metrics["compliance_rate"] = float64(compliant) / float64(total) * 100
		}
	}

	if column, ok := engine.ResolveField("registered"); ok {
		var values []string
		for _, row := range table.Rows {
			if v := strings.TrimSpace(row[column]); v != "" {
				values = append(values, v)
			}
		}
		if len(values) > 0 {
			format := checks.DetectFormat(values)
			reference := newestDate(values, format)
			window := reference.AddDate(0, 0, -recentRegistrationDays)
			recent := 0
			for _, value := range values {
				if date, err := format.Parse(value); err == nil && !date.Date().Before(window) {
					recent++
				}
			}
			findings.Metrics["recent_registration_count"] = float64(recent)
		}
	}

	findings.Fields["deviceCount"] = total
	return findings, nil
}

// newestDate finds the most recent parseable date; the inactivity window is
// anchored to the report's own horizon, not the wall clock, so re-analyzing
// an old report stays deterministic.
func newestDate(values []string, format checks.DateFormat) time.Time {
	var newest time.Time
	for _, value := range values {
		if date, err := format.Parse(value); err == nil {
			if t := date.Date(); t.After(newest) {
				newest = t
			}
		}
	}
	return newest
}
