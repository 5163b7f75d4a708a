package analyze

import (
	"context"

	"reportaudit/internal/checks"
	"reportaudit/internal/model"
	"reportaudit/internal/registry"
)

// keepitAnalyzer extends the generic metrics with per-connector breakdowns.
// Keepit exports one row per connector snapshot; a connector whose status
// never maps to a known class counts as missing status, which the scoring
// rules treat separately from outright failures.
type keepitAnalyzer struct {
	genericAnalyzer
}

func (a keepitAnalyzer) Analyze(ctx context.Context, def *registry.Definition, table *model.ParsedTable) (Findings, error) {
	findings, err := a.genericAnalyzer.Analyze(ctx, def, table)
	if err != nil {
		return findings, err
	}

	engine := checks.NewEngine(table, def.FieldMappings, def.FuzzyThreshold)
	statusColumn, haveStatus := engine.ResolveField("status")
	connectorColumn, haveConnector := engine.ResolveField("connector")

	if haveStatus {
		missing := 0
		for _, row := range table.Rows {
			class := engine.ClassifyValue("status", row[statusColumn])
			if class == "unknown" || row[statusColumn] == "" {
				missing++
			}
		}
		findings.Metrics["missing_status_count"] = float64(missing)
	}

	if haveConnector {
		perConnector := make(map[string]map[string]int)
		for _, row := range table.Rows {
			connector := row[connectorColumn]
			if connector == "" {
				connector = "(unnamed)"
			}
			if perConnector[connector] == nil {
				perConnector[connector] = make(map[string]int)
			}
			if haveStatus {
				perConnector[connector][engine.ClassifyValue("status", row[statusColumn])]++
			} else {
				perConnector[connector]["total"]++
			}
		}
		findings.Metrics["connector_count"] = float64(len(perConnector))
		findings.Fields["connectorBreakdown"] = perConnector

		failing := 0
		for _, counts := range perConnector {
			if counts["failed"] > 0 {
				failing++
			}
		}
		findings.Metrics["failing_connector_count"] = float64(failing)
	}

	if typeColumn, ok := engine.ResolveField("connector_type"); ok {
		perType := make(map[string]int)
		for _, row := range table.Rows {
			connectorType := row[typeColumn]
			if connectorType == "" {
				connectorType = "(untyped)"
			}
			perType[connectorType]++
		}
		findings.Fields["typeBreakdown"] = perType
	}

	return findings, nil
}
