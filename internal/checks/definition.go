// Package checks executes the configured correctness checks of a report
// type against a parsed table. The check vocabulary is a closed set;
// unknown check types are a configuration error surfaced at load time.
package checks

import (
	"fmt"

	"reportaudit/internal/model"
)

// Check types. This is the complete vocabulary; the registry rejects
// anything else at load time.
const (
	TypeColumnValidation = "column_validation"
	TypeThreshold        = "threshold"
	TypeDateValidation   = "date_validation"
	TypeDataQuality      = "data_quality"
)

var knownTypes = map[string]bool{
	TypeColumnValidation: true,
	TypeThreshold:        true,
	TypeDateValidation:   true,
	TypeDataQuality:      true,
}

// Definition is one configured check: a type tag from the fixed vocabulary,
// an opaque parameter bag interpreted by the check's evaluator, and a
// severity applied when it fails.
type Definition struct {
	Parameters map[string]any `yaml:"parameters"`
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Severity   model.Severity `yaml:"severity"`
}

// Validate rejects definitions outside the closed vocabulary.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("check has no id")
	}
	if !knownTypes[d.Type] {
		return fmt.Errorf("check %q has unknown type %q", d.ID, d.Type)
	}
	switch d.Severity {
	case model.SeverityLow, model.SeverityMedium, model.SeverityHigh, "":
	default:
		return fmt.Errorf("check %q has unknown severity %q", d.ID, d.Severity)
	}
	return nil
}

// FieldMapping maps one logical field to the accepted spellings of its
// column header, plus optional value classes (e.g. which raw status strings
// count as "failed").
type FieldMapping struct {
	Values       map[string][]string `yaml:"values"`
	Alternatives []string            `yaml:"alternatives"`
}
