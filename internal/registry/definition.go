// Package registry loads and holds the report-type definitions: one
// declarative YAML unit per type with identification rules, field mappings,
// check definitions, and scoring rules. Definitions are immutable after
// load and shared read-only across all analyses in a run.
package registry

import (
	"regexp"

	"reportaudit/internal/checks"
	"reportaudit/internal/score"
)

// ContentIdentifiers drive the content detection stage. Columns are logical
// field names resolved through fuzzy field mapping; keywords are searched in
// the extracted text case- and diacritic-insensitively.
type ContentIdentifiers struct {
	RequiredColumns  []string `yaml:"required_columns"`
	OptionalColumns  []string `yaml:"optional_columns"`
	RequiredKeywords []string `yaml:"required_keywords"`
	OptionalKeywords []string `yaml:"optional_keywords"`
	MinMatches       int      `yaml:"min_matches"`
}

// Empty reports whether no content identifiers are configured.
func (c ContentIdentifiers) Empty() bool {
	return len(c.RequiredColumns) == 0 && len(c.RequiredKeywords) == 0
}

// Definition is one report type's complete configuration.
type Definition struct {
	FieldMappings    map[string]checks.FieldMapping `yaml:"field_mappings"`
	ID               string                         `yaml:"id"`
	Name             string                         `yaml:"name"`
	Description      string                         `yaml:"description"`
	FilenamePatterns []string                       `yaml:"filename_patterns"`
	Checks           []checks.Definition            `yaml:"checks"`
	Content          ContentIdentifiers             `yaml:"content_identifiers"`
	Scoring          score.Rules                    `yaml:"scoring"`
	FuzzyThreshold   float64                        `yaml:"fuzzy_threshold"`
	Enabled          *bool                          `yaml:"enabled"`

	compiledPatterns []*regexp.Regexp
}

// IsEnabled reports whether the type participates in detection and
// analysis. Types are enabled unless the unit says otherwise.
func (d *Definition) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// MatchFilename tests a file name against the type's patterns in
// configuration order and returns the first matching pattern. Patterns are
// case-insensitive and unanchored: they match anywhere in the name, so
// 'veeam' also hits "monthly_veeam_export.csv". Units that need a prefix or
// full-name match anchor their patterns with ^ and $ themselves.
func (d *Definition) MatchFilename(name string) (string, bool) {
	for i, re := range d.compiledPatterns {
		if re.MatchString(name) {
			return d.FilenamePatterns[i], true
		}
	}
	return "", false
}
