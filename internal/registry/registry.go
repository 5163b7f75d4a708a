package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"reportaudit/internal/common"
	"reportaudit/internal/model"
)

// Registry holds every configured report type for the process lifetime.
// Iteration order equals configuration discovery order and is used as the
// detection tie-break.
type Registry struct {
	byID  map[string]*Definition
	order []*Definition
}

// LoadDir reads every *.yaml unit in dir, one report type per file, in
// lexical file order. Any schema violation is a configuration error that
// aborts startup, enumerated with the offending type id and field.
func LoadDir(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report-type directory %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	defs := make([]*Definition, 0, len(files))
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read report-type unit %q: %w", file, err)
		}
		var def Definition
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return nil, common.NewConfigError(filepath.Base(file), "yaml", err)
		}
		defs = append(defs, &def)
	}

	return Load(defs)
}

// Load validates and indexes the given definitions, preserving their order.
func Load(defs []*Definition) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Definition, len(defs))}

	for _, def := range defs {
		if err := validate(def); err != nil {
			return nil, err
		}
		if !def.IsEnabled() {
			slog.Debug("Skipping disabled report type", "type_id", def.ID)
			continue
		}
		if _, dup := r.byID[def.ID]; dup {
			return nil, common.NewConfigError(def.ID, "id", fmt.Errorf("duplicate report type id"))
		}
		r.byID[def.ID] = def
		r.order = append(r.order, def)
	}

	slog.Info("Loaded report type definitions", "count", len(r.order))
	return r, nil
}

// Get returns the definition for id or common.ErrNotFound.
func (r *Registry) Get(id string) (*Definition, error) {
	def, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("report type %q: %w", id, common.ErrNotFound)
	}
	return def, nil
}

// All returns every enabled definition in discovery order.
func (r *Registry) All() []*Definition {
	return r.order
}

// TypeIDs returns the ids of all enabled definitions in discovery order.
func (r *Registry) TypeIDs() []string {
	ids := make([]string, len(r.order))
	for i, def := range r.order {
		ids[i] = def.ID
	}
	return ids
}

// Options returns the selectable report types for interactive prompts.
func (r *Registry) Options() []model.TypeOption {
	options := make([]model.TypeOption, len(r.order))
	for i, def := range r.order {
		options[i] = model.TypeOption{ID: def.ID, Name: def.Name, Description: def.Description}
	}
	return options
}

func validate(def *Definition) error {
	if def.ID == "" {
		return common.NewConfigError("", "id", fmt.Errorf("report type id is required"))
	}

	hasPatterns := len(def.FilenamePatterns) > 0
	hasIdentifiers := !def.Content.Empty()
	if !hasPatterns && !hasIdentifiers {
		return common.NewConfigError(def.ID, "identification",
			fmt.Errorf("at least one of filename_patterns or content_identifiers is required"))
	}

	def.compiledPatterns = make([]*regexp.Regexp, 0, len(def.FilenamePatterns))
	for _, pattern := range def.FilenamePatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return common.NewConfigError(def.ID, "filename_patterns", fmt.Errorf("malformed pattern %q: %w", pattern, err))
		}
		def.compiledPatterns = append(def.compiledPatterns, re)
	}

	if def.Content.MinMatches < 0 {
		return common.NewConfigError(def.ID, "content_identifiers.min_matches", fmt.Errorf("must not be negative"))
	}

	seenChecks := make(map[string]bool, len(def.Checks))
	for i := range def.Checks {
		if err := def.Checks[i].Validate(); err != nil {
			return common.NewConfigError(def.ID, "checks", err)
		}
		if seenChecks[def.Checks[i].ID] {
			return common.NewConfigError(def.ID, "checks", fmt.Errorf("duplicate check id %q", def.Checks[i].ID))
		}
		seenChecks[def.Checks[i].ID] = true
	}

	if def.Scoring.BaseScore < 0 || def.Scoring.BaseScore > 100 {
		return common.NewConfigError(def.ID, "scoring.base_score", fmt.Errorf("must be within [0,100], got %g", def.Scoring.BaseScore))
	}
	for i := range def.Scoring.Deductions {
		if err := def.Scoring.Deductions[i].Compile(); err != nil {
			return common.NewConfigError(def.ID, "scoring.deductions", err)
		}
	}

	if def.FuzzyThreshold < 0 || def.FuzzyThreshold > 1 {
		return common.NewConfigError(def.ID, "fuzzy_threshold", fmt.Errorf("must be within [0,1], got %g", def.FuzzyThreshold))
	}

	return nil
}
