// Package detect assigns an unknown input file to a known report type via a
// staged decision procedure: filename patterns, content identifiers, an
// external classifier, and finally an interactive prompt. Each stage either
// returns a definitive match and halts the machine, or falls through to the
// next; "unknown" is a valid terminal state, never an error.
package detect

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"reportaudit/internal/match"
	"reportaudit/internal/model"
	"reportaudit/internal/registry"
	"reportaudit/internal/service"
)

// Ambiguity policies for multiple simultaneous content-stage matches.
const (
	// PolicyBestScore picks the highest-scoring candidate, tie-broken by
	// registry order, and treats it as definitive.
	PolicyBestScore = "best_score"
	// PolicyUnknown refuses to choose between multiple candidates and falls
	// through to the next stage.
	PolicyUnknown = "unknown"
)

// Config tunes the detector's stage behavior.
type Config struct {
	// AmbiguityPolicy selects how multiple content matches resolve.
	AmbiguityPolicy string
	// ClassifierConfidence is the certainty bar an external classifier
	// answer must clear to be definitive.
	ClassifierConfidence float64
	// ClassifierTimeout is the hard cutoff for the external classifier
	// call; on expiry the stage reports no definitive answer.
	ClassifierTimeout time.Duration
	// FuzzyThreshold overrides the default field-mapping similarity bar.
	FuzzyThreshold float64
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		AmbiguityPolicy:      PolicyBestScore,
		ClassifierConfidence: 0.7,
		ClassifierTimeout:    60 * time.Second,
	}
}

// Input is everything a detection run may look at.
type Input struct {
	Table    *model.ParsedTable
	FileName string
	Text     string
}

// Detector runs the staged detection state machine. The classifier and
// prompter are optional; a nil collaborator skips its stage.
type Detector struct {
	registry   *registry.Registry
	classifier service.Classifier
	prompter   service.Prompter
	cfg        Config
}

// New creates a detector over the given registry and optional collaborators.
func New(reg *registry.Registry, classifier service.Classifier, prompter service.Prompter, cfg Config) *Detector {
	if cfg.AmbiguityPolicy == "" {
		cfg.AmbiguityPolicy = PolicyBestScore
	}
	if cfg.ClassifierConfidence <= 0 {
		cfg.ClassifierConfidence = 0.7
	}
	if cfg.ClassifierTimeout <= 0 {
		cfg.ClassifierTimeout = 60 * time.Second
	}
	return &Detector{registry: reg, classifier: classifier, prompter: prompter, cfg: cfg}
}

// Detect resolves the input to a report type or unknown. No stage reorders
// or retries a previous stage.
func (d *Detector) Detect(ctx context.Context, in Input) model.DetectionResult {
	if result, ok := d.matchFilename(in.FileName); ok {
		slog.Info("Detected report type via filename", "file", in.FileName, "type", result.Type)
		return result
	}

	if result, ok := d.matchContent(in); ok {
		slog.Info("Detected report type via content", "file", in.FileName, "type", result.Type, "confidence", result.Confidence)
		return result
	}

	if result, ok := d.classifyExternal(ctx, in); ok {
		slog.Info("Detected report type via external classifier", "file", in.FileName, "type", result.Type, "confidence", result.Confidence)
		return result
	}

	if result, ok := d.selectManually(ctx, in.FileName); ok {
		slog.Info("Detected report type via manual selection", "file", in.FileName, "type", result.Type)
		return result
	}

	slog.Warn("Could not detect report type", "file", in.FileName)
	return model.DetectionResult{Type: model.TypeUnknown, Name: "Unknown Report Type", Method: model.DetectedNone}
}

// matchFilename tests the file's base name against every type's patterns in
// registry order. Directory segments never participate, a report in
// /srv/veeam_reports/ is not thereby a Veeam report. The first pattern match
// wins and is definitive.
func (d *Detector) matchFilename(fileName string) (model.DetectionResult, bool) {
	base := filepath.Base(fileName)
	for _, def := range d.registry.All() {
		if pattern, ok := def.MatchFilename(base); ok {
			return model.DetectionResult{
				Type:            def.ID,
				Name:            def.Name,
				Confidence:      0.95,
				Method:          model.DetectedByFilename,
				MatchedPatterns: []string{pattern},
			}, true
		}
	}
	return model.DetectionResult{}, false
}

// candidate is one type's content-stage evaluation.
type candidate struct {
	def      *registry.Definition
	matched  []string
	score    float64
	eligible bool
}

// matchContent evaluates every type's content identifiers. A type matches
// iff all required columns resolve via fuzzy field mapping AND the keyword
// hit count reaches min_matches. A single match is definitive; multiple
// matches resolve per the configured ambiguity policy with all candidate
// scores logged for audit.
func (d *Detector) matchContent(in Input) (model.DetectionResult, bool) {
	if in.Table.IsEmpty() && in.Text == "" {
		return model.DetectionResult{}, false
	}

	normalizedText := match.Normalize(in.Text)

	var eligible []candidate
	for _, def := range d.registry.All() {
		if def.Content.Empty() {
			continue
		}
		c := d.evaluateContent(def, in, normalizedText)
		if c.eligible {
			eligible = append(eligible, c)
		}
	}

	switch len(eligible) {
	case 0:
		return model.DetectionResult{}, false
	case 1:
		return contentResult(eligible[0]), true
	}

	// DetectionAmbiguity: not an error, but always logged with the
	// competing candidates and scores.
	for _, c := range eligible {
		slog.Info("Content detection candidate",
			"file", in.FileName,
			"type", c.def.ID,
			"score", c.score,
			"matched", c.matched)
	}

	if d.cfg.AmbiguityPolicy == PolicyUnknown {
		slog.Warn("Multiple content matches, deferring per ambiguity policy", "file", in.FileName)
		return model.DetectionResult{}, false
	}

	best := eligible[0]
	for _, c := range eligible[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return contentResult(best), true
}

func contentResult(c candidate) model.DetectionResult {
	// Confidence tops out below the filename stage's certainty.
	confidence := c.score / (c.score + 2)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return model.DetectionResult{
		Type:            c.def.ID,
		Name:            c.def.Name,
		Confidence:      confidence,
		Method:          model.DetectedByContent,
		MatchedPatterns: c.matched,
	}
}

// Content match score weights.
const (
	requiredColumnWeight  = 2.0
	optionalColumnWeight  = 1.0
	requiredKeywordWeight = 1.5
	optionalKeywordWeight = 0.5
)

func (d *Detector) evaluateContent(def *registry.Definition, in Input, normalizedText string) candidate {
	c := candidate{def: def}
	threshold := def.FuzzyThreshold
	if threshold <= 0 {
		threshold = d.cfg.FuzzyThreshold
	}
	if threshold <= 0 {
		threshold = match.DefaultFieldThreshold
	}

	var columns []string
	if !in.Table.IsEmpty() {
		columns = in.Table.Columns
	}

	resolvedAll := true
	for _, logical := range def.Content.RequiredColumns {
		alternatives := []string{logical}
		if mapping, ok := def.FieldMappings[logical]; ok {
			alternatives = append(alternatives, mapping.Alternatives...)
		}
		if column, ok := match.MatchField(columns, alternatives, threshold); ok {
			c.score += requiredColumnWeight
			c.matched = append(c.matched, fmt.Sprintf("column:%s=%s", logical, column))
		} else {
			resolvedAll = false
		}
	}

	for _, logical := range def.Content.OptionalColumns {
		alternatives := []string{logical}
		if mapping, ok := def.FieldMappings[logical]; ok {
			alternatives = append(alternatives, mapping.Alternatives...)
		}
		if column, ok := match.MatchField(columns, alternatives, threshold); ok {
			c.score += optionalColumnWeight
			c.matched = append(c.matched, fmt.Sprintf("optional_column:%s=%s", logical, column))
		}
	}

	keywordHits := 0
	for _, keyword := range def.Content.RequiredKeywords {
		if containsNormalized(normalizedText, keyword) {
			keywordHits++
			c.score += requiredKeywordWeight
			c.matched = append(c.matched, "keyword:"+keyword)
		}
	}
	for _, keyword := range def.Content.OptionalKeywords {
		if containsNormalized(normalizedText, keyword) {
			c.score += optionalKeywordWeight
			c.matched = append(c.matched, "optional_keyword:"+keyword)
		}
	}

	minMatches := def.Content.MinMatches
	c.eligible = resolvedAll && keywordHits >= minMatches
	return c
}

func containsNormalized(normalizedText, keyword string) bool {
	needle := match.Normalize(keyword)
	return needle != "" && strings.Contains(normalizedText, needle)
}

// classifyExternal asks the external classifier for an answer; the answer
// is definitive only above the configured confidence bar. Timeouts and
// errors mean "no definitive answer" and the machine advances.
func (d *Detector) classifyExternal(ctx context.Context, in Input) (model.DetectionResult, bool) {
	if d.classifier == nil || in.Text == "" {
		return model.DetectionResult{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.ClassifierTimeout)
	defer cancel()

	answer, err := d.classifier.Classify(ctx, in.Text, d.registry.TypeIDs())
	if err != nil {
		slog.Warn("External classifier gave no answer", "file", in.FileName, "error", err)
		return model.DetectionResult{}, false
	}
	if answer.TypeID == "" || answer.Confidence < d.cfg.ClassifierConfidence {
		slog.Info("External classifier answer below confidence bar",
			"file", in.FileName,
			"type", answer.TypeID,
			"confidence", answer.Confidence,
			"bar", d.cfg.ClassifierConfidence)
		return model.DetectionResult{}, false
	}

	def, err := d.registry.Get(answer.TypeID)
	if err != nil {
		slog.Warn("External classifier answered with unknown type", "file", in.FileName, "type", answer.TypeID)
		return model.DetectionResult{}, false
	}

	return model.DetectionResult{
		Type:            def.ID,
		Name:            def.Name,
		Confidence:      answer.Confidence,
		Method:          model.DetectedByLLM,
		MatchedPatterns: []string{"external classifier"},
	}, true
}

// selectManually hands the choice to the host application. Declining (an
// empty id) resolves detection to unknown via the caller.
func (d *Detector) selectManually(ctx context.Context, fileName string) (model.DetectionResult, bool) {
	if d.prompter == nil {
		return model.DetectionResult{}, false
	}

	id, err := d.prompter.SelectType(ctx, fileName, d.registry.Options())
	if err != nil || id == "" {
		return model.DetectionResult{}, false
	}

	if id == model.TypeUnknown {
		return model.DetectionResult{
			Type:       model.TypeUnknown,
			Name:       "Unknown Report Type",
			Confidence: 1.0,
			Method:     model.DetectedManually,
		}, true
	}

	def, err := d.registry.Get(id)
	if err != nil {
		slog.Warn("Manual selection named unknown type", "file", fileName, "type", id)
		return model.DetectionResult{}, false
	}

	return model.DetectionResult{
		Type:            def.ID,
		Name:            def.Name,
		Confidence:      1.0,
		Method:          model.DetectedManually,
		MatchedPatterns: []string{"manual selection"},
	}, true
}
