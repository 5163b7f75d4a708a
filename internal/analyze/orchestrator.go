package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reportaudit/internal/model"
	"reportaudit/internal/registry"
	"reportaudit/internal/score"
	"reportaudit/internal/service"
)

// Orchestrator routes each detected file to its analyzer, scores the
// findings, and assembles the terminal result. Every input that enters
// produces exactly one result; total failure yields a
// nicht_erfolgreich_analysiert result, never a skip.
type Orchestrator struct {
	registry      *registry.Registry
	classifier    service.Classifier
	analyzers     map[string]Analyzer
	fallbackToLLM bool
}

// NewOrchestrator creates an orchestrator with the built-in specialized
// analyzers registered. The classifier is optional and only consulted for
// the LLM fallback path.
func NewOrchestrator(reg *registry.Registry, classifier service.Classifier, fallbackToLLM bool) *Orchestrator {
	return &Orchestrator{
		registry:      reg,
		classifier:    classifier,
		fallbackToLLM: fallbackToLLM,
		analyzers: map[string]Analyzer{
			"veeam_backup":  veeamAnalyzer{},
			"keepit_backup": keepitAnalyzer{},
			"entra_devices": entraAnalyzer{},
		},
	}
}

// RegisterAnalyzer binds a specialized analyzer to a report type id,
// replacing any previous binding.
func (o *Orchestrator) RegisterAnalyzer(typeID string, analyzer Analyzer) {
	o.analyzers[typeID] = analyzer
}

// Analyze produces the terminal result for one file. The detection result
// decides the path: a known type runs the algorithmic pipeline, unknown
// falls back to the model when enabled, and anything unanalyzable becomes a
// failed result with score 0.
func (o *Orchestrator) Analyze(ctx context.Context, filePath string, table *model.ParsedTable, text string, det model.DetectionResult) *model.AnalysisResult {
	started := time.Now()

	result := o.analyze(ctx, filePath, table, text, det)
	result.ProcessingMS = time.Since(started).Milliseconds()
	return result
}

func (o *Orchestrator) analyze(ctx context.Context, filePath string, table *model.ParsedTable, text string, det model.DetectionResult) *model.AnalysisResult {
	if det.Unknown() {
		if o.fallbackToLLM && o.classifier != nil && text != "" {
			if result, err := o.llmAnalysis(ctx, filePath, text, det); err == nil {
				return result
			} else {
				slog.Warn("Model fallback analysis failed", "file", filePath, "error", err)
			}
		}
		return o.failedResult(filePath, det, "report type could not be determined")
	}

	def, err := o.registry.Get(det.Type)
	if err != nil {
		return o.failedResult(filePath, det, fmt.Sprintf("detected type %q is not configured", det.Type))
	}
	if table.IsEmpty() {
		return o.failedResult(filePath, det, "file contains no parseable table")
	}

	analyzer, ok := o.analyzers[def.ID]
	if !ok {
		analyzer = genericAnalyzer{}
	}

	findings, err := analyzer.Analyze(ctx, def, table)
	if err != nil {
		slog.Error("Analyzer fault", "file", filePath, "type", def.ID, "error", err)
		return o.failedResult(filePath, det, fmt.Sprintf("analysis failed: %v", err))
	}

	scored := score.Calculate(findings.Metrics, def.Scoring, score.HasHardFailure(findings.Checks))

	fields := findings.Fields
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["deductions"] = scored.Deductions
	fields["metrics"] = findings.Metrics

	return &model.AnalysisResult{
		ID:              uuid.NewString(),
		ProcessedAt:     time.Now().UTC(),
		FilePath:        filePath,
		DetectedType:    det.Type,
		DetectionMethod: det.Method,
		AnalysisMethod:  model.MethodAlgorithmic,
		Score:           scored.Score,
		RiskLevel:       scored.RiskLevel,
		Status:          scored.Status,
		CheckResults:    findings.Checks,
		ExtractedFields: fields,
	}
}

// llmAnalysis asks the model to enumerate operational issues in a document
// no configured type claims. Each reported issue costs a flat ten points.
func (o *Orchestrator) llmAnalysis(ctx context.Context, filePath, text string, det model.DetectionResult) (*model.AnalysisResult, error) {
	fields, err := o.classifier.ExtractFields(ctx, text, map[string]string{
		"summary": "one-sentence description of what this report covers",
		"issues":  "list of concrete operational problems visible in the report (failures, errors, gaps); empty list if none",
	})
	if err != nil {
		return nil, err
	}

	issues, _ := fields["issues"].([]any)
	raw := 100 - 10*len(issues)
	if raw < 0 {
		raw = 0
	}
	thresholds := score.DefaultThresholds()
	risk := thresholds.Level(raw)

	return &model.AnalysisResult{
		ID:              uuid.NewString(),
		ProcessedAt:     time.Now().UTC(),
		FilePath:        filePath,
		DetectedType:    model.TypeUnknown,
		DetectionMethod: det.Method,
		AnalysisMethod:  model.MethodLLM,
		Score:           raw,
		RiskLevel:       risk,
		Status:          score.DeriveStatus(risk, false),
		CheckResults:    []model.CheckResult{},
		ExtractedFields: fields,
	}, nil
}

// AnalysisFailure builds the terminal result for a file that never reached
// analysis, e.g. an unreadable or unparseable input.
func (o *Orchestrator) AnalysisFailure(filePath, reason string) *model.AnalysisResult {
	return o.failedResult(filePath, model.DetectionResult{}, reason)
}

// failedResult is the terminal shape for files analysis could not process:
// score 0, highest risk, nicht_erfolgreich_analysiert. All fields stay
// present so downstream renderers never branch on missing keys.
func (o *Orchestrator) failedResult(filePath string, det model.DetectionResult, reason string) *model.AnalysisResult {
	if det.Type == "" {
		det.Type = model.TypeUnknown
	}
	return &model.AnalysisResult{
		ID:              uuid.NewString(),
		ProcessedAt:     time.Now().UTC(),
		FilePath:        filePath,
		DetectedType:    det.Type,
		DetectionMethod: det.Method,
		AnalysisMethod:  model.MethodFailed,
		Score:           0,
		RiskLevel:       model.RiskHigh,
		Status:          model.StatusNotAnalyzed,
		CheckResults:    []model.CheckResult{},
		ExtractedFields: map[string]any{"failureReason": reason},
	}
}
