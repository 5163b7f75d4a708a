package model

import "time"

// Severity classifies how serious a failed check is.
type Severity string

// Check severities.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Escalate returns the more severe of s and floor.
func (s Severity) Escalate(floor Severity) Severity {
	if s.rank() >= floor.rank() {
		return s
	}
	return floor
}

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Outcome is the result state of a single check.
type Outcome string

// Check outcomes.
const (
	OutcomePassed  Outcome = "passed"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// CheckResult is the structured outcome of one configured check.
type CheckResult struct {
	Details  map[string]any `json:"details"`
	CheckID  string         `json:"checkId"`
	Name     string         `json:"name"`
	Message  string         `json:"message"`
	Outcome  Outcome        `json:"outcome"`
	Severity Severity       `json:"severity"`
}

// Failed reports whether the check did not pass.
func (c CheckResult) Failed() bool {
	return c.Outcome == OutcomeFailed
}

// RiskLevel is the categorical bucket derived from the numeric score.
type RiskLevel string

// Risk levels, in the downstream consumers' vocabulary.
const (
	RiskLow    RiskLevel = "niedrig"
	RiskMedium RiskLevel = "mittel"
	RiskHigh   RiskLevel = "hoch"
)

// Status is the categorical outcome of a whole analysis.
type Status string

// Analysis statuses, in the downstream consumers' vocabulary.
const (
	StatusOK          Status = "ok"
	StatusLimited     Status = "mit_einschraenkungen"
	StatusError       Status = "fehler"
	StatusNotAnalyzed Status = "nicht_erfolgreich_analysiert"
)

// AnalysisMethod records which path produced the analysis.
type AnalysisMethod string

// Analysis methods.
const (
	MethodAlgorithmic AnalysisMethod = "algorithmic"
	MethodLLM         AnalysisMethod = "llm"
	MethodFailed      AnalysisMethod = "failed"
)

// AnalysisResult is the terminal artifact of one input file. All fields are
// always present in serialized form (empty values for "not applicable") so
// downstream renderers never branch on missing keys. Never mutated after
// assembly.
type AnalysisResult struct {
	ProcessedAt     time.Time       `json:"processedAt"`
	ExtractedFields map[string]any  `json:"extractedFields"`
	ID              string          `json:"id"`
	FilePath        string          `json:"filePath"`
	DetectedType    string          `json:"detectedType"`
	DetectionMethod DetectionMethod `json:"detectionMethod"`
	RiskLevel       RiskLevel       `json:"riskLevel"`
	Status          Status          `json:"status"`
	AnalysisMethod  AnalysisMethod  `json:"analysisMethod"`
	CheckResults    []CheckResult   `json:"checkResults"`
	Score           int             `json:"score"`
	ProcessingMS    int64           `json:"processingMs"`
	FromCache       bool            `json:"fromCache"`
}
