package model

// DetectionMethod indicates which detector stage resolved a file's type.
type DetectionMethod string

// Detection methods.
const (
	DetectedByFilename DetectionMethod = "filename"
	DetectedByContent  DetectionMethod = "content"
	DetectedByLLM      DetectionMethod = "llm"
	DetectedManually   DetectionMethod = "manual"
	DetectedNone       DetectionMethod = ""
)

// TypeUnknown is the terminal detection value for files no stage could
// resolve. It is a valid outcome, not an error.
const TypeUnknown = "unknown"

// DetectionResult is the outcome of the staged report-type detection.
type DetectionResult struct {
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	Method          DetectionMethod `json:"method"`
	MatchedPatterns []string        `json:"matchedPatterns"`
	Confidence      float64         `json:"confidence"`
}

// Unknown reports whether detection resolved to no known type.
func (d DetectionResult) Unknown() bool {
	return d.Type == "" || d.Type == TypeUnknown
}

// TypeOption describes a selectable report type for interactive prompts.
type TypeOption struct {
	ID          string
	Name        string
	Description string
}
