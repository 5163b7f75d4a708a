// Package output renders a batch of analysis results as a single JSON
// document with an aggregate summary.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"reportaudit/internal/model"
)

// Summary aggregates a batch of results.
type Summary struct {
	ByStatus     map[model.Status]int    `json:"byStatus"`
	ByRiskLevel  map[model.RiskLevel]int `json:"byRiskLevel"`
	ByType       map[string]int          `json:"byType"`
	TotalFiles   int                     `json:"totalFiles"`
	FromCache    int                     `json:"fromCache"`
	AverageScore float64                 `json:"averageScore"`
}

// Document is the serialized batch output.
type Document struct {
	GeneratedAt time.Time               `json:"generatedAt"`
	Summary     Summary                 `json:"summary"`
	Results     []*model.AnalysisResult `json:"results"`
}

// BuildSummary aggregates results into the batch summary. Scores of files
// that could not be analyzed still count toward the average; they are real
// zeros, not gaps.
func BuildSummary(results []*model.AnalysisResult) Summary {
	summary := Summary{
		TotalFiles:  len(results),
		ByStatus:    make(map[model.Status]int),
		ByRiskLevel: make(map[model.RiskLevel]int),
		ByType:      make(map[string]int),
	}

	total := 0
	for _, result := range results {
		summary.ByStatus[result.Status]++
		summary.ByRiskLevel[result.RiskLevel]++
		summary.ByType[result.DetectedType]++
		if result.FromCache {
			summary.FromCache++
		}
		total += result.Score
	}
	if len(results) > 0 {
		summary.AverageScore = math.Round(float64(total)/float64(len(results))*100) / 100
	}
	return summary
}

// Write renders the document to the writer as indented JSON.
func Write(w io.Writer, results []*model.AnalysisResult) error {
	doc := Document{
		GeneratedAt: time.Now().UTC(),
		Summary:     BuildSummary(results),
		Results:     results,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WriteFile renders the document to a file path, or to stdout when path is
// "-" or empty.
func WriteFile(path string, results []*model.AnalysisResult) error {
	if path == "" || path == "-" {
		return Write(os.Stdout, results)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Write(file, results)
}
