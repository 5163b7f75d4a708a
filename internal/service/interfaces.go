// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"reportaudit/internal/model"
)

// Parser is the file-format collaborator: given a file path it returns a
// table of named text columns plus source metadata. Implementations must
// return a common.ParseError on unreadable or corrupt input.
type Parser interface {
	Parse(ctx context.Context, path string) (*model.ParsedTable, error)
	ExtractText(ctx context.Context, path string, maxChars int) (string, error)
	Metadata(path string) (model.TableMetadata, error)
}

// TypeAnswer is an external classifier's confidence-bearing answer.
type TypeAnswer struct {
	TypeID     string
	Confidence float64
}

// Classifier is the external text-classification collaborator. It is
// entirely optional to overall correctness: errors and timeouts are treated
// as "no answer" and the pipeline continues without it.
type Classifier interface {
	Classify(ctx context.Context, text string, candidateTypeIDs []string) (TypeAnswer, error)
	ExtractFields(ctx context.Context, text string, schema map[string]string) (map[string]any, error)
	Available(ctx context.Context) bool
}

// Prompter lets the host application choose a report type interactively.
// Returning an empty id declines the choice and resolves detection to
// unknown.
type Prompter interface {
	SelectType(ctx context.Context, fileName string, options []model.TypeOption) (string, error)
}

// ResultStore persists analysis results keyed by content fingerprint. The
// cache side is advisory only: a miss, corruption, or a forced clear changes
// recompute cost, never analysis outcomes.
type ResultStore interface {
	SaveResult(ctx context.Context, fingerprint string, result *model.AnalysisResult) error
	CachedResult(ctx context.Context, fingerprint string) (*model.AnalysisResult, error)
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations that may fail transiently.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// CompletionStats shows the results of a batch run.
type CompletionStats struct {
	Duration   time.Duration
	TotalFiles int
	Analyzed   int
	FromCache  int
	Failed     int
}
