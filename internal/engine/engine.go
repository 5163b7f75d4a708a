// Package engine runs the whole pipeline over a batch of files: fingerprint,
// cache lookup, parse, detect, analyze, persist. Files are independent, so
// the batch fans out over a bounded worker group while results come back in
// input order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"reportaudit/internal/analyze"
	"reportaudit/internal/common"
	"reportaudit/internal/detect"
	"reportaudit/internal/model"
	"reportaudit/internal/service"
)

// Options configures a batch run.
type Options struct {
	// TypeOverride pins every file to this report type, skipping detection.
	TypeOverride string
	// Parallelism is the number of files analyzed concurrently.
	Parallelism int
	// NoCache skips cache lookups; results are still saved.
	NoCache bool
	// ShowProgress renders a progress bar on stderr.
	ShowProgress bool
}

// Engine wires the pipeline stages together.
type Engine struct {
	parser       service.Parser
	detector     *detect.Detector
	orchestrator *analyze.Orchestrator
	store        service.ResultStore
	opts         Options
}

// New creates a batch engine. The store may be nil, in which case nothing is
// cached or persisted.
func New(parser service.Parser, detector *detect.Detector, orchestrator *analyze.Orchestrator, store service.ResultStore, opts Options) *Engine {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	return &Engine{
		parser:       parser,
		detector:     detector,
		orchestrator: orchestrator,
		store:        store,
		opts:         opts,
	}
}

// Run analyzes every file and returns one result per input path, in input
// order, plus batch statistics. Individual file failures become
// nicht_erfolgreich_analysiert results; only context cancellation aborts
// the batch.
func (e *Engine) Run(ctx context.Context, paths []string) ([]*model.AnalysisResult, service.CompletionStats, error) {
	started := time.Now()
	results := make([]*model.AnalysisResult, len(paths))

	var bar *progressbar.ProgressBar
	if e.opts.ShowProgress {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Analyzing reports..."),
		)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Parallelism)

	for i, path := range paths {
		i, path := i, path
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = e.processOne(groupCtx, path)
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, service.CompletionStats{}, err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	stats := service.CompletionStats{
		TotalFiles: len(results),
		Duration:   time.Since(started),
	}
	for _, result := range results {
		switch {
		case result.FromCache:
			stats.FromCache++
		case result.Status == model.StatusNotAnalyzed:
			stats.Failed++
		default:
			stats.Analyzed++
		}
	}
	return results, stats, nil
}

// processOne runs the pipeline for a single file. Every failure mode ends in
// a terminal result, never a dropped file.
func (e *Engine) processOne(ctx context.Context, path string) *model.AnalysisResult {
	fingerprint, err := model.FileFingerprint(path)
	if err != nil {
		slog.Error("Cannot fingerprint file", "file", path, "error", err)
		return e.failed(path, fmt.Sprintf("cannot read file: %v", err))
	}

	if e.store != nil && !e.opts.NoCache {
		if cached, err := e.store.CachedResult(ctx, fingerprint); err != nil {
			slog.Warn("Cache lookup failed, re-analyzing", "file", path, "error", err)
		} else if cached != nil {
			slog.Debug("Cache hit", "file", path)
			cached.FilePath = path
			cached.FromCache = true
			return cached
		}
	}

	result := e.analyzeFile(ctx, path)

	if e.store != nil {
		if err := e.store.SaveResult(ctx, fingerprint, result); err != nil {
			slog.Warn("Failed to persist result", "file", path, "error", err)
		}
	}
	return result
}

func (e *Engine) analyzeFile(ctx context.Context, path string) *model.AnalysisResult {
	table, err := e.parseWithRetry(ctx, path)
	if err != nil {
		slog.Warn("Parse failed", "file", path, "error", err)
		return e.failed(path, err.Error())
	}

	text, err := e.parser.ExtractText(ctx, path, 32*1024)
	if err != nil {
		text = ""
	}

	var det model.DetectionResult
	if e.opts.TypeOverride != "" {
		det = model.DetectionResult{
			Type:       e.opts.TypeOverride,
			Confidence: 1.0,
			Method:     model.DetectedManually,
		}
	} else {
		det = e.detector.Detect(ctx, detect.Input{
			FileName: path,
			Table:    table,
			Text:     text,
		})
	}

	return e.orchestrator.Analyze(ctx, path, table, text, det)
}

// parseWithRetry retries transient parser I/O failures with backoff. A
// ParseError is deterministic (corrupt or unsupported content) and fails
// immediately.
func (e *Engine) parseWithRetry(ctx context.Context, path string) (*model.ParsedTable, error) {
	var table *model.ParsedTable
	err := common.WithRetry(ctx, func() error {
		parsed, err := e.parser.Parse(ctx, path)
		if err != nil {
			if common.IsParseError(err) {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}
		table = parsed
		return nil
	}, service.RetryOptions{MaxAttempts: 3})
	return table, err
}

func (e *Engine) failed(path, reason string) *model.AnalysisResult {
	return e.orchestrator.AnalysisFailure(path, reason)
}
