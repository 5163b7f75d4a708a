package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"reportaudit/internal/analyze"
	"reportaudit/internal/config"
	"reportaudit/internal/detect"
	"reportaudit/internal/engine"
	"reportaudit/internal/llm"
	"reportaudit/internal/output"
	"reportaudit/internal/parse"
	"reportaudit/internal/registry"
	"reportaudit/internal/service"
	"reportaudit/internal/storage"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [files or directories]",
		Short: "Analyze vendor report files",
		Long: `Analyze one or more report files (or directories of them): detect the
report type, run the configured checks, and score each report. Results are
written as a single JSON document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringP("output", "o", "-", "output file for the JSON document (- for stdout)")
	cmd.Flags().IntP("parallel", "p", 4, "number of files analyzed concurrently")
	cmd.Flags().Bool("no-cache", false, "ignore cached results and re-analyze everything")
	cmd.Flags().String("type", "", "skip detection and treat every file as this report type")
	cmd.Flags().BoolP("interactive", "i", false, "ask interactively when detection is inconclusive")
	cmd.Flags().Bool("no-llm", false, "disable the model classifier stage and fallback")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings := config.FromViper(viper.GetViper())

	paths, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no report files found under the given paths")
	}

	reg, err := registry.LoadDir(settings.TypesDir)
	if err != nil {
		return fmt.Errorf("failed to load report type definitions: %w", err)
	}

	outputPath, _ := cmd.Flags().GetString("output")
	parallel, _ := cmd.Flags().GetInt("parallel")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	typeOverride, _ := cmd.Flags().GetString("type")
	interactive, _ := cmd.Flags().GetBool("interactive")
	noLLM, _ := cmd.Flags().GetBool("no-llm")

	if typeOverride != "" {
		if _, err := reg.Get(typeOverride); err != nil {
			return fmt.Errorf("unknown report type %q (see 'reportaudit types')", typeOverride)
		}
	}

	var classifier service.Classifier
	if settings.LLM.Enabled && !noLLM {
		client, err := llm.NewClient(llm.Config{
			Provider:    settings.LLM.Provider,
			BaseURL:     settings.LLM.BaseURL,
			Model:       settings.LLM.Model,
			Temperature: settings.LLM.Temperature,
			MaxTokens:   settings.LLM.MaxTokens,
			Timeout:     settings.LLM.Timeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create model client: %w", err)
		}
		classifier = llm.NewClassifier(client)
		if !classifier.Available(ctx) {
			slog.Warn("Model runtime not reachable, continuing without it", "base_url", settings.LLM.BaseURL)
			classifier = nil
		}
	}

	var prompter service.Prompter
	if interactive {
		prompter = newStdinPrompter()
	}

	detector := detect.New(reg, classifier, prompter, detect.Config{
		AmbiguityPolicy:      settings.Detection.AmbiguityPolicy,
		ClassifierConfidence: settings.Detection.ClassifierConfidence,
		ClassifierTimeout:    settings.Detection.ClassifierTimeout,
		FuzzyThreshold:       settings.Detection.FuzzyThreshold,
	})

	store, err := storage.NewSQLiteStore(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	orchestrator := analyze.NewOrchestrator(reg, classifier, classifier != nil)

	eng := engine.New(parse.NewDispatcher(), detector, orchestrator, store, engine.Options{
		Parallelism:  parallel,
		NoCache:      noCache,
		TypeOverride: typeOverride,
		ShowProgress: outputPath != "-" && outputPath != "",
	})

	results, stats, err := eng.Run(ctx, paths)
	if err != nil {
		return err
	}

	if err := output.WriteFile(outputPath, results); err != nil {
		return err
	}

	slog.Info("Analysis complete",
		"files", stats.TotalFiles,
		"analyzed", stats.Analyzed,
		"from_cache", stats.FromCache,
		"failed", stats.Failed,
		"duration", stats.Duration.Round(time.Millisecond))
	return nil
}

// collectFiles expands directories into their report files and keeps the
// result in a stable order.
func collectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read directory %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".csv", ".xlsx", ".xlsm", ".html", ".htm", ".pdf":
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}
