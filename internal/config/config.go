// Package config maps the application's viper configuration tree onto typed
// settings and provides path utilities.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Settings is the application configuration.
type Settings struct {
	// TypesDir holds the per-report-type YAML definitions.
	TypesDir string
	// DatabasePath is the SQLite result store location.
	DatabasePath string

	LLM       LLMSettings
	Detection DetectionSettings
}

// LLMSettings configures the optional model runtime.
type LLMSettings struct {
	Provider    string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     int
	Enabled     bool
}

// DetectionSettings tunes the detection stages.
type DetectionSettings struct {
	AmbiguityPolicy      string
	ClassifierConfidence float64
	ClassifierTimeout    time.Duration
	FuzzyThreshold       float64
}

// SetDefaults registers the default configuration values on the viper
// instance. Call before reading the config file so file values win.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("types_dir", "configs/report_types")
	v.SetDefault("database.path", "~/.local/share/reportaudit/results.db")

	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 120)

	v.SetDefault("detection.ambiguity_policy", "best_score")
	v.SetDefault("detection.classifier_confidence", 0.7)
	v.SetDefault("detection.classifier_timeout", "60s")
	v.SetDefault("detection.fuzzy_threshold", 0.85)
}

// FromViper reads the settings out of a viper instance.
func FromViper(v *viper.Viper) Settings {
	return Settings{
		TypesDir:     ExpandPath(v.GetString("types_dir")),
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LLM: LLMSettings{
			Enabled:     v.GetBool("llm.enabled"),
			Provider:    v.GetString("llm.provider"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Timeout:     v.GetInt("llm.timeout"),
		},
		Detection: DetectionSettings{
			AmbiguityPolicy:      v.GetString("detection.ambiguity_policy"),
			ClassifierConfidence: v.GetFloat64("detection.classifier_confidence"),
			ClassifierTimeout:    v.GetDuration("detection.classifier_timeout"),
			FuzzyThreshold:       v.GetFloat64("detection.fuzzy_threshold"),
		},
	}
}
