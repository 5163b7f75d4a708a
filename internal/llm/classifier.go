package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"reportaudit/internal/common"
	"reportaudit/internal/service"
)

// maxPromptChars bounds how much document text goes into a single prompt.
const maxPromptChars = 8000

// Classifier adapts a model runtime to the pipeline's classifier interface.
// Calls run behind a circuit breaker so a dead runtime stops costing a
// timeout per file.
type Classifier struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
	retry   service.RetryOptions
}

// NewClassifier wraps a model client in retry and circuit-breaker behavior.
func NewClassifier(client Client) *Classifier {
	settings := gobreaker.Settings{
		Name:        "llm-classifier",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Classifier circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Classifier{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
		retry: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Classify asks the model which of the candidate type ids the text belongs
// to. Every failure mode collapses to common.ErrNoAnswer so callers treat
// the stage as inconclusive rather than failed.
func (c *Classifier) Classify(ctx context.Context, text string, candidateTypeIDs []string) (service.TypeAnswer, error) {
	if len(candidateTypeIDs) == 0 {
		return service.TypeAnswer{}, common.ErrNoAnswer
	}

	prompt := buildClassifyPrompt(truncate(text, maxPromptChars), candidateTypeIDs)

	content, err := c.generate(ctx, prompt)
	if err != nil {
		return service.TypeAnswer{}, errors.Join(common.ErrNoAnswer, err)
	}

	var parsed struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := ExtractJSONObject(content, &parsed); err != nil {
		slog.Warn("Classifier returned unparseable answer", "error", err)
		return service.TypeAnswer{}, errors.Join(common.ErrNoAnswer, err)
	}

	parsed.Type = strings.TrimSpace(strings.ToLower(parsed.Type))
	if parsed.Type == "" || parsed.Type == "unknown" {
		return service.TypeAnswer{}, common.ErrNoAnswer
	}

	return service.TypeAnswer{TypeID: parsed.Type, Confidence: parsed.Confidence}, nil
}

// ExtractFields asks the model to pull named values out of unstructured
// text. The schema maps field names to short descriptions of what to find.
func (c *Classifier) ExtractFields(ctx context.Context, text string, schema map[string]string) (map[string]any, error) {
	if len(schema) == 0 {
		return map[string]any{}, nil
	}

	prompt := buildExtractPrompt(truncate(text, maxPromptChars), schema)

	content, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, errors.Join(common.ErrNoAnswer, err)
	}

	fields := make(map[string]any)
	if err := ExtractJSONObject(content, &fields); err != nil {
		return nil, errors.Join(common.ErrNoAnswer, err)
	}
	return fields, nil
}

// Available reports whether the runtime answers its health probe.
func (c *Classifier) Available(ctx context.Context) bool {
	return c.client.Available(ctx)
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	var content string
	err := common.WithRetry(ctx, func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			return c.client.Generate(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return &common.RetryableError{Err: common.ErrClassifierUnavailable, Retryable: false}
			}
			if ctx.Err() != nil {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			return err
		}
		content, _ = result.(string)
		return nil
	}, c.retry)
	return content, err
}

func buildClassifyPrompt(text string, candidateTypeIDs []string) string {
	var sb strings.Builder
	sb.WriteString("You classify monthly operational vendor reports.\n")
	sb.WriteString("Known report types:\n")
	for _, id := range candidateTypeIDs {
		sb.WriteString("- ")
		sb.WriteString(id)
		sb.WriteString("\n")
	}
	sb.WriteString("\nDecide which type the following document is. ")
	sb.WriteString("Respond with ONLY a JSON object of the form ")
	sb.WriteString(`{"type": "<type id or unknown>", "confidence": <0.0-1.0>}`)
	sb.WriteString(" and nothing else.\n\nDocument:\n")
	sb.WriteString(text)
	return sb.String()
}

func buildExtractPrompt(text string, schema map[string]string) string {
	var sb strings.Builder
	sb.WriteString("Extract the following fields from the document below.\n")
	sb.WriteString("Fields:\n")
	for _, name := range sortedKeys(schema) {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, schema[name]))
	}
	sb.WriteString("\nRespond with ONLY a JSON object mapping each field name to its value, ")
	sb.WriteString("or null when the document does not contain it.\n\nDocument:\n")
	sb.WriteString(text)
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
