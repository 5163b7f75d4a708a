package score

import (
	"log/slog"
	"math"

	"reportaudit/internal/model"
)

// DefaultBaseScore is the starting score before deductions.
const DefaultBaseScore = 100

// Rule is a configured score penalty triggered by a condition on extracted
// metrics. Rules sharing a non-empty Group are mutually exclusive bands:
// only the first matching rule of a group (in configuration order, most
// severe first) applies.
type Rule struct {
	Condition     string  `yaml:"condition"`
	Description   string  `yaml:"description"`
	Group         string  `yaml:"group"`
	Points        float64 `yaml:"points"`
	MaxDeduction  float64 `yaml:"max_deduction"`
	PerOccurrence bool    `yaml:"per_occurrence"`

	parsed Condition
}

// Compile parses and stores the rule's condition. Called at configuration
// load so that unknown operators fail startup, not analysis.
func (r *Rule) Compile() error {
	cond, err := ParseCondition(r.Condition)
	if err != nil {
		return err
	}
	r.parsed = cond
	return nil
}

// Thresholds maps score bands to risk levels. Bounds are inclusive.
type Thresholds struct {
	Low    [2]int `yaml:"low"`
	Medium [2]int `yaml:"medium"`
	High   [2]int `yaml:"high"`
}

// DefaultThresholds returns the standard banding: niedrig 86-100,
// mittel 61-85, hoch 0-60.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Low:    [2]int{86, 100},
		Medium: [2]int{61, 85},
		High:   [2]int{0, 60},
	}
}

// Level maps a clamped score to its risk level.
func (t Thresholds) Level(score int) model.RiskLevel {
	switch {
	case score >= t.Low[0] && score <= t.Low[1]:
		return model.RiskLow
	case score >= t.Medium[0] && score <= t.Medium[1]:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Rules is a report type's complete scoring configuration.
type Rules struct {
	Levels     Thresholds `yaml:"risk_levels"`
	Deductions []Rule     `yaml:"deductions"`
	BaseScore  float64    `yaml:"base_score"`
}

// Deduction records one applied rule for audit output.
type Deduction struct {
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
	Occurrences int     `json:"occurrences"`
}

// Result is the complete scoring outcome.
type Result struct {
	RiskLevel       model.RiskLevel
	Status          model.Status
	Deductions      []Deduction
	Score           int
	TotalDeductions float64
}

// Calculate applies the deduction rules to the extracted metrics and maps
// the clamped result to a risk level and status. hardCheckFailure must be
// true when any medium- or high-severity check failed; it forces at least
// "mit_einschraenkungen". Deterministic: identical inputs always produce
// identical results. Rules are applied in configuration order; order only
// matters for caps and group exclusivity, subtraction itself commutes, but
// the fixed order keeps audit logs reproducible.
func Calculate(metrics map[string]float64, rules Rules, hardCheckFailure bool) Result {
	base := rules.BaseScore
	if base <= 0 {
		base = DefaultBaseScore
	}
	levels := rules.Levels
	if levels == (Thresholds{}) {
		levels = DefaultThresholds()
	}

	raw := base
	total := 0.0
	deductions := make([]Deduction, 0, len(rules.Deductions))
	matchedGroups := make(map[string]bool)

	for _, rule := range rules.Deductions {
		if rule.Group != "" && matchedGroups[rule.Group] {
			continue
		}

		cond := rule.parsed
		if cond.Field == "" {
			parsed, err := ParseCondition(rule.Condition)
			if err != nil {
				// Rejected at load time; seeing this here means the rule
				// bypassed the registry. Skip rather than guess.
				slog.Warn("Skipping uncompiled deduction rule", "condition", rule.Condition, "error", err)
				continue
			}
			cond = parsed
		}

		occurrences := cond.Occurrences(metrics)
		if occurrences == 0 {
			continue
		}
		if rule.Group != "" {
			matchedGroups[rule.Group] = true
		}

		points := rule.Points
		if rule.PerOccurrence {
			points = rule.Points * float64(occurrences)
		}
		if rule.MaxDeduction > 0 && points > rule.MaxDeduction {
			points = rule.MaxDeduction
		}

		raw -= points
		total += points
		deductions = append(deductions, Deduction{
			Condition:   rule.Condition,
			Description: rule.Description,
			Points:      points,
			Occurrences: occurrences,
		})
	}

	score := clamp(int(math.Round(raw)))
	risk := levels.Level(score)

	return Result{
		Score:           score,
		TotalDeductions: total,
		RiskLevel:       risk,
		Status:          DeriveStatus(risk, hardCheckFailure),
		Deductions:      deductions,
	}
}

// DeriveStatus maps a risk level to the analysis status by fixed precedence:
// fehler when risk is hoch, mit_einschraenkungen when risk is mittel or any
// medium/high-severity check failed, ok otherwise. The
// nicht_erfolgreich_analysiert state is assigned by the orchestrator when
// analysis could not run at all, before scoring.
func DeriveStatus(risk model.RiskLevel, hardCheckFailure bool) model.Status {
	switch {
	case risk == model.RiskHigh:
		return model.StatusError
	case risk == model.RiskMedium || hardCheckFailure:
		return model.StatusLimited
	default:
		return model.StatusOK
	}
}

// HasHardFailure reports whether any medium- or high-severity check failed.
func HasHardFailure(checks []model.CheckResult) bool {
	for _, c := range checks {
		if c.Failed() && c.Severity != model.SeverityLow {
			return true
		}
	}
	return false
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
