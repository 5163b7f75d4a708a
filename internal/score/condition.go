// Package score converts check outcomes and extracted metrics into a
// clamped 0-100 risk score, a risk level, and an analysis status, driven by
// per-type deduction rules.
package score

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is one of the closed set of comparison operators a deduction
// condition may use. Unknown operators are rejected at configuration load.
type Operator string

// Supported condition operators.
const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

// Condition is a parsed predicate over extracted metrics, e.g.
// "failed_count > 0".
type Condition struct {
	Field string
	Op    Operator
	Value float64
}

// ParseCondition parses a condition string of the form "field op value".
// The multi-character operators must be checked before their prefixes.
func ParseCondition(s string) (Condition, error) {
	for _, op := range []Operator{OpGreaterEqual, OpLessEqual, OpEqual, OpGreater, OpLess} {
		idx := strings.Index(s, string(op))
		if idx < 0 {
			continue
		}

		field := strings.TrimSpace(s[:idx])
		rawValue := strings.TrimSpace(s[idx+len(op):])
		if field == "" {
			return Condition{}, fmt.Errorf("condition %q has no metric field", s)
		}
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return Condition{}, fmt.Errorf("condition %q has non-numeric comparison value %q", s, rawValue)
		}

		return Condition{Field: field, Op: op, Value: value}, nil
	}

	return Condition{}, fmt.Errorf("condition %q uses no supported operator (>, >=, <, <=, ==)", s)
}

// Occurrences evaluates the condition against the metrics and returns the
// occurrence count: 0 when the condition is false or the metric is absent.
// For count-style metrics the metric value itself is the occurrence count
// (e.g. "failed_count > 0" with 2 failures yields 2); equality yields 1.
func (c Condition) Occurrences(metrics map[string]float64) int {
	value, ok := metrics[c.Field]
	if !ok {
		return 0
	}

	holds := false
	switch c.Op {
	case OpGreater:
		holds = value > c.Value
	case OpGreaterEqual:
		holds = value >= c.Value
	case OpLess:
		holds = value < c.Value
	case OpLessEqual:
		holds = value <= c.Value
	case OpEqual:
		holds = value == c.Value
	}
	if !holds {
		return 0
	}

	if c.Op == OpEqual {
		return 1
	}
	occurrences := int(value)
	if occurrences < 1 {
		occurrences = 1
	}
	return occurrences
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Value)
}
