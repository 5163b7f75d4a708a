// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Registry errors.
	ErrNotFound = errors.New("not found")

	// Classifier errors. ErrNoAnswer means the external classifier produced
	// no usable result (timeout, low confidence, breaker open); the pipeline
	// continues without it.
	ErrNoAnswer              = errors.New("no definitive answer")
	ErrClassifierUnavailable = errors.New("external classifier unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError reports a schema violation in a report-type definition. It is
// fatal at load time and aborts startup.
type ConfigError struct {
	Err    error
	TypeID string
	Field  string
}

func (e *ConfigError) Error() string {
	if e.TypeID == "" {
		return fmt.Sprintf("invalid report-type configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid report-type configuration %q: %s: %v", e.TypeID, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error for the given type and field.
func NewConfigError(typeID, field string, err error) error {
	return &ConfigError{TypeID: typeID, Field: field, Err: err}
}

// ParseError reports an unreadable or corrupt input file. It is fatal for
// that file only; the file is still represented in output with status
// "nicht_erfolgreich_analysiert".
type ParseError struct {
	Err    error
	Path   string
	Format string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s file %q: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError wraps err as a parse failure for the given file.
func NewParseError(path, format string, err error) error {
	return &ParseError{Path: path, Format: format, Err: err}
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
