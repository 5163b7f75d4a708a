// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Row maps a column name to its raw text value for one table row.
type Row map[string]string

// TableMetadata carries parser-provided facts about the source file.
type TableMetadata struct {
	SourcePath     string
	Format         string
	DetectedPeriod string
	SizeBytes      int64
}

// ParsedTable is the normalized output of a parser: named text columns,
// ordered rows, and a metadata bag. Column names must be resolved through
// the fuzzy field-mapping layer, never by exact literal match, because
// producer-supplied headers vary.
type ParsedTable struct {
	Metadata TableMetadata
	Columns  []string
	Rows     []Row
}

// IsEmpty reports whether the table has no usable data.
func (t *ParsedTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0 || len(t.Columns) == 0
}

// Column returns all raw values of the named column in row order.
func (t *ParsedTable) Column(name string) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[name])
	}
	return values
}

// FileFingerprint computes the content hash used as the advisory cache key.
func FileFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for fingerprinting: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
