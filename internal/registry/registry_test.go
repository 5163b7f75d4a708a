package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportaudit/internal/common"
)

func writeUnit(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}

const veeamUnit = `
id: veeam_backup
name: Veeam Backup Report
filename_patterns:
  - 'veeam'
content_identifiers:
  required_columns: [vm_name, status]
  required_keywords: [veeam]
  min_matches: 1
checks:
  - id: failed_jobs
    type: threshold
    severity: high
    parameters:
      field: status
      value_class: failed
      max_count: 0
scoring:
  base_score: 100
  deductions:
    - condition: "failed_count > 0"
      points: 10
      per_occurrence: true
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "veeam_backup.yaml", veeamUnit)
	writeUnit(t, dir, "keepit_backup.yaml", `
id: keepit_backup
name: Keepit Report
filename_patterns: ['keepit']
`)
	writeUnit(t, dir, "notes.txt", "not a definition")

	reg, err := LoadDir(dir)
	require.NoError(t, err)

	// Lexical file order is the registry order.
	assert.Equal(t, []string{"keepit_backup", "veeam_backup"}, reg.TypeIDs())

	def, err := reg.Get("veeam_backup")
	require.NoError(t, err)
	assert.Equal(t, "Veeam Backup Report", def.Name)
	require.Len(t, def.Checks, 1)
	assert.Equal(t, "failed_jobs", def.Checks[0].ID)
}

func TestLoadDirRejectsViolations(t *testing.T) {
	tests := []struct {
		name string
		unit string
	}{
		{
			name: "missing id",
			unit: "name: No ID\nfilename_patterns: ['x']\n",
		},
		{
			name: "no identification",
			unit: "id: bare\nname: Bare\n",
		},
		{
			name: "unknown check type",
			unit: `
id: bad_check
filename_patterns: ['x']
checks:
  - id: c1
    type: regex_validation
`,
		},
		{
			name: "duplicate check ids",
			unit: `
id: dup_checks
filename_patterns: ['x']
checks:
  - id: c1
    type: data_quality
  - id: c1
    type: data_quality
`,
		},
		{
			name: "malformed filename pattern",
			unit: "id: bad_re\nfilename_patterns: ['[unclosed']\n",
		},
		{
			name: "bad deduction operator",
			unit: `
id: bad_condition
filename_patterns: ['x']
scoring:
  deductions:
    - condition: "failed_count != 0"
      points: 10
`,
		},
		{
			name: "base score out of range",
			unit: `
id: bad_base
filename_patterns: ['x']
scoring:
  base_score: 120
`,
		},
		{
			name: "fuzzy threshold out of range",
			unit: "id: bad_fuzzy\nfilename_patterns: ['x']\nfuzzy_threshold: 1.5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeUnit(t, dir, "unit.yaml", tt.unit)

			_, err := LoadDir(dir)
			require.Error(t, err)

			var cfgErr *common.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "expected a ConfigError, got %v", err)
		})
	}
}

func TestLoadDirDuplicateTypeID(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "a.yaml", "id: same\nname: A\nfilename_patterns: ['a']\n")
	writeUnit(t, dir, "b.yaml", "id: same\nname: B\nfilename_patterns: ['b']\n")

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestDisabledTypesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "off.yaml", "id: off\nfilename_patterns: ['off']\nenabled: false\n")
	writeUnit(t, dir, "on.yaml", "id: on\nfilename_patterns: ['on']\n")

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"on"}, reg.TypeIDs())

	_, err = reg.Get("off")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMatchFilename(t *testing.T) {
	dir := t.TempDir()
	writeUnit(t, dir, "veeam_backup.yaml", veeamUnit)

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	def, err := reg.Get("veeam_backup")
	require.NoError(t, err)

	t.Run("case insensitive", func(t *testing.T) {
		pattern, ok := def.MatchFilename("VEEAM_Report_Oktober.csv")
		assert.True(t, ok)
		assert.Equal(t, "veeam", pattern)
	})

	t.Run("unanchored, matches mid-name", func(t *testing.T) {
		_, ok := def.MatchFilename("monthly_veeam_export.csv")
		assert.True(t, ok)
	})

	t.Run("anchored pattern binds to the start", func(t *testing.T) {
		reg, err := Load([]*Definition{{
			ID:               "strict",
			Name:             "Strict",
			FilenamePatterns: []string{`^veeam`},
		}})
		require.NoError(t, err)
		def, err := reg.Get("strict")
		require.NoError(t, err)

		_, ok := def.MatchFilename("veeam_export.csv")
		assert.True(t, ok)
		_, ok = def.MatchFilename("monthly_veeam_export.csv")
		assert.False(t, ok)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := def.MatchFilename("keepit_export.csv")
		assert.False(t, ok)
	})
}
