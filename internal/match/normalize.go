// Package match provides identifier normalization and fuzzy string matching
// used by report-type detection and field mapping. Producer column names are
// never guaranteed to match configuration literals exactly, so all column
// resolution goes through this layer.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and drops combining marks, so "Größe" and
// "grosse" style header variants compare on their base letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, removes whitespace and the separator characters
// header variants disagree on (underscore, hyphen), and strips diacritical
// marks via Unicode canonical decomposition. "VM Name", "vm_name" and
// "VM-Name" all normalize identically.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			return -1
		}
		return r
	}, out)
}
