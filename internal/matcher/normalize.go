package matcher

import (
	"strings"
	"unicode"
)

// NormalizeDocNumber canonicalizes a document/invoice number for fuzzy
// comparison: all whitespace, hyphens, underscores, periods and commas are
// stripped and the remainder is uppercased. "INV-001", "inv 001" and
// "inv_001" all normalize to "INV001".
//
// Only Passes 3-5 use this form. Passes 1-2 deliberately compare the exact
// trimmed, uppercased string so that structural noise in the document number
// still counts against an "exact" match.
func NormalizeDocNumber(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) {
			continue
		}
		switch r {
		case '-', '_', '.', ',':
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// exactDocEqual compares two document numbers permitting only case and
// surrounding-whitespace noise.
func exactDocEqual(a, b string) bool {
	return strings.ToUpper(strings.TrimSpace(a)) == strings.ToUpper(strings.TrimSpace(b))
}

// fuzzyDocEqual compares two document numbers after full normalization.
func fuzzyDocEqual(a, b string) bool {
	return NormalizeDocNumber(a) == NormalizeDocNumber(b)
}
