// Package plate holds display helpers for recognized license plate strings.
package plate

import (
	"regexp"
	"strings"
)

// letterDigitPattern matches a whole plate of 2-3 letters followed by 2-3 digits,
// e.g. "ABC123" or "ÄÖ12". Matching is case-insensitive.
var letterDigitPattern = regexp.MustCompile(`(?i)^([A-ZÅÄÖ]{2,3})([0-9]{2,3})$`)

// Format renders a recognized plate for display.
// Plates of the letters-then-digits form become "LETTERS-DIGITS"; anything else is
// returned uppercased and otherwise unchanged.
func Format(raw string) string {
	m := letterDigitPattern.FindStringSubmatch(raw)
	if m == nil {
		return strings.ToUpper(raw)
	}
	return strings.ToUpper(m[1]) + "-" + m[2]
}

// FormatAll applies Format to every plate, preserving order.
func FormatAll(raw []string) []string {
	out := make([]string, len(raw))
	for i, p := range raw {
		out[i] = Format(p)
	}
	return out
}
