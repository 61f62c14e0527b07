// Package strutil provides small string normalization helpers shared by
// the callsign and name handling code.
package strutil

import "strings"

// NormalizeUpper trims surrounding whitespace and converts to upper case.
// Use for callsigns and other tokens where case is not significant.
func NormalizeUpper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// NormalizeLower trims surrounding whitespace and converts to lower case.
// Use for case-insensitive name comparisons.
func NormalizeLower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
