package operator

import (
	"regexp"
	"strings"
	"unicode"

	lev "github.com/agnivade/levenshtein"

	"qrzsync/strutil"
)

// Callsigns of silent-key operators sometimes carry a /SK suffix with the
// year, e.g. KB7OUU/SK2025. QRZ only knows the base call.
var skSuffix = regexp.MustCompile(`/SK\d+`)

// CleanCallsign upper-cases a callsign and strips any /SK<year> suffix.
func CleanCallsign(call string) string {
	return skSuffix.ReplaceAllString(strutil.NormalizeUpper(call), "")
}

var licenseClasses = map[string]string{
	"E": "Extra",
	"G": "General",
	"T": "Technician",
	"A": "Advanced",
	"C": "Club",
}

// MapLicenseClass expands an FCC license class code to its full name.
func MapLicenseClass(code string) string {
	if name, ok := licenseClasses[code]; ok {
		return name
	}
	return "Unknown Class"
}

// dateOnly truncates a "YYYY-MM-DD HH:MM:SS" value to the date part.
func dateOnly(value string) string {
	if value == "" {
		return ""
	}
	return strings.Fields(value)[0]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// normalizeNamePair applies the QRZ name cleanup rules: the last name is
// truncated at the first comma; when the first name is absent it is split
// off the last name; otherwise both are title-cased and single-letter
// words after the first are dropped from the first name.
func normalizeNamePair(first, last string) (string, string) {
	if last != "" {
		last = strings.TrimSpace(strings.SplitN(last, ",", 2)[0])
	}

	if first == "" {
		parts := strings.Fields(last)
		switch len(parts) {
		case 0:
			return "", ""
		case 1:
			return parts[0], parts[0]
		default:
			return parts[0], strings.Join(parts[1:], " ")
		}
	}

	first = titleCase(first)
	last = titleCase(last)

	words := strings.Fields(first)
	if len(words) > 0 {
		kept := words[:1]
		for _, w := range words[1:] {
			if len(w) > 1 {
				kept = append(kept, w)
			}
		}
		first = strings.Join(kept, " ")
	}
	return first, last
}

// FirstNameKey normalizes a first name for comparison: collapsed spaces,
// title case, and a leading single-letter initial dropped ("J Fred" and
// "Fred" compare equal).
func FirstNameKey(name string) string {
	name = titleCase(name)
	parts := strings.Fields(name)
	if len(parts) > 1 && len(parts[0]) == 1 {
		return strings.Join(parts[1:], " ")
	}
	return name
}

// NamesMatch reports whether the stored names and the fetched names refer
// to the same person. A trailing comma on the stored first name is an
// artifact of older imports and is ignored.
func NamesMatch(storedFirst, storedLast, first, last string) bool {
	storedFirst = strings.TrimRight(storedFirst, ",")
	return FirstNameKey(storedFirst) == FirstNameKey(first) &&
		strings.EqualFold(storedLast, last)
}

// NameMismatch describes one disagreeing name field. Distance is the
// Levenshtein distance between the case-folded values; a distance of 1 or
// 2 usually means a typo rather than a different operator.
type NameMismatch struct {
	Field    string
	Stored   string
	Fetched  string
	Distance int
}

// CompareNames lists the name fields that disagree between the stored row
// and the fetched record.
func CompareNames(storedFirst, storedLast, first, last string) []NameMismatch {
	storedFirst = strings.TrimRight(storedFirst, ",")

	var mismatches []NameMismatch
	if FirstNameKey(storedFirst) != FirstNameKey(first) {
		mismatches = append(mismatches, NameMismatch{
			Field:    "first name",
			Stored:   storedFirst,
			Fetched:  first,
			Distance: lev.ComputeDistance(strutil.NormalizeLower(storedFirst), strutil.NormalizeLower(first)),
		})
	}
	if !strings.EqualFold(storedLast, last) {
		mismatches = append(mismatches, NameMismatch{
			Field:    "last name",
			Stored:   storedLast,
			Fetched:  last,
			Distance: lev.ComputeDistance(strutil.NormalizeLower(storedLast), strutil.NormalizeLower(last)),
		})
	}
	return mismatches
}
