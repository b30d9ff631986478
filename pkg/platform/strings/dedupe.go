// Package strings provides string list helpers for configuration and
// identifiers read from external systems.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// SplitList splits a comma separated value and applies DedupeAndTrim.
// An empty input yields nil.
func SplitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	out := DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}

// DedupeCountryCodes upper-cases and trims each code, dropping blanks and
// repeats. Order is preserved.
//
//	DedupeCountryCodes([]string{" jp", "FR", "JP", ""})
//	// Returns: []string{"JP", "FR"}
func DedupeCountryCodes(codes []string) []string {
	return dedupe(codes, func(s string) string {
		return strings.ToUpper(strings.TrimSpace(s))
	})
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}
	return result
}
