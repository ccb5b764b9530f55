// Package resolve deduplicates entities extracted from transcript units.
// It canonicalizes names, scores pairwise similarity, clusters candidate
// duplicates with a union-find, and merges each cluster into a single
// representative entity.
package resolve

import "strings"

// corporateSuffixes are trailing tokens stripped during normalization.
// Matching is whole-token only, so "Incline" is never truncated.
var corporateSuffixes = map[string]bool{
	"inc":         true,
	"inc.":        true,
	"corp":        true,
	"corp.":       true,
	"corporation": true,
	"llc":         true,
	"llc.":        true,
	"ltd":         true,
	"ltd.":        true,
	"co":          true,
	"co.":         true,
}

// abbreviations is a small fixed lookup of punctuation-in-abbreviation
// expansions applied after lower-casing. This is table lookup, not NLP.
var abbreviations = map[string]string{
	"u.s.":   "us",
	"u.s.a.": "usa",
	"u.k.":   "uk",
	"a.i.":   "ai",
	"at&t":   "atandt",
}

// Normalize canonicalizes an entity name for comparison: lower-case, trim,
// collapse internal whitespace, strip trailing corporate suffixes, and
// expand a fixed set of abbreviations. Empty input returns the empty
// string. Normalization is lossy by design; two distinct entities can
// normalize identically, and the scorer and resolver are responsible for
// telling them apart.
func Normalize(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}

	// Strip trailing corporate suffix tokens, but never the whole name.
	for len(fields) > 1 && corporateSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}

	for i, field := range fields {
		if expanded, ok := abbreviations[field]; ok {
			fields[i] = expanded
		} else {
			fields[i] = strings.ReplaceAll(field, "&", "and")
		}
	}

	return strings.Join(fields, " ")
}
