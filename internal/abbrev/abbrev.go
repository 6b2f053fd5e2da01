// Package abbrev parses and merges abbreviation-index output produced by the
// model: one entry per line in the form "ABBR: full term".
package abbrev

import (
	"sort"
	"strings"
)

// Entry is a single abbreviation with its expansion.
type Entry struct {
	Abbr      string
	Expansion string
}

// ParseLines extracts "ABBR: full term" entries from model output. Lines that
// do not match the format are dropped, as are list markers the model may add
// despite instructions.
func ParseLines(output string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		abbr, expansion, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		abbr = strings.TrimSpace(abbr)
		expansion = strings.TrimSpace(expansion)
		if !looksLikeAbbreviation(abbr) || expansion == "" {
			continue
		}
		entries = append(entries, Entry{Abbr: abbr, Expansion: expansion})
	}
	return entries
}

// looksLikeAbbreviation filters out prose lines that happen to contain a
// colon. An abbreviation is short, starts with a letter and contains no
// spaces.
func looksLikeAbbreviation(s string) bool {
	if s == "" || len(s) > 15 {
		return false
	}
	if strings.ContainsAny(s, " \t") {
		return false
	}
	first := rune(s[0])
	if !(first >= 'A' && first <= 'Z' || first >= 'a' && first <= 'z') {
		return false
	}
	// Require at least one upper-case letter or digit; plain lower-case
	// words are almost never abbreviations.
	for _, r := range s {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// FilterPresent keeps only entries whose short form occurs in the article
// text, enforcing the "only abbreviations that actually appear" rule even
// when the model invents one.
func FilterPresent(entries []Entry, articleText string) []Entry {
	var kept []Entry
	for _, e := range entries {
		if strings.Contains(articleText, e.Abbr) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Merge combines entries collected from multiple windows of the same
// article. The first expansion seen for an abbreviation wins; the result is
// sorted alphabetically by abbreviation, case-insensitive.
func Merge(batches ...[]Entry) []Entry {
	seen := make(map[string]bool)
	var merged []Entry
	for _, batch := range batches {
		for _, e := range batch {
			key := strings.ToUpper(e.Abbr)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, e)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		a, b := strings.ToUpper(merged[i].Abbr), strings.ToUpper(merged[j].Abbr)
		if a == b {
			return merged[i].Abbr < merged[j].Abbr
		}
		return a < b
	})
	return merged
}
