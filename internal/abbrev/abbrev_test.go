package abbrev

import (
	"reflect"
	"testing"
)

func TestParseLines(t *testing.T) {
	output := `WDC: weighted degree centrality
SH: structural holes

Here are some abbreviations I found:
- BC: betweenness centrality
* CC: closeness centrality
not an entry at all
note: this line is prose with a colon
`
	entries := ParseLines(output)

	want := []Entry{
		{Abbr: "WDC", Expansion: "weighted degree centrality"},
		{Abbr: "SH", Expansion: "structural holes"},
		{Abbr: "BC", Expansion: "betweenness centrality"},
		{Abbr: "CC", Expansion: "closeness centrality"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("ParseLines mismatch:\ngot  %v\nwant %v", entries, want)
	}
}

func TestParseLinesDropsProse(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"long phrase before colon", "the following terms are defined: things"},
		{"empty expansion", "WDC:"},
		{"no colon", "WDC weighted degree centrality"},
		{"lower-case word", "note: a remark"},
		{"starts with digit", "3D: three dimensional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if entries := ParseLines(tt.output); len(entries) != 0 {
				t.Errorf("expected no entries, got %v", entries)
			}
		})
	}
}

func TestParseLinesMixedCaseAbbr(t *testing.T) {
	entries := ParseLines("pH: potential of hydrogen")
	if len(entries) != 1 || entries[0].Abbr != "pH" {
		t.Errorf("expected pH entry, got %v", entries)
	}
}

func TestFilterPresent(t *testing.T) {
	article := "We use weighted degree centrality (WDC) throughout."
	entries := []Entry{
		{Abbr: "WDC", Expansion: "weighted degree centrality"},
		{Abbr: "SH", Expansion: "structural holes"},
	}
	kept := FilterPresent(entries, article)
	if len(kept) != 1 || kept[0].Abbr != "WDC" {
		t.Errorf("expected only WDC kept, got %v", kept)
	}
}

func TestMergeDeduplicatesAndSorts(t *testing.T) {
	first := []Entry{
		{Abbr: "SH", Expansion: "structural holes"},
		{Abbr: "WDC", Expansion: "weighted degree centrality"},
	}
	second := []Entry{
		{Abbr: "BC", Expansion: "betweenness centrality"},
		{Abbr: "sh", Expansion: "a different expansion"}, // dup, case-insensitive
	}

	merged := Merge(first, second)

	want := []Entry{
		{Abbr: "BC", Expansion: "betweenness centrality"},
		{Abbr: "SH", Expansion: "structural holes"},
		{Abbr: "WDC", Expansion: "weighted degree centrality"},
	}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("Merge mismatch:\ngot  %v\nwant %v", merged, want)
	}
}

func TestMergeEmpty(t *testing.T) {
	if merged := Merge(); len(merged) != 0 {
		t.Errorf("expected empty merge, got %v", merged)
	}
}
