package resolver

import (
	"testing"
)

func TestParse(t *testing.T) {
	patterns := NewPatternTable(map[string]string{"gh": "GitHub Issues", "CS": "Support"})

	tests := []struct {
		name       string
		ref        string
		patterns   *PatternTable
		wantID     string
		wantPrefix string
	}{
		{name: "empty", ref: "", patterns: patterns, wantID: ""},
		{name: "whitespace only", ref: "   ", patterns: patterns, wantID: ""},
		{name: "plain id", ref: "86abc123", patterns: patterns, wantID: "86abc123"},
		{name: "trimmed", ref: "  86abc123\n", patterns: patterns, wantID: "86abc123"},
		{name: "hash shorthand", ref: "#123", patterns: patterns, wantID: "123"},
		{name: "url with team", ref: "https://app.clickup.com/t/3647378/GH-3761", patterns: patterns, wantID: "GH-3761", wantPrefix: "gh"},
		{name: "url without team", ref: "https://app.clickup.com/t/abc123", patterns: patterns, wantID: "abc123"},
		{name: "http url", ref: "http://app.clickup.com/t/abc123", patterns: patterns, wantID: "abc123"},
		{name: "url with query", ref: "https://app.clickup.com/t/abc123?comment=9", patterns: patterns, wantID: "abc123"},
		{name: "url embedded task path", ref: "https://app.clickup.com/9001/v/li/t/86x-1", patterns: patterns, wantID: "86x-1"},
		{name: "url without task segment", ref: "https://app.clickup.com/t/", patterns: patterns, wantID: "https://app.clickup.com/t/"},
		{name: "url elsewhere", ref: "https://example.com/docs/page", patterns: patterns, wantID: "https://example.com/docs/page"},
		{name: "known prefix keeps casing", ref: "GH-3761", patterns: patterns, wantID: "GH-3761", wantPrefix: "gh"},
		{name: "known prefix lower", ref: "gh-123", patterns: patterns, wantID: "gh-123", wantPrefix: "gh"},
		{name: "table keys normalized", ref: "cs-9", patterns: patterns, wantID: "cs-9", wantPrefix: "cs"},
		{name: "unknown prefix", ref: "JIRA-42", patterns: patterns, wantID: "JIRA-42"},
		{name: "no table", ref: "gh-123", patterns: nil, wantID: "gh-123"},
		{name: "hash with prefix", ref: "#gh-5", patterns: patterns, wantID: "gh-5", wantPrefix: "gh"},
		{name: "only first dash counts", ref: "gh-a-b", patterns: patterns, wantID: "gh-a-b", wantPrefix: "gh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.ref, tt.patterns)
			if got.CandidateID != tt.wantID {
				t.Errorf("CandidateID = %q, want %q", got.CandidateID, tt.wantID)
			}
			if got.CustomPrefix != tt.wantPrefix {
				t.Errorf("CustomPrefix = %q, want %q", got.CustomPrefix, tt.wantPrefix)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	patterns := NewPatternTable(map[string]string{"gh": "GitHub Issues"})
	refs := []string{
		"86abc123",
		"#123",
		"GH-3761",
		"https://app.clickup.com/t/3647378/GH-3761",
		"https://app.clickup.com/t/abc123",
		" abc-def ",
	}

	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			first := Parse(ref, patterns)
			second := Parse(first.CandidateID, patterns)
			if first != second {
				t.Errorf("Parse(%q) = %+v, reparsed = %+v", ref, first, second)
			}
		})
	}
}

func TestParsedReference_LooksCustom(t *testing.T) {
	if (ParsedReference{CandidateID: "abc"}).LooksCustom() {
		t.Error("plain ID should not look custom")
	}
	if !(ParsedReference{CandidateID: "abc-1"}).LooksCustom() {
		t.Error("dashed ID should look custom")
	}
	if !(ParsedReference{CandidateID: "x", CustomPrefix: "gh"}).LooksCustom() {
		t.Error("prefixed ID should look custom")
	}
}

func TestPatternTable(t *testing.T) {
	source := map[string]string{"GH": "GitHub Issues", " cs ": "Support", "": "ignored"}
	table := NewPatternTable(source)
	source["new"] = "added later"

	if table.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", table.Len())
	}
	if !table.Known("gh") || !table.Known("Gh") {
		t.Error("expected gh to be known case-insensitively")
	}
	if table.Known("new") {
		t.Error("table must not see later changes to its source map")
	}
	if label, ok := table.Label("cs"); !ok || label != "Support" {
		t.Errorf("Label(cs) = %q, %v", label, ok)
	}
	if got := table.Prefixes(); len(got) != 2 || got[0] != "cs" || got[1] != "gh" {
		t.Errorf("Prefixes() = %v", got)
	}

	var nilTable *PatternTable
	if nilTable.Known("gh") || nilTable.Len() != 0 || nilTable.Prefixes() != nil {
		t.Error("nil table should behave as empty")
	}
}
