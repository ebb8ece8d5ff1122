package resolver

import (
	"sort"
	"strings"
)

// PatternTable maps custom task ID prefixes ("gh") to labels ("GitHub Issues").
// It is immutable once built and safe for concurrent use. A nil *PatternTable behaves as an
// empty table.
type PatternTable struct {
	labels map[string]string
}

// NewPatternTable copies patterns into a table keyed by lower-cased prefix. Blank prefixes
// are ignored.
func NewPatternTable(patterns map[string]string) *PatternTable {
	labels := make(map[string]string, len(patterns))
	for prefix, label := range patterns {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		labels[prefix] = label
	}
	return &PatternTable{labels: labels}
}

// Known reports whether prefix is in the table, ignoring case.
func (p *PatternTable) Known(prefix string) bool {
	_, ok := p.Label(prefix)
	return ok
}

// Label returns the label registered for prefix.
func (p *PatternTable) Label(prefix string) (string, bool) {
	if p == nil {
		return "", false
	}
	label, ok := p.labels[strings.ToLower(prefix)]
	return label, ok
}

// Prefixes returns the known prefixes in sorted order.
func (p *PatternTable) Prefixes() []string {
	if p == nil {
		return nil
	}
	prefixes := make([]string, 0, len(p.labels))
	for prefix := range p.labels {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

func (p *PatternTable) Len() int {
	if p == nil {
		return 0
	}
	return len(p.labels)
}
