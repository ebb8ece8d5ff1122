package resolver

import (
	"net/url"
	"regexp"
	"strings"
)

// ParsedReference is the result of Parse.
type ParsedReference struct {
	// CandidateID is the ID to look up, with its original casing.
	CandidateID string
	// CustomPrefix is the lower-cased prefix of a known custom ID pattern, or "" when the
	// candidate does not start with one.
	CustomPrefix string
}

// HasCustomPrefix reports whether the candidate matched a known custom ID pattern.
func (p ParsedReference) HasCustomPrefix() bool {
	return p.CustomPrefix != ""
}

// LooksCustom reports whether the candidate could be a custom task ID.
func (p ParsedReference) LooksCustom() bool {
	return p.HasCustomPrefix() || strings.Contains(p.CandidateID, "-")
}

var taskPathPattern = regexp.MustCompile(`/t/([A-Za-z0-9-]+)`)

// Parse extracts the candidate task ID from ref. It never makes network calls.
//
// URLs of the form /t/{id} and /t/{team}/{id} yield the last segment; "#123" yields "123";
// anything else is taken as is. When patterns is non-nil and the candidate contains "-",
// the text before the first "-" is checked against patterns case-insensitively.
func Parse(ref string, patterns *PatternTable) ParsedReference {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ParsedReference{}
	}

	var candidate string
	switch {
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		candidate = candidateFromURL(ref)
	case strings.HasPrefix(ref, "#"):
		candidate = ref[1:]
	default:
		candidate = ref
	}

	parsed := ParsedReference{CandidateID: candidate}
	if patterns != nil {
		if prefix, _, found := strings.Cut(candidate, "-"); found {
			prefix = strings.ToLower(prefix)
			if patterns.Known(prefix) {
				parsed.CustomPrefix = prefix
			}
		}
	}
	return parsed
}

func candidateFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) >= 2 && segments[0] == "t" {
		return segments[len(segments)-1]
	}
	if m := taskPathPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}
	return raw
}
