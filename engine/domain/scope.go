package domain

import (
	"regexp"
	"strings"
)

// ScopeDetector spots an explicit employer/project mention in a query
// ("what did he build at Acme?") and strips it from the text used for
// embedding, so the vector reflects the skill, not the employer name.
type ScopeDetector struct {
	names    []string
	patterns []*regexp.Regexp // index-aligned with names
}

// NewScopeDetector compiles detection patterns for the known
// employer/project names. Unknown employers are never detected; the
// query simply searches the whole corpus.
func NewScopeDetector(names []string) *ScopeDetector {
	d := &ScopeDetector{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		// "at Acme", "for Acme", "while at Acme", "during the Acme project"
		p := regexp.MustCompile(`(?i)\b(?:(?:while\s+|back\s+)?at|for|with|during(?:\s+\w+){0,2})\s+` + regexp.QuoteMeta(n) + `\b`)
		d.names = append(d.names, n)
		d.patterns = append(d.patterns, p)
	}
	return d
}

// Detect returns the detected scope (canonical name) and the text with
// the employer mention removed. When nothing matches, scope is empty
// and the text is returned unchanged.
func (d *ScopeDetector) Detect(text string) (scope, stripped string) {
	if d == nil {
		return "", text
	}
	for i, p := range d.patterns {
		if !p.MatchString(text) {
			continue
		}
		out := p.ReplaceAllString(text, "")
		// A bare trailing mention ("the Acme work") still leaks the name.
		bare := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(d.names[i]) + `\b`)
		out = bare.ReplaceAllString(out, "")
		out = strings.Join(strings.Fields(out), " ")
		out = strings.TrimRight(strings.TrimSpace(out), " ,;")
		if out == "" {
			out = text // never embed an empty string
		}
		return d.names[i], out
	}
	return "", text
}
