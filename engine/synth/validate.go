package synth

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation names a style rule the narrative breaks. Violations are
// recorded, never fatal: content correctness outranks house style, so
// the best-effort text is returned regardless.
type Violation struct {
	Rule   string
	Detail string
}

// genericEntityClose matches an answer closing with a capitalized
// entity after a linking preposition ("... at Acme.").
var genericEntityClose = regexp.MustCompile(`(?:at|for|with|on)\s+[A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*){0,3}[.!]?$`)

// Validator enforces the style contract on synthesized narratives.
type Validator struct {
	SentenceCap int
	WordCeiling int
	// Entities are the known employer/project names a narrative may
	// close with, in addition to the generic pattern.
	Entities []string
}

// Validate returns all rule violations for the text.
func (v *Validator) Validate(text string) []Violation {
	var out []Violation

	if !v.endsWithEntity(text) {
		out = append(out, Violation{Rule: "closing_entity", Detail: "does not end with an employer/project name"})
	}

	if n := len(SplitSentences(text)); n > v.SentenceCap {
		out = append(out, Violation{Rule: "sentence_count", Detail: fmt.Sprintf("%d sentences, cap %d", n, v.SentenceCap)})
	}

	if n := CountWords(text); v.WordCeiling > 0 && n > v.WordCeiling {
		out = append(out, Violation{Rule: "word_count", Detail: fmt.Sprintf("%d words, ceiling %d", n, v.WordCeiling)})
	}

	lower := strings.ToLower(text)
	for _, phrase := range fillerPhrases {
		if strings.Contains(lower, phrase) {
			out = append(out, Violation{Rule: "filler_phrase", Detail: phrase})
			break
		}
	}
	return out
}

// Correct applies the one auto-correctable fix (sentence overflow) and
// returns the corrected text plus the violations that remain.
func (v *Validator) Correct(text string, violations []Violation, truncateTo int) (string, []Violation) {
	for _, viol := range violations {
		if viol.Rule != "sentence_count" {
			continue
		}
		sentences := SplitSentences(text)
		if len(sentences) > truncateTo {
			text = strings.Join(sentences[:truncateTo], " ")
		}
		return text, v.Validate(text)
	}
	return text, violations
}

func (v *Validator) endsWithEntity(text string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(text), `.!?"'`)
	if trimmed == "" {
		return false
	}
	for _, e := range v.Entities {
		if e != "" && strings.HasSuffix(strings.ToLower(trimmed), strings.ToLower(e)) {
			return true
		}
	}
	return genericEntityClose.MatchString(text)
}
