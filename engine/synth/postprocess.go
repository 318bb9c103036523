package synth

import (
	"regexp"
	"strings"
	"unicode"
)

// FillerRule is one entry in the filler-stripping table. Openers are
// removed from the front of the text, trailers from the end; the same
// table backs the validator's must-not-contain check.
type FillerRule struct {
	Kind    string // "opener" or "trailer"
	Pattern *regexp.Regexp
}

// fillerRules is fixed and versioned with the code; tests pin it.
var fillerRules = []FillerRule{
	{Kind: "opener", Pattern: regexp.MustCompile(`(?i)^(?:sure|certainly|of course|great question)[,!.]\s*`)},
	{Kind: "opener", Pattern: regexp.MustCompile(`(?i)^i'?ve (?:been )?work(?:ed|ing) (?:in|with) [^.!?]{0,60}? for \d+\+? years?[,.:]?\s*`)},
	{Kind: "opener", Pattern: regexp.MustCompile(`(?i)^my expertise spans[^.!?]*[.:]?\s*`)},
	{Kind: "opener", Pattern: regexp.MustCompile(`(?i)^as an? (?:experienced|seasoned|senior) [^,.!?]{0,40}[,.]\s*`)},
	{Kind: "trailer", Pattern: regexp.MustCompile(`(?i),?\s*including [^.!?]{0,80}\.?\s*$`)},
	{Kind: "trailer", Pattern: regexp.MustCompile(`(?i)\s*(?:feel free to|let me know if|don'?t hesitate to)[^.!?]*[.!]?\s*$`)},
}

// fillerPhrases are substrings that must not survive into the final
// narrative; the validator reports them.
var fillerPhrases = []string{
	"my expertise spans",
	"proven track record",
	"passionate about",
	"let me know if",
	"feel free to",
}

// Postprocess cleans raw generator output: strips quote artifacts and
// filler, drops a cut-off final sentence, and hard-truncates to the
// first maxSentences reconstructed sentences.
func Postprocess(raw string, maxSentences int) string {
	text := strings.TrimSpace(raw)
	text = stripEnclosingQuotes(text)

	for _, rule := range fillerRules {
		for rule.Pattern.MatchString(text) {
			text = strings.TrimSpace(rule.Pattern.ReplaceAllString(text, ""))
			// A trailer strip can eat the final period; restore it so
			// the cut-off check below doesn't drop the whole sentence.
			if rule.Kind == "trailer" && text != "" && !endsComplete(text) {
				text += "."
			}
		}
	}

	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	// The generator may be cut off mid-sentence by the token budget;
	// keep only complete sentences.
	if !endsComplete(sentences[len(sentences)-1]) {
		sentences = sentences[:len(sentences)-1]
	}
	if maxSentences > 0 && len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return strings.Join(sentences, " ")
}

func stripEnclosingQuotes(text string) string {
	pairs := [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}}
	for _, p := range pairs {
		if len(text) > 1 && strings.HasPrefix(text, p[0]) && strings.HasSuffix(text, p[1]) {
			return strings.TrimSpace(text[len(p[0]) : len(text)-len(p[1])])
		}
	}
	return text
}

// SplitSentences splits text on terminal punctuation. A period between
// two digits is a decimal point ("99.9"), not a sentence boundary. A
// trailing fragment without terminal punctuation is returned as the
// final (incomplete) element.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		// Fold consecutive closers ("?!", `."`) into the sentence.
		j := i
		for j+1 < len(runes) && strings.ContainsRune(`.!?"'`, runes[j+1]) {
			j++
		}
		if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
			out = append(out, s)
		}
		start = j + 1
		i = j
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		out = append(out, rest)
	}
	return out
}

// endsComplete reports whether a sentence ends with terminal
// punctuation (ignoring a trailing quote).
func endsComplete(s string) bool {
	s = strings.TrimRight(s, `"'`)
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == '.' || last == '!' || last == '?'
}

// CountWords returns the whitespace-delimited word count.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
