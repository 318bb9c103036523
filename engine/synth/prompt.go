// Package synth builds the constrained answer from the top-ranked
// candidates: prompt construction, the generative call, post-processing
// of the raw output, and style validation.
package synth

import (
	"fmt"
	"strings"

	"github.com/FolioAI/folio-mvp/engine/retrieval"
)

// The style contract. The structured action/effect/outcome fields exist
// precisely so the generator never paraphrases a vague summary; the
// prompt repeats the constraints the validator later enforces.
const systemPrompt = `You are the voice of a software engineer's CV chatbot, answering in the first person, in US English.
Rules, all mandatory:
- Answer in at most 2 sentences.
- Use ONLY the skill entries provided. Never invent facts, numbers, or durations, and never transfer an outcome or a years figure from one skill entry to another.
- Close the answer with the employer or project name of the skill you relied on most (for example "... at Acme.").
- No greetings, no filler openers like "I've worked in X for Y years" or "My expertise spans", no trailing enumerations like "including A, B, and C".`

// buildPrompt renders the question and candidate entries into the user
// prompt. Entries without a structured narrative fall back to the
// summary, flagged so the generator stays literal.
func buildPrompt(question string, cands []retrieval.Scored) string {
	var b strings.Builder
	b.WriteString("Skill entries:\n")
	for i, c := range cands {
		r := c.Record
		fmt.Fprintf(&b, "%d. %s (%s, %d years", i+1, r.Name, r.Level, r.Years)
		if r.Category != "" {
			fmt.Fprintf(&b, ", %s", r.Category)
		}
		b.WriteString(")\n")
		if r.HasNarrative() {
			if r.Action != "" {
				fmt.Fprintf(&b, "   did: %s\n", r.Action)
			}
			if r.Effect != "" {
				fmt.Fprintf(&b, "   technical effect: %s\n", r.Effect)
			}
			if r.Outcome != "" {
				fmt.Fprintf(&b, "   business outcome: %s\n", r.Outcome)
			}
		} else if r.Summary != "" {
			fmt.Fprintf(&b, "   summary (stay literal, do not embellish): %s\n", r.Summary)
		}
		if entity := r.ClosingEntity(); entity != "" {
			fmt.Fprintf(&b, "   employer/project: %s\n", entity)
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}
