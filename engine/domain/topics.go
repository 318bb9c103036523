package domain

import "regexp"

// TopicRulesVersion identifies the active revision of the prohibited
// topic table. Bump when rules change so the audit events can record
// which revision rejected a query.
const TopicRulesVersion = "2025-08"

// TopicRule is one entry in the prohibited-topic table. Rules are kept
// as data, not inline literals, so they can be unit-tested and revised
// independently of the orchestration logic.
type TopicRule struct {
	Category   string
	Pattern    *regexp.Regexp
	Message    string
	Suggestion string
}

// DefaultTopicRules returns the built-in blocklist. Rejection by one of
// these is a content-scope guard, not an error: callers render it as a
// normal response with the suggestion attached.
func DefaultTopicRules() []TopicRule {
	return []TopicRule{
		{
			Category:   "compensation",
			Pattern:    regexp.MustCompile(`(?i)\b(salary|salaries|compensation|pay(check| rise|ment)?|wage|hourly rate|day rate|how much .{0,20}(earn|charge|cost|paid))\b`),
			Message:    "I don't discuss compensation here.",
			Suggestion: "Try asking about specific technologies or project outcomes instead.",
		},
		{
			Category:   "personal",
			Pattern:    regexp.MustCompile(`(?i)\b(married|single|girlfriend|boyfriend|spouse|kids|children|religion|political|politics|home address|where (do|does) .{0,20}live|how old)\b`),
			Message:    "Personal questions are out of scope for this assistant.",
			Suggestion: "Ask me about professional experience, for example a language or database.",
		},
		{
			Category:   "availability",
			Pattern:    regexp.MustCompile(`(?i)\b(availab(le|ility)|notice period|start date|job offer|open to (work|offers)|for hire|hiring|relocat(e|ion)|looking for (a )?(job|role|work))\b`),
			Message:    "Availability and employment negotiation aren't handled by this chat.",
			Suggestion: "For skills and past work, ask away; for anything else use the contact form.",
		},
		{
			Category:   "weaknesses",
			Pattern:    regexp.MustCompile(`(?i)\b(weakness(es)?|shortcomings?|biggest flaw|worst (skill|trait)|bad at|list .{0,20}fail(ure)?s)\b`),
			Message:    "I won't enumerate weaknesses.",
			Suggestion: "Ask about strengths in a specific area, like cloud infrastructure or Go.",
		},
	}
}

// MatchTopic returns the first rule matching the text, if any.
func MatchTopic(rules []TopicRule, text string) (TopicRule, bool) {
	for _, rule := range rules {
		if rule.Pattern.MatchString(text) {
			return rule, true
		}
	}
	return TopicRule{}, false
}
