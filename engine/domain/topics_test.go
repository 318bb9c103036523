package domain

import "testing"

func TestMatchTopic_Categories(t *testing.T) {
	rules := DefaultTopicRules()
	cases := []struct {
		query    string
		category string
	}{
		{"What is your salary expectation?", "compensation"},
		{"how much do you earn per year", "compensation"},
		{"what is your hourly rate", "compensation"},
		{"are you married", "personal"},
		{"do you have kids", "personal"},
		{"how old are you", "personal"},
		{"are you available for hire", "availability"},
		{"what is your notice period", "availability"},
		{"would you relocate to Berlin", "availability"},
		{"what are your biggest weaknesses", "weaknesses"},
		{"what are you bad at", "weaknesses"},
	}
	for _, c := range cases {
		rule, ok := MatchTopic(rules, c.query)
		if !ok {
			t.Errorf("MatchTopic(%q): expected a match", c.query)
			continue
		}
		if rule.Category != c.category {
			t.Errorf("MatchTopic(%q): got category %s, want %s", c.query, rule.Category, c.category)
		}
		if rule.Message == "" || rule.Suggestion == "" {
			t.Errorf("rule %s lacks message or suggestion", rule.Category)
		}
	}
}

func TestMatchTopic_AllowsOnTopicQueries(t *testing.T) {
	rules := DefaultTopicRules()
	for _, q := range []string{
		"What databases has the candidate used?",
		"Tell me about Go concurrency experience",
		"How many years of Kubernetes experience?",
		"What did he build at Acme?",
	} {
		if rule, ok := MatchTopic(rules, q); ok {
			t.Errorf("MatchTopic(%q): unexpectedly blocked by %s", q, rule.Category)
		}
	}
}

func TestMatchTopic_CaseInsensitive(t *testing.T) {
	rules := DefaultTopicRules()
	if _, ok := MatchTopic(rules, "WHAT IS YOUR SALARY"); !ok {
		t.Error("uppercase query should still match")
	}
}
