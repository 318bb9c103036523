package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Preprocessor runs the fixed validation chain over incoming queries:
// sanitize, prohibited-topic filter, temporal gate, scope detection.
// The order is deterministic; earlier checks win when several apply.
type Preprocessor struct {
	topics []TopicRule
	gate   *AccessGate
	scope  *ScopeDetector
}

// NewPreprocessor assembles a preprocessor. Nil gate disables the
// temporal check; nil detector disables scope narrowing.
func NewPreprocessor(topics []TopicRule, gate *AccessGate, scope *ScopeDetector) *Preprocessor {
	if topics == nil {
		topics = DefaultTopicRules()
	}
	return &Preprocessor{topics: topics, gate: gate, scope: scope}
}

// Process validates the raw query and builds a QueryContext ready for
// retrieval, or an early structured rejection. The returned context is
// non-nil exactly when the rejection is nil.
func (p *Preprocessor) Process(raw, sessionID string) (*QueryContext, *Rejection) {
	sanitized, err := Sanitize(raw)
	if err != nil {
		msg := "Please enter a question."
		if errors.Is(err, ErrQueryTooLong) {
			msg = "That question is too long; please keep it under 500 characters."
		} else if errors.Is(err, ErrQueryTooShort) {
			msg = "That question is too short to search on."
		}
		return nil, &Rejection{Kind: RejectInvalid, Message: msg}
	}

	if rule, ok := MatchTopic(p.topics, sanitized); ok {
		return nil, &Rejection{
			Kind:       RejectProhibited,
			Category:   rule.Category,
			Message:    rule.Message,
			Suggestion: rule.Suggestion,
		}
	}

	if rej := p.gate.Check(raw); rej != nil {
		return nil, rej
	}

	scope, embedText := p.scope.Detect(sanitized)
	return &QueryContext{
		RequestID: uuid.NewString(),
		SessionID: sessionID,
		Raw:       raw,
		Sanitized: sanitized,
		EmbedText: embedText,
		Scope:     scope,
	}, nil
}
