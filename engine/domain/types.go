// Package domain defines the core record and query types for the Folio
// engine and acts as the validation gate at pipeline entry points.
package domain

import "strings"

// Level is the ordered proficiency level attached to a skill.
type Level int

const (
	LevelUnknown Level = iota
	LevelIntermediate
	LevelAdvanced
	LevelExpert
)

func (l Level) String() string {
	switch l {
	case LevelIntermediate:
		return "Intermediate"
	case LevelAdvanced:
		return "Advanced"
	case LevelExpert:
		return "Expert"
	default:
		return "Unknown"
	}
}

// ParseLevel maps a stored level label to a Level. Unrecognised labels
// come back as LevelUnknown rather than an error; a record with a bad
// label still ranks, it just never receives a seniority boost.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return LevelIntermediate
	case "advanced":
		return LevelAdvanced
	case "expert":
		return LevelExpert
	default:
		return LevelUnknown
	}
}

// SkillRecord is one unit of retrievable knowledge about the candidate.
// Name and Years are always present; the outcome-narrative fields
// (Action, Effect, Outcome, Project) may be absent, in which case the
// synthesizer falls back to Summary and must not invent data.
type SkillRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Summary     string  `json:"summary"`
	Years       int     `json:"years"`
	Proficiency float64 `json:"proficiency"`
	Level       Level   `json:"-"`
	LevelLabel  string  `json:"level"`
	Category    string  `json:"category"`
	Recency     string  `json:"recency,omitempty"`
	Employer    string  `json:"employer,omitempty"`

	// Outcome narrative: what was done, its technical effect, and the
	// business outcome, so the synthesizer never free-associates from
	// a vague summary.
	Action  string `json:"action,omitempty"`
	Effect  string `json:"effect,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Project string `json:"project,omitempty"`
}

// HasNarrative reports whether the structured outcome fields are usable.
func (r SkillRecord) HasNarrative() bool {
	return r.Action != "" || r.Outcome != ""
}

// ClosingEntity returns the employer or project name an answer about
// this skill should close with.
func (r SkillRecord) ClosingEntity() string {
	if r.Employer != "" {
		return r.Employer
	}
	return r.Project
}

// MatchesScope reports whether this record is associated with the given
// employer/project scope.
func (r SkillRecord) MatchesScope(scope string) bool {
	if scope == "" {
		return true
	}
	return strings.EqualFold(r.Employer, scope) || strings.EqualFold(r.Project, scope)
}

// QueryContext threads per-request state from preprocessing through
// retrieval, synthesis, and the audit events.
type QueryContext struct {
	RequestID string
	SessionID string
	Raw       string
	Sanitized string
	// EmbedText is the text actually embedded: the sanitized query with
	// any employer/project mention stripped, so the embedding reflects
	// the skill rather than the employer name.
	EmbedText string
	// Scope is the detected employer/project restriction, empty if none.
	Scope string
}

// RejectKind discriminates the rejection outcomes the boundary exposes.
type RejectKind string

const (
	RejectInvalid    RejectKind = "invalid_input"
	RejectProhibited RejectKind = "prohibited_topic"
	RejectTimeGated  RejectKind = "time_gated"
	RejectQuota      RejectKind = "quota_exceeded"
)

// Rejection is a structured, user-renderable refusal. Prohibited-topic
// and quota rejections are expected states, not failures, and must be
// rendered as normal responses by the caller.
type Rejection struct {
	Kind       RejectKind `json:"kind"`
	Category   string     `json:"category,omitempty"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
}
