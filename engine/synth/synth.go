package synth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/retrieval"
	"github.com/FolioAI/folio-mvp/pkg/llm"
	"github.com/FolioAI/folio-mvp/pkg/resilience"
)

// Status is the terminal state of a synthesis attempt:
// NotAttempted → QuotaDenied | InProgress → Success | Degraded.
// InProgress is never observable from outside.
type Status string

const (
	StatusNotAttempted Status = "not_attempted"
	StatusQuotaDenied  Status = "quota_denied"
	StatusSuccess      Status = "success"
	StatusDegraded     Status = "degraded"
)

// QuotaGate is the injected capability bounding generative calls.
type QuotaGate interface {
	TryConsume(cost int) (bool, resilience.QuotaStatus)
}

// Options configures the synthesizer.
type Options struct {
	Enabled bool
	// MaxCandidates is how many top-ranked entries feed the prompt.
	MaxCandidates int
	MaxTokens     int
	Temperature   float32
	// StreamTimeout bounds the whole generative call including stream
	// draining; a stalled stream degrades instead of holding resources.
	StreamTimeout time.Duration
	SentenceCap   int
	TruncateTo    int
	WordCeiling   int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Enabled:       true,
		MaxCandidates: 3,
		MaxTokens:     220,
		Temperature:   0.3,
		StreamTimeout: 45 * time.Second,
		SentenceCap:   3,
		TruncateTo:    2,
		WordCeiling:   80,
	}
}

// Result is the outcome of a synthesis attempt. Narrative is empty for
// every status except Success.
type Result struct {
	Status     Status
	Narrative  string
	Violations []Violation
}

// Synthesizer turns ranked candidates into a constrained first-person
// narrative. Generative failures never fail the request: the
// synthesizer degrades to an empty narrative and retrieval results
// stand on their own.
type Synthesizer struct {
	gen       llm.Generator
	quota     QuotaGate
	validator *Validator
	opts      Options
	logger    *slog.Logger
}

// New creates a Synthesizer. entities are the known employer/project
// names for closing-entity validation.
func New(gen llm.Generator, quota QuotaGate, entities []string, opts Options, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultOptions().MaxCandidates
	}
	if opts.SentenceCap <= 0 {
		opts.SentenceCap = DefaultOptions().SentenceCap
	}
	if opts.TruncateTo <= 0 {
		opts.TruncateTo = DefaultOptions().TruncateTo
	}
	if opts.StreamTimeout <= 0 {
		opts.StreamTimeout = DefaultOptions().StreamTimeout
	}
	return &Synthesizer{
		gen:       gen,
		quota:     quota,
		validator: &Validator{SentenceCap: opts.SentenceCap, WordCeiling: opts.WordCeiling, Entities: entities},
		opts:      opts,
		logger:    logger,
	}
}

// Synthesize runs the synthesis state machine for the query.
func (s *Synthesizer) Synthesize(ctx context.Context, qc *domain.QueryContext, cands []retrieval.Scored) Result {
	if !s.opts.Enabled || s.gen == nil || len(cands) == 0 {
		return Result{Status: StatusNotAttempted}
	}

	if s.quota != nil {
		ok, status := s.quota.TryConsume(1)
		if !ok {
			s.logger.Info("synth: quota denied",
				"request_id", qc.RequestID, "used", status.Used, "limit", status.Limit, "reset_at", status.ResetAt)
			return Result{Status: StatusQuotaDenied}
		}
	}

	if len(cands) > s.opts.MaxCandidates {
		cands = cands[:s.opts.MaxCandidates]
	}

	genCtx, cancel := context.WithTimeout(ctx, s.opts.StreamTimeout)
	defer cancel()

	raw, err := s.gen.Generate(genCtx, llm.Request{
		System:        systemPrompt,
		Prompt:        buildPrompt(qc.Sanitized, cands),
		MaxTokens:     s.opts.MaxTokens,
		Temperature:   s.opts.Temperature,
		StopSequences: []string{"\n\n"},
	})
	if err != nil {
		s.logger.Warn("synth: generation failed, degrading", "request_id", qc.RequestID, "err", err)
		return Result{Status: StatusDegraded}
	}

	text := Postprocess(raw, s.opts.TruncateTo)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("synth: empty output after post-processing, degrading", "request_id", qc.RequestID)
		return Result{Status: StatusDegraded}
	}

	violations := s.validator.Validate(text)
	if len(violations) > 0 {
		text, violations = s.validator.Correct(text, violations, s.opts.TruncateTo)
	}
	if len(violations) > 0 {
		// Style violations are recorded, the best-effort text still goes out.
		s.logger.Info("synth: style violations", "request_id", qc.RequestID, "count", len(violations))
	}

	return Result{Status: StatusSuccess, Narrative: text, Violations: violations}
}
