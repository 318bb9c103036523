// Package chat composes preprocessing, retrieval, synthesis, caching,
// and analytics into the single question-answering entry point the API
// serves.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/rank"
	"github.com/FolioAI/folio-mvp/engine/retrieval"
	"github.com/FolioAI/folio-mvp/engine/synth"
	"github.com/FolioAI/folio-mvp/pkg/cache"
)

// Retriever finds and ranks corpus entries for a preprocessed query.
type Retriever interface {
	Retrieve(ctx context.Context, qc *domain.QueryContext, topK int) (*retrieval.Result, error)
}

// Narrator produces the constrained first-person narrative.
type Narrator interface {
	Synthesize(ctx context.Context, qc *domain.QueryContext, cands []retrieval.Scored) synth.Result
}

// SkillRef is one matched entry as exposed to the client.
type SkillRef struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Response is the full answer payload for one query.
type Response struct {
	RequestID   string            `json:"request_id"`
	Message     string            `json:"message"`
	Narrative   string            `json:"narrative,omitempty"`
	Rejection   *domain.Rejection `json:"rejection,omitempty"`
	MatchType   string            `json:"match_type"`
	MatchScore  int               `json:"match_score"`
	Skills      []SkillRef        `json:"skills,omitempty"`
	SynthStatus string            `json:"synth_status"`
	Cached      bool              `json:"cached"`
}

// Substitute messages for the empty and refused outcomes.
const (
	msgNoMatch = "I haven't worked with that, so I can't speak to it from experience. Feel free to ask about something else on my CV."
	msgQuota   = "I've hit my answer limit for now. The matched entries below still stand; please try again in a little while."
)

func msgScopeFiltered(scope string) string {
	return fmt.Sprintf("I have related experience, but not at %s. Ask me about it without the %s restriction and I'll tell you more.", scope, scope)
}

// Options configures the chat service.
type Options struct {
	// TopK is how many entries a response carries.
	TopK int
	// Endpoint namespaces cache keys so different routes sharing one
	// cache never collide.
	Endpoint string
}

// DefaultServiceOptions returns the production defaults.
func DefaultServiceOptions() Options {
	return Options{TopK: 5, Endpoint: "/api/chat"}
}

// Service answers visitor questions about the CV corpus.
type Service struct {
	pre      *domain.Preprocessor
	ret      Retriever
	narrator Narrator
	cache    *cache.TTL[*Response]
	sink     Sink
	logger   *slog.Logger
	opts     Options
}

// NewService wires the pipeline. cache and sink may be nil; both
// degrade to no-ops.
func NewService(pre *domain.Preprocessor, ret Retriever, narrator Narrator, c *cache.TTL[*Response], sink Sink, opts Options, logger *slog.Logger) *Service {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "/api/chat"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pre:      pre,
		ret:      ret,
		narrator: narrator,
		cache:    c,
		sink:     sink,
		logger:   logger,
		opts:     opts,
	}
}

// Answer runs the full pipeline for one query. A non-nil error means
// infrastructure failure (embedding or stores); every domain outcome,
// including rejections and empty matches, comes back as a Response.
func (s *Service) Answer(ctx context.Context, query, sessionID string) (*Response, error) {
	qc, rej := s.pre.Process(query, sessionID)
	if rej != nil {
		resp := &Response{
			RequestID:   uuid.NewString(),
			Message:     rej.Message,
			Rejection:   rej,
			MatchType:   string(rank.MatchNone),
			SynthStatus: string(synth.StatusNotAttempted),
		}
		s.publishAsync(func(ctx context.Context) error {
			return s.sink.ResponseProduced(ctx, ResponseProducedEvent{
				RequestID: resp.RequestID,
				SessionID: sessionID,
				MatchType: resp.MatchType,
				Reasoning: "rejected before retrieval",
				Rejected:  string(rej.Kind),
				At:        time.Now().UTC(),
			})
		})
		return resp, nil
	}

	s.publishAsync(func(ctx context.Context) error {
		return s.sink.QueryReceived(ctx, QueryReceivedEvent{
			RequestID: qc.RequestID,
			SessionID: sessionID,
			Query:     qc.Sanitized,
			At:        time.Now().UTC(),
		})
	})

	// Cache lookup happens before any embedding work; a hit skips the
	// model entirely.
	key := cache.Key(s.opts.Endpoint, domain.NormalizeQuery(qc.Sanitized))
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			cp := *hit
			cp.RequestID = qc.RequestID
			cp.Cached = true
			s.emitProduced(&cp, sessionID, "served from cache")
			return &cp, nil
		}
	}

	res, err := s.ret.Retrieve(ctx, qc, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	resp := s.shape(ctx, qc, res)

	// Transient outcomes (quota refusals, degraded generations) stay
	// out of the cache so they resolve on the next attempt.
	if s.cache != nil && cacheable(resp) {
		s.cache.Set(key, resp)
	}

	s.emitProduced(resp, sessionID, reasoning(res))
	return resp, nil
}

// shape turns a retrieval result into the client-facing response,
// running synthesis when there is anything to narrate.
func (s *Service) shape(ctx context.Context, qc *domain.QueryContext, res *retrieval.Result) *Response {
	resp := &Response{
		RequestID:   qc.RequestID,
		MatchType:   string(rank.MatchNone),
		SynthStatus: string(synth.StatusNotAttempted),
	}

	switch res.Outcome {
	case retrieval.OutcomeNoMatch:
		resp.Message = msgNoMatch
		return resp
	case retrieval.OutcomeScopeFiltered:
		resp.Message = msgScopeFiltered(res.Scope)
		return resp
	}

	if len(res.Candidates) == 0 {
		resp.Message = msgNoMatch
		return resp
	}

	top := res.Candidates[0]
	resp.MatchType = string(rank.Classify(top.Boosted))
	resp.MatchScore = rank.Score100(top.Boosted)
	for _, c := range res.Candidates {
		resp.Skills = append(resp.Skills, SkillRef{
			Name:  c.Record.Name,
			Score: rank.Score100(c.Boosted),
		})
	}

	sr := s.narrator.Synthesize(ctx, qc, res.Candidates)
	resp.SynthStatus = string(sr.Status)
	switch sr.Status {
	case synth.StatusSuccess:
		resp.Narrative = sr.Narrative
		resp.Message = sr.Narrative
	case synth.StatusQuotaDenied:
		resp.Message = msgQuota
	default:
		// Degraded or not attempted: the ranked entries are the answer.
		resp.Message = fallbackMessage(res.Candidates)
	}
	return resp
}

// fallbackMessage lists the matched entries when no narrative is
// available.
func fallbackMessage(cands []retrieval.Scored) string {
	names := make([]string, 0, len(cands))
	for _, c := range cands {
		names = append(names, c.Record.Name)
	}
	switch len(names) {
	case 0:
		return msgNoMatch
	case 1:
		return fmt.Sprintf("Yes, I have experience with %s.", names[0])
	default:
		last := names[len(names)-1]
		rest := strings.Join(names[:len(names)-1], ", ")
		return fmt.Sprintf("Yes, my relevant experience covers %s and %s.", rest, last)
	}
}

// cacheable reports whether a response is stable enough to store.
func cacheable(r *Response) bool {
	if r.Rejection != nil {
		return false
	}
	switch r.SynthStatus {
	case string(synth.StatusQuotaDenied), string(synth.StatusDegraded):
		return false
	}
	return true
}

// reasoning summarizes the retrieval outcome for analytics.
func reasoning(res *retrieval.Result) string {
	switch res.Outcome {
	case retrieval.OutcomeNoMatch:
		return "no candidate cleared the similarity floor"
	case retrieval.OutcomeScopeFiltered:
		return fmt.Sprintf("matches found but none within scope %q", res.Scope)
	}
	if len(res.Candidates) == 0 {
		return "no candidates returned"
	}
	top := res.Candidates[0]
	return fmt.Sprintf("top candidate %q scored %.3f (raw %.3f) among %d results",
		top.Record.Name, top.Boosted, top.Raw, len(res.Candidates))
}

func (s *Service) emitProduced(resp *Response, sessionID, why string) {
	skills := make([]string, 0, len(resp.Skills))
	for _, sk := range resp.Skills {
		skills = append(skills, sk.Name)
	}
	rejected := ""
	if resp.Rejection != nil {
		rejected = string(resp.Rejection.Kind)
	}
	s.publishAsync(func(ctx context.Context) error {
		return s.sink.ResponseProduced(ctx, ResponseProducedEvent{
			RequestID:  resp.RequestID,
			SessionID:  sessionID,
			MatchType:  resp.MatchType,
			MatchScore: resp.MatchScore,
			Reasoning:  why,
			Skills:     skills,
			SkillCount: len(skills),
			Cached:     resp.Cached,
			Rejected:   rejected,
			At:         time.Now().UTC(),
		})
	})
}
