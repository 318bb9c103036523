// Package retrieval ties embedding, candidate lookup, scoring, and the
// seniority boost into the ranked top-K pipeline.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/rank"
	"github.com/FolioAI/folio-mvp/engine/semantic"
	"github.com/FolioAI/folio-mvp/pkg/fn"
)

// Embedder converts text to a fixed-length vector. Failure here is
// fatal to the request: there is no retrieval without an embedding,
// and substituting a zero vector is never acceptable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CandidateSource returns stored vectors for ranking. The Qdrant store
// returns an ANN-limited slice; the memory store returns the whole
// corpus. The ranking below is identical for both. The employer
// argument is a native narrowing hint; the orchestrator still filters
// by scope itself so the two code paths behave the same.
type CandidateSource interface {
	Candidates(ctx context.Context, vector []float32, limit int, employer string) ([]semantic.Candidate, error)
}

// RecordStore resolves candidate ids to their SkillRecords.
type RecordStore interface {
	GetByIDs(ctx context.Context, ids []string, employer string) (map[string]domain.SkillRecord, error)
}

// Scored wraps a record with its raw and boosted similarity and the
// originating vector id. Transient, per query.
type Scored struct {
	Record   domain.SkillRecord
	Raw      float64
	Boosted  float64
	VectorID string
}

// Outcome is the terminal state of a retrieval. Empty results are
// valid, expected states, never errors.
type Outcome int

const (
	// OutcomeMatched means at least one candidate survived.
	OutcomeMatched Outcome = iota
	// OutcomeNoMatch means nothing in the corpus cleared the
	// similarity floor.
	OutcomeNoMatch
	// OutcomeScopeFiltered means the corpus matched, but every match
	// was dropped by the employer/project scope.
	OutcomeScopeFiltered
)

// Result is the outcome of a retrieval run.
type Result struct {
	Candidates []Scored
	Outcome    Outcome
	Scope      string
}

// Options configures the orchestrator.
type Options struct {
	TopK int
	// ExtendedFactor widens the candidate fetch (TopK * factor) so
	// scope filtering and boost reordering have slack to work with.
	ExtendedFactor int
	// MinSimilarity is the boosted-similarity floor below which a
	// candidate does not count as a match.
	MinSimilarity float64
	Boost         rank.BoostTable
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:           5,
		ExtendedFactor: 4,
		MinSimilarity:  0.40,
		Boost:          rank.DefaultBoostTable(),
	}
}

// Orchestrator runs the retrieval pipeline.
type Orchestrator struct {
	embed   Embedder
	source  CandidateSource
	records RecordStore
	opts    Options
	logger  *slog.Logger
}

// New creates an Orchestrator.
func New(embed Embedder, source CandidateSource, records RecordStore, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if opts.ExtendedFactor <= 0 {
		opts.ExtendedFactor = DefaultOptions().ExtendedFactor
	}
	return &Orchestrator{embed: embed, source: source, records: records, opts: opts, logger: logger}
}

// Retrieve embeds the query, scores and boosts candidates, applies the
// scope filter, and returns the top K. The only error it returns is an
// embedding or store failure; per-candidate problems (dimension
// mismatch, missing record) are skipped and logged so one corrupt
// record never fails the other candidates.
func (o *Orchestrator) Retrieve(ctx context.Context, qc *domain.QueryContext, topK int) (*Result, error) {
	if topK <= 0 {
		topK = o.opts.TopK
	}

	vector, err := o.embed.Embed(ctx, qc.EmbedText)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	candidates, err := o.source.Candidates(ctx, vector, topK*o.opts.ExtendedFactor, "")
	if err != nil {
		return nil, fmt.Errorf("retrieval: fetch candidates: %w", err)
	}

	// Score everything with a comparable vector first; scope filtering
	// happens after, so "matched but out of scope" stays observable.
	type rawScore struct {
		id  string
		sim float64
	}
	var scores []rawScore
	for _, c := range candidates {
		sim, err := rank.Cosine(vector, c.Vector)
		if err != nil {
			o.logger.Warn("retrieval: skipping candidate",
				"vector_id", c.ID, "stored_dims", len(c.Vector), "query_dims", len(vector), "err", err)
			continue
		}
		scores = append(scores, rawScore{id: c.ID, sim: sim})
	}
	if len(scores) == 0 {
		return &Result{Outcome: OutcomeNoMatch, Scope: qc.Scope}, nil
	}

	ids := fn.Unique(fn.Map(scores, func(s rawScore) string { return s.id }))
	recs, err := o.records.GetByIDs(ctx, ids, "")
	if err != nil {
		return nil, fmt.Errorf("retrieval: fetch records: %w", err)
	}

	var scored []Scored
	for _, s := range scores {
		rec, ok := recs[s.id]
		if !ok {
			o.logger.Warn("retrieval: vector has no record, skipping", "vector_id", s.id)
			continue
		}
		boosted := o.opts.Boost.Boost(s.sim, rec.Years, rec.Level)
		scored = append(scored, Scored{Record: rec, Raw: s.sim, Boosted: boosted, VectorID: s.id})
	}

	matched := fn.Filter(scored, func(s Scored) bool { return s.Boosted >= o.opts.MinSimilarity })
	if len(matched) == 0 {
		return &Result{Outcome: OutcomeNoMatch, Scope: qc.Scope}, nil
	}

	inScope := matched
	if qc.Scope != "" {
		inScope = fn.Filter(matched, func(s Scored) bool { return s.Record.MatchesScope(qc.Scope) })
		if len(inScope) == 0 {
			return &Result{Outcome: OutcomeScopeFiltered, Scope: qc.Scope}, nil
		}
	}

	sort.SliceStable(inScope, func(i, j int) bool {
		if inScope[i].Boosted != inScope[j].Boosted {
			return inScope[i].Boosted > inScope[j].Boosted
		}
		if inScope[i].Raw != inScope[j].Raw {
			return inScope[i].Raw > inScope[j].Raw
		}
		return inScope[i].Record.Name < inScope[j].Record.Name
	})
	if len(inScope) > topK {
		inScope = inScope[:topK]
	}

	return &Result{Candidates: inScope, Outcome: OutcomeMatched, Scope: qc.Scope}, nil
}
