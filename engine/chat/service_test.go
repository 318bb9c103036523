package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/FolioAI/folio-mvp/engine/records"
	"github.com/FolioAI/folio-mvp/engine/retrieval"
	"github.com/FolioAI/folio-mvp/engine/semantic"
	"github.com/FolioAI/folio-mvp/engine/synth"
	"github.com/FolioAI/folio-mvp/pkg/cache"
)

// countingEmbedder returns canned vectors per keyword so the memory
// store ranks deterministically without a model.
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	// Crude keyword embedding: [databases, languages, infra]. No
	// keyword means a zero vector, which scores 0 against everything.
	v := []float32{0, 0, 0}
	for _, kw := range []struct {
		word string
		dim  int
	}{
		{"database", 0}, {"postgres", 0}, {"sql", 0},
		{"language", 1}, {"go", 1},
		{"kubernetes", 2}, {"infra", 2},
	} {
		if containsFold(text, kw.word) {
			v[kw.dim] = 1
		}
	}
	return v, nil
}

func (e *countingEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func containsFold(haystack, needle string) bool {
	h := []rune(haystack)
	n := []rune(needle)
	for i := 0; i+len(n) <= len(h); i++ {
		ok := true
		for j := range n {
			a, b := h[i+j], n[j]
			if a >= 'A' && a <= 'Z' {
				a += 32
			}
			if b >= 'A' && b <= 'Z' {
				b += 32
			}
			if a != b {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding model down")
}

type recordingSink struct {
	mu       sync.Mutex
	queries  []QueryReceivedEvent
	produced []ResponseProducedEvent
}

func (s *recordingSink) QueryReceived(_ context.Context, ev QueryReceivedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, ev)
	return nil
}

func (s *recordingSink) ResponseProduced(_ context.Context, ev ResponseProducedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.produced = append(s.produced, ev)
	return nil
}

func (s *recordingSink) producedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.produced)
}

func (s *recordingSink) lastProduced() (ResponseProducedEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.produced) == 0 {
		return ResponseProducedEvent{}, false
	}
	return s.produced[len(s.produced)-1], true
}

// fixture builds a full in-memory pipeline over a small CV corpus.
type fixture struct {
	svc      *Service
	embedder *countingEmbedder
	sink     *recordingSink
	cache    *cache.TTL[*Response]
}

func newFixture(t *testing.T, synthEnabled bool) *fixture {
	t.Helper()
	ctx := context.Background()

	recs := records.NewMemoryStore()
	vecs := semantic.NewMemoryStore()

	corpus := []struct {
		rec domain.SkillRecord
		vec []float32
	}{
		{domain.SkillRecord{ID: "pg", Name: "PostgreSQL", Years: 6, Level: domain.LevelExpert, Employer: "Acme Corp", Summary: "primary OLTP store"}, []float32{1, 0.1, 0.1}},
		{domain.SkillRecord{ID: "go", Name: "Go", Years: 8, Level: domain.LevelExpert, Employer: "Acme Corp", Summary: "backend services"}, []float32{0.1, 1, 0.1}},
		{domain.SkillRecord{ID: "k8s", Name: "Kubernetes", Years: 5, Level: domain.LevelAdvanced, Project: "Folio", Summary: "deployment platform"}, []float32{0.1, 0.1, 1}},
	}
	for _, c := range corpus {
		if err := recs.Save(ctx, c.rec); err != nil {
			t.Fatal(err)
		}
		err := vecs.Upsert(ctx, []semantic.VectorRecord{{
			ID: c.rec.ID, Embedding: c.vec,
			Payload: map[string]any{"name": c.rec.Name, "employer": c.rec.Employer},
		}})
		if err != nil {
			t.Fatal(err)
		}
	}

	embedder := &countingEmbedder{}
	orch := retrieval.New(embedder, vecs, recs, retrieval.DefaultOptions(), nil)

	synthOpts := synth.DefaultOptions()
	synthOpts.Enabled = synthEnabled
	narrator := synth.New(nil, nil, nil, synthOpts, nil)

	names, _ := recs.ListEmployers(ctx)
	pre := domain.NewPreprocessor(nil, nil, domain.NewScopeDetector(names))

	sink := &recordingSink{}
	respCache := cache.NewTTL[*Response](32, time.Minute)
	svc := NewService(pre, orch, narrator, respCache, sink, DefaultServiceOptions(), nil)

	return &fixture{svc: svc, embedder: embedder, sink: sink, cache: respCache}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAnswer_DatabaseQuestionFindsPostgres(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Answer(context.Background(), "What databases has the candidate used?", "sess-1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Rejection != nil {
		t.Fatalf("unexpected rejection: %+v", resp.Rejection)
	}
	if len(resp.Skills) == 0 {
		t.Fatal("expected matched skills")
	}
	if resp.Skills[0].Name != "PostgreSQL" {
		t.Errorf("top skill = %s, want PostgreSQL", resp.Skills[0].Name)
	}
	if resp.MatchType != "full" && resp.MatchType != "partial" {
		t.Errorf("match type = %s", resp.MatchType)
	}
	if resp.MatchScore <= 0 || resp.MatchScore > 100 {
		t.Errorf("match score = %d out of range", resp.MatchScore)
	}
	if resp.Message == "" {
		t.Error("response must carry a message even without synthesis")
	}
}

func TestAnswer_CacheIdempotence(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.Answer(ctx, "What databases has the candidate used?", "sess-1")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if first.Cached {
		t.Error("first answer must not be cached")
	}
	embeds := f.embedder.Calls()

	// Same query, different session and punctuation: cache hit, no new
	// embedding call.
	second, err := f.svc.Answer(ctx, "what databases has the candidate  used", "sess-2")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !second.Cached {
		t.Error("second answer should come from cache")
	}
	if f.embedder.Calls() != embeds {
		t.Errorf("cache hit ran the embedder: %d -> %d calls", embeds, f.embedder.Calls())
	}
	if second.Skills[0].Name != first.Skills[0].Name {
		t.Error("cached answer diverged")
	}
	if second.RequestID == first.RequestID {
		t.Error("cached answer should carry the new request id")
	}
}

func TestAnswer_RejectionNotCached(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	resp, err := f.svc.Answer(ctx, "what is your salary", "")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.Rejection == nil || resp.Rejection.Kind != domain.RejectProhibited {
		t.Fatalf("expected prohibited rejection, got %+v", resp.Rejection)
	}
	if resp.Message == "" {
		t.Error("rejection must carry a renderable message")
	}
	if f.cache.Len() != 0 {
		t.Error("rejections must not be cached")
	}
}

func TestAnswer_NoMatch(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Answer(context.Background(), "tell me about underwater basket weaving", "")
	if err != nil {
		t.Fatalf("no-match is a valid outcome, not an error: %v", err)
	}
	if resp.Rejection != nil {
		t.Fatalf("unexpected rejection: %+v", resp.Rejection)
	}
	if len(resp.Skills) != 0 {
		t.Errorf("no-match should carry no skills: %+v", resp.Skills)
	}
	if resp.MatchType != "none" {
		t.Errorf("match type = %s, want none", resp.MatchType)
	}
	if resp.Message == "" {
		t.Error("no-match needs a substitute message")
	}
}

func TestAnswer_ScopeFilteredNamesTheScope(t *testing.T) {
	f := newFixture(t, false)

	// Kubernetes lives under the Folio project, not Acme Corp.
	resp, err := f.svc.Answer(context.Background(), "did he use kubernetes at Acme Corp?", "")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(resp.Skills) != 0 {
		t.Fatalf("expected scope-filtered empty result, got %+v", resp.Skills)
	}
	if !containsFold(resp.Message, "Acme Corp") {
		t.Errorf("scope-filtered message should name the scope: %q", resp.Message)
	}
}

func TestAnswer_EmbedFailureIsError(t *testing.T) {
	f := newFixture(t, false)
	orch := retrieval.New(failingEmbedder{}, semantic.NewMemoryStore(), records.NewMemoryStore(), retrieval.DefaultOptions(), nil)
	svc := NewService(domain.NewPreprocessor(nil, nil, nil), orch, f.svc.narrator, nil, nil, DefaultServiceOptions(), nil)

	_, err := svc.Answer(context.Background(), "what databases has the candidate used?", "")
	if err == nil {
		t.Fatal("embedding failure must surface as an error")
	}
}

func TestAnswer_EmitsAnalyticsEvents(t *testing.T) {
	f := newFixture(t, false)

	resp, err := f.svc.Answer(context.Background(), "What databases has the candidate used?", "sess-9")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}

	waitFor(t, func() bool { return f.sink.producedCount() >= 1 })

	ev, ok := f.sink.lastProduced()
	if !ok {
		t.Fatal("no produced event")
	}
	if ev.RequestID != resp.RequestID {
		t.Errorf("event request id %q != response %q", ev.RequestID, resp.RequestID)
	}
	if ev.MatchType != resp.MatchType {
		t.Errorf("event match type %q != response %q", ev.MatchType, resp.MatchType)
	}
	if ev.MatchScore != resp.MatchScore {
		t.Errorf("event score %d != response %d", ev.MatchScore, resp.MatchScore)
	}
	if ev.SkillCount != len(resp.Skills) {
		t.Errorf("event skill count %d != %d", ev.SkillCount, len(resp.Skills))
	}
	if ev.Reasoning == "" {
		t.Error("event should carry reasoning")
	}
}

func TestAnswer_RejectionEmitsEvent(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Answer(context.Background(), "what is your salary", "")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	waitFor(t, func() bool { return f.sink.producedCount() >= 1 })
	ev, _ := f.sink.lastProduced()
	if ev.Rejected != string(domain.RejectProhibited) {
		t.Errorf("event rejected = %q", ev.Rejected)
	}
}

func TestAnswer_SinkFailureDoesNotAffectResponse(t *testing.T) {
	f := newFixture(t, false)
	svc := NewService(
		domain.NewPreprocessor(nil, nil, nil),
		f.svc.ret, f.svc.narrator, nil,
		failingSink{}, DefaultServiceOptions(), nil,
	)
	resp, err := svc.Answer(context.Background(), "What databases has the candidate used?", "")
	if err != nil {
		t.Fatalf("sink failure leaked into the response: %v", err)
	}
	if resp == nil || len(resp.Skills) == 0 {
		t.Error("response should be intact despite sink failure")
	}
}

type failingSink struct{}

func (failingSink) QueryReceived(context.Context, QueryReceivedEvent) error {
	return errors.New("nats down")
}

func (failingSink) ResponseProduced(context.Context, ResponseProducedEvent) error {
	return errors.New("nats down")
}
