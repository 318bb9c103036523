package chat

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/FolioAI/folio-mvp/pkg/natsutil"
)

// NATS subjects for chat analytics.
const (
	SubjectQueryReceived    = "folio.chat.query.received"
	SubjectResponseProduced = "folio.chat.response.produced"
)

// QueryReceivedEvent records that a query entered the pipeline, before
// any retrieval work.
type QueryReceivedEvent struct {
	RequestID string    `json:"request_id"`
	SessionID string    `json:"session_id,omitempty"`
	Query     string    `json:"query"`
	At        time.Time `json:"at"`
}

// ResponseProducedEvent records the outcome of a completed query,
// including match quality for offline analysis of what visitors ask
// about and how well the corpus covers it.
type ResponseProducedEvent struct {
	RequestID  string    `json:"request_id"`
	SessionID  string    `json:"session_id,omitempty"`
	MatchType  string    `json:"match_type"`
	MatchScore int       `json:"match_score"`
	Reasoning  string    `json:"reasoning"`
	Skills     []string  `json:"skills,omitempty"`
	SkillCount int       `json:"skill_count"`
	Cached     bool      `json:"cached"`
	Rejected   string    `json:"rejected,omitempty"`
	At         time.Time `json:"at"`
}

// Sink receives analytics events. Implementations must not block the
// request path; the service publishes asynchronously and ignores
// failures.
type Sink interface {
	QueryReceived(ctx context.Context, ev QueryReceivedEvent) error
	ResponseProduced(ctx context.Context, ev ResponseProducedEvent) error
}

// NATSSink publishes events to NATS subjects.
type NATSSink struct {
	nc *nats.Conn
}

// NewNATSSink wraps an established NATS connection.
func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc}
}

func (s *NATSSink) QueryReceived(ctx context.Context, ev QueryReceivedEvent) error {
	return natsutil.Publish(ctx, s.nc, SubjectQueryReceived, ev)
}

func (s *NATSSink) ResponseProduced(ctx context.Context, ev ResponseProducedEvent) error {
	return natsutil.Publish(ctx, s.nc, SubjectResponseProduced, ev)
}

// publishAsync fires an event off the request path. Publish failures
// are logged and swallowed; analytics never affects a response.
func (s *Service) publishAsync(fn func(context.Context) error) {
	if s.sink == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("event publish panicked", "error", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("event publish failed", "error", err)
		}
	}()
}

var _ Sink = (*NATSSink)(nil)
