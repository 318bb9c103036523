// Command analytics consumes the chat event stream from NATS and
// maintains a JSON rollup file of query volume and match quality,
// suitable for a static dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/FolioAI/folio-mvp/engine/chat"
	"github.com/FolioAI/folio-mvp/pkg/natsutil"
)

// Rollup is the aggregate written to disk. Counters only ever grow for
// the lifetime of the process; the file is overwritten atomically on
// each flush.
type Rollup struct {
	UpdatedAt    time.Time        `json:"updated_at"`
	Queries      int64            `json:"queries"`
	Responses    int64            `json:"responses"`
	Rejected     int64            `json:"rejected"`
	CacheHits    int64            `json:"cache_hits"`
	ByMatchType  map[string]int64 `json:"by_match_type"`
	AvgScore     float64          `json:"avg_score"`
	TopSkills    map[string]int64 `json:"top_skills"`
	scoreSum     float64
	scoredEvents int64
}

type collector struct {
	mu sync.Mutex
	r  Rollup
}

func newCollector() *collector {
	return &collector{r: Rollup{
		ByMatchType: make(map[string]int64),
		TopSkills:   make(map[string]int64),
	}}
}

func (c *collector) queryReceived(_ context.Context, _ chat.QueryReceivedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r.Queries++
}

func (c *collector) responseProduced(_ context.Context, ev chat.ResponseProducedEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r.Responses++
	if ev.Rejected != "" {
		c.r.Rejected++
		return
	}
	if ev.Cached {
		c.r.CacheHits++
	}
	c.r.ByMatchType[ev.MatchType]++
	c.r.scoreSum += float64(ev.MatchScore)
	c.r.scoredEvents++
	for _, name := range ev.Skills {
		c.r.TopSkills[name]++
	}
}

func (c *collector) flush(path string, logger *slog.Logger) {
	c.mu.Lock()
	c.r.UpdatedAt = time.Now().UTC()
	if c.r.scoredEvents > 0 {
		c.r.AvgScore = c.r.scoreSum / float64(c.r.scoredEvents)
	}
	data, err := json.MarshalIndent(c.r, "", "  ")
	c.mu.Unlock()
	if err != nil {
		logger.Error("marshal rollup", "err", err)
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Error("write rollup", "err", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		logger.Error("rename rollup", "err", err)
	}
}

func main() {
	natsURL := flag.String("nats", nats.DefaultURL, "NATS server URL")
	out := flag.String("out", "analytics.json", "rollup output file")
	interval := flag.Duration("interval", 30*time.Second, "flush interval")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*natsURL, *out, *interval, logger); err != nil {
		logger.Error("analytics exited with error", "err", err)
		os.Exit(1)
	}
}

func run(natsURL, out string, interval time.Duration, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(natsURL, nats.Name("folio-analytics"))
	if err != nil {
		return err
	}
	defer nc.Drain()

	c := newCollector()

	subQ, err := natsutil.Subscribe(nc, chat.SubjectQueryReceived, c.queryReceived)
	if err != nil {
		return err
	}
	defer subQ.Unsubscribe()

	subR, err := natsutil.Subscribe(nc, chat.SubjectResponseProduced, c.responseProduced)
	if err != nil {
		return err
	}
	defer subR.Unsubscribe()

	logger.Info("analytics collector started", "nats", natsURL, "out", out)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.flush(out, logger)
		case <-ctx.Done():
			c.flush(out, logger)
			logger.Info("analytics collector stopped")
			return nil
		}
	}
}
