// Package resilience provides the quota gate and circuit breaker
// wrapped around the generative model provider.
package resilience

import (
	"sync"
	"time"
)

// QuotaStatus is a snapshot of the gate at decision time.
type QuotaStatus struct {
	Used    int
	Limit   int
	ResetAt time.Time
}

// Quota is a fixed-window counter that caps generative calls. It is an
// injected capability, not ambient state, so the engine stays testable
// with a fake. The mutex makes the local count exact; a distributed
// deployment may over/under count slightly, which the design accepts as
// long as the ceiling holds within a small slack.
type Quota struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	used        int
	windowStart time.Time
	now         func() time.Time // test hook
}

// NewQuota creates a gate allowing limit units per window. A limit of
// zero or less disables the gate (always allowed).
func NewQuota(limit int, window time.Duration) *Quota {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Quota{limit: limit, window: window, now: time.Now}
}

// TryConsume attempts to take cost units from the current window.
func (q *Quota) TryConsume(cost int) (bool, QuotaStatus) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if q.windowStart.IsZero() || now.Sub(q.windowStart) >= q.window {
		q.windowStart = now
		q.used = 0
	}
	status := QuotaStatus{Used: q.used, Limit: q.limit, ResetAt: q.windowStart.Add(q.window)}

	if q.limit <= 0 {
		return true, status
	}
	if q.used+cost > q.limit {
		return false, status
	}
	q.used += cost
	status.Used = q.used
	return true, status
}
