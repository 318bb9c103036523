package semantic

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a brute-force in-memory vector store. The corpus is
// tens to low hundreds of records, so an exhaustive scan is fine; this
// backs tests and single-binary deployments that skip Qdrant.
type MemoryStore struct {
	mu      sync.RWMutex
	records []VectorRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Upsert replaces records with matching IDs and appends the rest.
func (m *MemoryStore) Upsert(_ context.Context, records []VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		replaced := false
		for i := range m.records {
			if m.records[i].ID == r.ID {
				m.records[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			m.records = append(m.records, r)
		}
	}
	return nil
}

// Candidates returns every stored vector (an exhaustive scan); the
// query vector and limit are ignored because ranking happens in the
// orchestrator. A non-empty employer narrows on the payload.
func (m *MemoryStore) Candidates(_ context.Context, _ []float32, _ int, employer string) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Candidate, 0, len(m.records))
	for _, r := range m.records {
		payload := make(map[string]string, len(r.Payload))
		for k, v := range r.Payload {
			if s, ok := v.(string); ok {
				payload[k] = s
			}
		}
		if employer != "" && !strings.EqualFold(payload["employer"], employer) {
			continue
		}
		out = append(out, Candidate{ID: r.ID, Vector: r.Embedding, Payload: payload})
	}
	return out, nil
}

// Len reports the number of stored vectors.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
