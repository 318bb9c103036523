package records

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/FolioAI/folio-mvp/engine/domain"
)

// MemoryStore is the in-memory SkillRecord store used by tests and by
// single-binary deployments alongside semantic.MemoryStore.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]domain.SkillRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]domain.SkillRecord)}
}

// Save stores or replaces a record.
func (m *MemoryStore) Save(_ context.Context, rec domain.SkillRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[rec.ID] = rec
	return nil
}

// GetByIDs mirrors Store.GetByIDs semantics.
func (m *MemoryStore) GetByIDs(_ context.Context, ids []string, employer string) (map[string]domain.SkillRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]domain.SkillRecord, len(ids))
	for _, id := range ids {
		rec, ok := m.byID[id]
		if !ok {
			continue
		}
		if employer != "" && !rec.MatchesScope(employer) {
			continue
		}
		out[id] = rec
	}
	return out, nil
}

// ListNames returns every skill name, sorted.
func (m *MemoryStore) ListNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.byID))
	for _, rec := range m.byID {
		if rec.Name != "" {
			names = append(names, rec.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListEmployers returns the distinct employer and project names.
func (m *MemoryStore) ListEmployers(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]struct{})
	var names []string
	for _, rec := range m.byID {
		for _, n := range []string{rec.Employer, rec.Project} {
			if n == "" {
				continue
			}
			key := strings.ToLower(n)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, n)
		}
	}
	return names, nil
}
