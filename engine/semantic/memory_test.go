package semantic

import (
	"context"
	"testing"
)

func TestMemoryStore_UpsertAndScan(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	err := m.Upsert(ctx, []VectorRecord{
		{ID: "a", Embedding: []float32{1, 0}, Payload: map[string]any{"name": "Go", "employer": "Acme"}},
		{ID: "b", Embedding: []float32{0, 1}, Payload: map[string]any{"name": "Rust", "employer": "Initech"}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}

	// Scan ignores the query vector and limit; everything comes back.
	cands, err := m.Candidates(ctx, nil, 1, "")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 2 {
		t.Errorf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Payload["name"] != "Go" {
		t.Errorf("payload lost: %+v", cands[0].Payload)
	}
}

func TestMemoryStore_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Upsert(ctx, []VectorRecord{{ID: "a", Embedding: []float32{1}}})
	m.Upsert(ctx, []VectorRecord{{ID: "a", Embedding: []float32{2}}})
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
	cands, _ := m.Candidates(ctx, nil, 0, "")
	if cands[0].Vector[0] != 2 {
		t.Errorf("replacement did not stick: %v", cands[0].Vector)
	}
}

func TestMemoryStore_EmployerFilter(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Upsert(ctx, []VectorRecord{
		{ID: "a", Embedding: []float32{1}, Payload: map[string]any{"employer": "Acme"}},
		{ID: "b", Embedding: []float32{1}, Payload: map[string]any{"employer": "Initech"}},
	})

	cands, err := m.Candidates(ctx, nil, 0, "acme")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "a" {
		t.Errorf("case-insensitive employer filter failed: %+v", cands)
	}
}
