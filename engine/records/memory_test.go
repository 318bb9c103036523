package records

import (
	"context"
	"testing"

	"github.com/FolioAI/folio-mvp/engine/domain"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	m.Save(ctx, domain.SkillRecord{ID: "pg", Name: "PostgreSQL", Employer: "Acme", Years: 6})
	m.Save(ctx, domain.SkillRecord{ID: "go", Name: "Go", Project: "Folio", Years: 8})

	got, err := m.GetByIDs(ctx, []string{"pg", "go", "missing"}, "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2 (missing ids skipped)", len(got))
	}
	if got["pg"].Name != "PostgreSQL" {
		t.Errorf("record mangled: %+v", got["pg"])
	}
}

func TestMemoryStore_GetByIDsScoped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Save(ctx, domain.SkillRecord{ID: "pg", Name: "PostgreSQL", Employer: "Acme"})
	m.Save(ctx, domain.SkillRecord{ID: "go", Name: "Go", Employer: "Initech"})

	got, err := m.GetByIDs(ctx, []string{"pg", "go"}, "acme")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if _, ok := got["pg"]; !ok {
		t.Error("scoped lookup dropped the matching record")
	}
}

func TestMemoryStore_ListNames(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Save(ctx, domain.SkillRecord{ID: "1", Name: "Go"})
	m.Save(ctx, domain.SkillRecord{ID: "2", Name: "Docker"})

	names, err := m.ListNames(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "Docker" || names[1] != "Go" {
		t.Errorf("got %v, want sorted [Docker Go]", names)
	}
}

func TestMemoryStore_ListEmployers(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.Save(ctx, domain.SkillRecord{ID: "1", Name: "A", Employer: "Acme"})
	m.Save(ctx, domain.SkillRecord{ID: "2", Name: "B", Employer: "acme"})
	m.Save(ctx, domain.SkillRecord{ID: "3", Name: "C", Project: "Folio"})
	m.Save(ctx, domain.SkillRecord{ID: "4", Name: "D"})

	names, err := m.ListEmployers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("got %v, want two distinct names", names)
	}
}
