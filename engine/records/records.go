// Package records is the metadata side of the corpus: the SkillRecord
// store. Vectors live in engine/semantic; this package serves the
// structured fields retrieval and synthesis need, keyed by the vector
// back-references. Read-only at query time; cmd/ingest writes it.
package records

import (
	"context"
	"fmt"

	"github.com/FolioAI/folio-mvp/engine/domain"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Store provides SkillRecord persistence on Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
}

// New creates a Store on an existing driver.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// Save creates or updates a skill node.
func (s *Store) Save(ctx context.Context, rec domain.SkillRecord) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MERGE (n:Skill {id: $id}) SET n += $props`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"id":    rec.ID,
		"props": recordToMap(rec),
	})
	if err != nil {
		return fmt.Errorf("records: save %s: %w", rec.ID, err)
	}
	return nil
}

// GetByIDs fetches records by id. A non-empty employer restricts the
// result to that employer/project association. Missing ids are simply
// absent from the returned map.
func (s *Store) GetByIDs(ctx context.Context, ids []string, employer string) (map[string]domain.SkillRecord, error) {
	if len(ids) == 0 {
		return map[string]domain.SkillRecord{}, nil
	}
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (n:Skill) WHERE n.id IN $ids RETURN n`
	params := map[string]any{"ids": ids}
	if employer != "" {
		cypher = `MATCH (n:Skill) WHERE n.id IN $ids
		          AND (toLower(n.employer) = toLower($employer) OR toLower(n.project) = toLower($employer))
		          RETURN n`
		params["employer"] = employer
	}

	result, err := sess.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("records: get by ids: %w", err)
	}

	out := make(map[string]domain.SkillRecord, len(ids))
	for result.Next(ctx) {
		rec, err := recordFromNeo4j(result.Record())
		if err != nil {
			continue
		}
		out[rec.ID] = rec
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("records: get by ids: %w", err)
	}
	return out, nil
}

// ListNames returns every skill name in the corpus, sorted by name.
func (s *Store) ListNames(ctx context.Context) ([]string, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (n:Skill) RETURN n.name AS name ORDER BY name`, nil)
	if err != nil {
		return nil, fmt.Errorf("records: list names: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("name"); ok {
			if name, ok := v.(string); ok && name != "" {
				names = append(names, name)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("records: list names: %w", err)
	}
	return names, nil
}

// ListEmployers returns the distinct employer and project names in the
// corpus. Feeds the scope detector at startup.
func (s *Store) ListEmployers(ctx context.Context) ([]string, error) {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (n:Skill)
	           UNWIND [n.employer, n.project] AS name
	           WITH name WHERE name IS NOT NULL AND name <> ''
	           RETURN DISTINCT name`
	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("records: list employers: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("name"); ok {
			if name, ok := v.(string); ok {
				names = append(names, name)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("records: list employers: %w", err)
	}
	return names, nil
}

func recordToMap(r domain.SkillRecord) map[string]any {
	return map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"summary":     r.Summary,
		"years":       int64(r.Years),
		"proficiency": r.Proficiency,
		"level":       r.Level.String(),
		"category":    r.Category,
		"recency":     r.Recency,
		"employer":    r.Employer,
		"action":      r.Action,
		"effect":      r.Effect,
		"outcome":     r.Outcome,
		"project":     r.Project,
	}
}

func recordFromNeo4j(rec *neo4j.Record) (domain.SkillRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return domain.SkillRecord{}, err
	}
	props := node.Props
	out := domain.SkillRecord{
		ID:          strProp(props, "id"),
		Name:        strProp(props, "name"),
		Summary:     strProp(props, "summary"),
		Proficiency: floatProp(props, "proficiency"),
		LevelLabel:  strProp(props, "level"),
		Category:    strProp(props, "category"),
		Recency:     strProp(props, "recency"),
		Employer:    strProp(props, "employer"),
		Action:      strProp(props, "action"),
		Effect:      strProp(props, "effect"),
		Outcome:     strProp(props, "outcome"),
		Project:     strProp(props, "project"),
	}
	out.Level = domain.ParseLevel(out.LevelLabel)
	if v, ok := props["years"]; ok {
		if y, ok := v.(int64); ok {
			out.Years = int(y)
		}
	}
	return out, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func floatProp(props map[string]any, key string) float64 {
	if v, ok := props[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}
