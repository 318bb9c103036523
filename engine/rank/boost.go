package rank

import "github.com/FolioAI/folio-mvp/engine/domain"

// BoostRule raises similarity for records with strong seniority
// signals. Rules are evaluated in order; the first match applies.
type BoostRule struct {
	MinYears   int
	Level      domain.Level
	Multiplier float64
}

// BoostTable is the configured seniority adjustment. This is a
// deliberate ranking bias, not a correctness fix: generic queries
// should surface senior-level entries over superficially-similar
// junior ones, at the cost of "pure" cosine ordering. The thresholds
// are empirically chosen constants, which is why they live in a table
// that deployments can override.
type BoostTable struct {
	Rules []BoostRule
}

// DefaultBoostTable returns the stock thresholds.
func DefaultBoostTable() BoostTable {
	return BoostTable{Rules: []BoostRule{
		{MinYears: 15, Level: domain.LevelExpert, Multiplier: 1.15},
		{MinYears: 10, Level: domain.LevelExpert, Multiplier: 1.10},
		{MinYears: 8, Level: domain.LevelAdvanced, Multiplier: 1.05},
	}}
}

// Boost applies the seniority adjustment to a raw similarity. The
// result is never below the input and never above 1.0; non-positive
// similarities pass through untouched so the boost can only promote.
func (t BoostTable) Boost(raw float64, years int, level domain.Level) float64 {
	if raw <= 0 {
		return raw
	}
	m := 1.0
	for _, r := range t.Rules {
		if years >= r.MinYears && level == r.Level && r.Multiplier > m {
			m = r.Multiplier
			break
		}
	}
	boosted := raw * m
	if boosted > 1.0 {
		return 1.0
	}
	return boosted
}
