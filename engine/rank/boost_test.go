package rank

import (
	"math"
	"testing"

	"github.com/FolioAI/folio-mvp/engine/domain"
)

func TestBoost_Table(t *testing.T) {
	table := DefaultBoostTable()
	cases := []struct {
		name  string
		raw   float64
		years int
		level domain.Level
		want  float64
	}{
		{"senior expert", 0.60, 16, domain.LevelExpert, 0.69},
		{"mid expert", 0.60, 12, domain.LevelExpert, 0.66},
		{"advanced", 0.60, 9, domain.LevelAdvanced, 0.63},
		{"junior expert", 0.60, 5, domain.LevelExpert, 0.60},
		{"advanced under threshold", 0.60, 7, domain.LevelAdvanced, 0.60},
		{"intermediate many years", 0.60, 20, domain.LevelIntermediate, 0.60},
	}
	for _, c := range cases {
		got := table.Boost(c.raw, c.years, c.level)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: Boost(%v, %d, %s) = %v, want %v", c.name, c.raw, c.years, c.level, got, c.want)
		}
	}
}

func TestBoost_ClampsAtOne(t *testing.T) {
	table := DefaultBoostTable()
	got := table.Boost(0.95, 20, domain.LevelExpert)
	if got != 1.0 {
		t.Errorf("Boost(0.95, 20, expert) = %v, want clamp to 1.0", got)
	}
}

func TestBoost_NeverLowers(t *testing.T) {
	table := DefaultBoostTable()
	for _, raw := range []float64{-0.5, 0, 0.1, 0.5, 0.99} {
		for _, years := range []int{0, 8, 10, 15, 30} {
			for _, level := range []domain.Level{domain.LevelUnknown, domain.LevelIntermediate, domain.LevelAdvanced, domain.LevelExpert} {
				got := table.Boost(raw, years, level)
				if got < raw {
					t.Errorf("Boost(%v, %d, %s) = %v lowered the score", raw, years, level, got)
				}
				if got > 1.0 {
					t.Errorf("Boost(%v, %d, %s) = %v exceeds 1.0", raw, years, level, got)
				}
			}
		}
	}
}

func TestBoost_NonPositivePassthrough(t *testing.T) {
	table := DefaultBoostTable()
	if got := table.Boost(-0.3, 20, domain.LevelExpert); got != -0.3 {
		t.Errorf("negative similarity should pass through, got %v", got)
	}
	if got := table.Boost(0, 20, domain.LevelExpert); got != 0 {
		t.Errorf("zero similarity should pass through, got %v", got)
	}
}

func TestBoost_PreservesOrderWithinBand(t *testing.T) {
	// Two records with the same seniority keep their cosine order.
	table := DefaultBoostTable()
	lo := table.Boost(0.50, 16, domain.LevelExpert)
	hi := table.Boost(0.70, 16, domain.LevelExpert)
	if lo >= hi {
		t.Errorf("order flipped: %v >= %v", lo, hi)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		boosted float64
		want    MatchType
	}{
		{0.90, MatchFull},
		{0.75, MatchFull},
		{0.74, MatchPartial},
		{0.40, MatchPartial},
		{0.39, MatchNone},
		{0, MatchNone},
	}
	for _, c := range cases {
		if got := Classify(c.boosted); got != c.want {
			t.Errorf("Classify(%v) = %s, want %s", c.boosted, got, c.want)
		}
	}
}

func TestScore100(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0.754, 75},
		{1.0, 100},
		{1.2, 100},
		{-0.3, 0},
		{0, 0},
	}
	for _, c := range cases {
		if got := Score100(c.in); got != c.want {
			t.Errorf("Score100(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
