package resilience

import (
	"testing"
	"time"
)

func TestQuota_ConsumesUpToLimit(t *testing.T) {
	q := NewQuota(3, time.Hour)
	for i := 0; i < 3; i++ {
		ok, st := q.TryConsume(1)
		if !ok {
			t.Fatalf("consume %d should succeed", i+1)
		}
		if st.Used != i+1 {
			t.Errorf("used = %d, want %d", st.Used, i+1)
		}
	}
	ok, st := q.TryConsume(1)
	if ok {
		t.Error("fourth consume should be denied")
	}
	if st.Used != 3 || st.Limit != 3 {
		t.Errorf("status = %+v", st)
	}
	if st.ResetAt.IsZero() {
		t.Error("denial should report when the window resets")
	}
}

func TestQuota_WindowResets(t *testing.T) {
	q := NewQuota(1, time.Hour)
	base := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	now := base
	q.now = func() time.Time { return now }

	if ok, _ := q.TryConsume(1); !ok {
		t.Fatal("first consume should succeed")
	}
	if ok, _ := q.TryConsume(1); ok {
		t.Fatal("second consume in same window should fail")
	}

	now = base.Add(time.Hour + time.Minute)
	if ok, _ := q.TryConsume(1); !ok {
		t.Error("consume after window rollover should succeed")
	}
}

func TestQuota_ZeroLimitDisables(t *testing.T) {
	q := NewQuota(0, time.Hour)
	for i := 0; i < 100; i++ {
		if ok, _ := q.TryConsume(1); !ok {
			t.Fatal("disabled quota should always allow")
		}
	}
}

func TestQuota_CostBiggerThanRemaining(t *testing.T) {
	q := NewQuota(5, time.Hour)
	if ok, _ := q.TryConsume(4); !ok {
		t.Fatal("first consume should succeed")
	}
	if ok, _ := q.TryConsume(2); ok {
		t.Error("consume past the limit should be denied")
	}
	// The remaining single unit is still available.
	if ok, _ := q.TryConsume(1); !ok {
		t.Error("remaining unit should be consumable")
	}
}
