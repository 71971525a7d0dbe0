package workflow

import (
	"testing"
	"time"
)

func TestPlanCacheRoundTrip(t *testing.T) {
	cache, err := NewPlanCache(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	plan := validPlan()
	plan.Intents = []string{"book appointment", "schedule visit"}
	cache.Set(plan)
	cache.Wait()

	for _, intent := range plan.Intents {
		got, found := cache.Get("dental", intent)
		if !found {
			t.Fatalf("Get(dental, %q) missed after Set", intent)
		}
		if got.ID != plan.ID {
			t.Errorf("Get(dental, %q) = %s, want %s", intent, got.ID, plan.ID)
		}
	}

	if _, found := cache.Get("dental", "cancel appointment"); found {
		t.Error("unrelated intent must miss")
	}
	if _, found := cache.Get("vision", "book appointment"); found {
		t.Error("cache keys must be scoped to the domain")
	}

	cache.Invalidate("dental", "book appointment")
	cache.Wait()
	if _, found := cache.Get("dental", "book appointment"); found {
		t.Error("Get hit after Invalidate")
	}
	if _, found := cache.Get("dental", "schedule visit"); !found {
		t.Error("Invalidate must only evict the named intent")
	}
}
