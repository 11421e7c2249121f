package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestKey_StableAcrossMapOrder(t *testing.T) {
	a := map[string]any{"formula": "H2O", "molecularWeight": 18.015, "charge": 0}
	b := map[string]any{"charge": 0, "molecularWeight": 18.015, "formula": "H2O"}

	if Key("v", a, nil, "1") != Key("v", b, nil, "1") {
		t.Error("keys differ for structurally equal maps")
	}
}

func TestKey_Discriminators(t *testing.T) {
	value := map[string]any{"formula": "H2O"}
	base := Key("v", value, map[string]any{"strict": true}, "1")

	tests := []struct {
		name string
		key  string
	}{
		{"different validator", Key("w", value, map[string]any{"strict": true}, "1")},
		{"different value", Key("v", map[string]any{"formula": "CO2"}, map[string]any{"strict": true}, "1")},
		{"different config", Key("v", value, map[string]any{"strict": false}, "1")},
		{"different schema version", Key("v", value, map[string]any{"strict": true}, "2")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key == base {
				t.Errorf("expected key to differ from base %q", base)
			}
		})
	}
}

type fakeResult struct {
	valid bool
}

func newResult() *fakeResult {
	return &fakeResult{valid: true}
}

func TestCache_GetSet(t *testing.T) {
	c := New(Config{TTL: time.Minute, MaxEntries: 10})

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty cache")
	}

	want := newResult()
	c.Set("k", want)

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if got != want {
		t.Error("got different result than stored")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit, 1 miss", stats)
	}
	if stats.HitRate() != 0.5 {
		t.Errorf("hit rate = %v, want 0.5", stats.HitRate())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c := New(Config{TTL: time.Minute, MaxEntries: 10})
	c.SetClock(func() time.Time { return now })

	c.Set("k", newResult())

	// One tick before expiry: still served.
	now = now.Add(time.Minute - time.Nanosecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit just before expiry")
	}

	// At expiry: evicted and reported as a miss.
	now = now.Add(time.Nanosecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss at expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry to be evicted, len = %d", c.Len())
	}
	if ev := c.Stats().Evictions; ev != 1 {
		t.Errorf("evictions = %d, want 1", ev)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(Config{TTL: time.Hour, MaxEntries: 3})
	c.Set("a", newResult())
	c.Set("b", newResult())
	c.Set("c", newResult())

	// Touch "a" so "b" becomes least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit on a")
	}

	c.Set("d", newResult())

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted as least recently used")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to survive eviction", key)
		}
	}
}

func TestCache_SetReplacesWithoutEviction(t *testing.T) {
	c := New(Config{TTL: time.Hour, MaxEntries: 3})
	c.Set("k", newResult())
	c.Set("k", newResult())

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1", c.Len())
	}
	if ev := c.Stats().Evictions; ev != 0 {
		t.Errorf("evictions = %d, want 0", ev)
	}
}

func TestCache_Sweep(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c := New(Config{TTL: time.Minute, MaxEntries: 10})
	c.SetClock(func() time.Time { return now })

	c.Set("old", newResult())
	now = now.Add(30 * time.Second)
	c.Set("fresh", newResult())
	now = now.Add(45 * time.Second)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry must survive sweep")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(Config{})
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), newResult())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", c.Len())
	}
}

func TestJanitor_InvalidSchedule(t *testing.T) {
	j := NewJanitor(New(Config{}), "not a schedule", nil)
	if err := j.Start(); err == nil {
		t.Error("expected invalid schedule to fail")
	}
}

func TestJanitor_EmptyScheduleDisabled(t *testing.T) {
	j := NewJanitor(New(Config{}), "", nil)
	if err := j.Start(); err != nil {
		t.Errorf("empty schedule must not error: %v", err)
	}
	j.Stop()
}
