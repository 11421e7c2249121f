package graph

import (
	"errors"
	"reflect"
	"testing"

	"chemlab-hq/callisto/pkg/validation"
)

func TestResolver_AddDuplicate(t *testing.T) {
	r := NewResolver()
	if err := r.Add("a", nil, 0); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	err := r.Add("a", nil, 0)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	var cfgErr *validation.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if !errors.Is(err, validation.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected registry unchanged, got %d nodes", r.Len())
	}
}

func TestResolver_CycleRejected(t *testing.T) {
	tests := []struct {
		name string
		adds [][2]any // name, deps
	}{
		{
			name: "two node cycle",
			adds: [][2]any{
				{"a", []string{"b"}},
				{"b", []string{"a"}},
			},
		},
		{
			name: "three node cycle",
			adds: [][2]any{
				{"a", []string{"c"}},
				{"b", []string{"a"}},
				{"c", []string{"b"}},
			},
		},
		{
			name: "self cycle",
			adds: [][2]any{
				{"a", []string{"a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver()
			var lastErr error
			for _, add := range tt.adds {
				lastErr = r.Add(add[0].(string), add[1].([]string), 0)
			}
			if lastErr == nil {
				t.Fatal("expected final registration to be rejected")
			}
			if !errors.Is(lastErr, validation.ErrCyclicDependency) {
				t.Errorf("expected ErrCyclicDependency, got %v", lastErr)
			}
			// The rejected node must not remain in the graph.
			if r.Len() != len(tt.adds)-1 {
				t.Errorf("expected %d nodes after rejection, got %d", len(tt.adds)-1, r.Len())
			}
		})
	}
}

func TestResolver_OrderRespectsDependencies(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "parse", nil, 0)
	mustAdd(t, r, "weights", []string{"parse"}, 0)
	mustAdd(t, r, "charge", []string{"parse"}, 0)
	mustAdd(t, r, "report", []string{"weights", "charge"}, 0)

	order := r.Order()
	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}

	deps := map[string][]string{
		"weights": {"parse"},
		"charge":  {"parse"},
		"report":  {"weights", "charge"},
	}
	for name, wants := range deps {
		for _, dep := range wants {
			if pos[dep] >= pos[name] {
				t.Errorf("%s (pos %d) must come after %s (pos %d)", name, pos[name], dep, pos[dep])
			}
		}
	}
}

func TestResolver_OrderPriorityTieBreak(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "low", nil, 10)
	mustAdd(t, r, "high", nil, 100)
	mustAdd(t, r, "mid", nil, 50)

	want := []string{"high", "mid", "low"}
	if got := r.Order(); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestResolver_OrderRegistrationTieBreak(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "first", nil, 5)
	mustAdd(t, r, "second", nil, 5)
	mustAdd(t, r, "third", nil, 5)

	want := []string{"first", "second", "third"}
	if got := r.Order(); !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestResolver_Levels(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "parse", nil, 0)
	mustAdd(t, r, "syntax", nil, 10)
	mustAdd(t, r, "weights", []string{"parse"}, 0)
	mustAdd(t, r, "charge", []string{"parse"}, 5)
	mustAdd(t, r, "report", []string{"weights", "charge"}, 0)

	want := [][]string{
		{"syntax", "parse"},
		{"charge", "weights"},
		{"report"},
	}
	if got := r.Levels(); !reflect.DeepEqual(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}
}

func TestResolver_UnknownDependencyImposesNoOrder(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "a", []string{"missing"}, 0)

	want := [][]string{{"a"}}
	if got := r.Levels(); !reflect.DeepEqual(got, want) {
		t.Errorf("levels = %v, want %v", got, want)
	}

	// Once the dependency is registered, the order must respect it.
	mustAdd(t, r, "missing", nil, 0)
	want = [][]string{{"missing"}, {"a"}}
	if got := r.Levels(); !reflect.DeepEqual(got, want) {
		t.Errorf("levels after add = %v, want %v", got, want)
	}
}

func TestResolver_RemoveInvalidatesOrder(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "a", nil, 0)
	mustAdd(t, r, "b", []string{"a"}, 0)

	if got := r.Order(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("initial order = %v", got)
	}

	r.Remove("a")
	if got := r.Order(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("order after remove = %v, want [b]", got)
	}
	if r.Has("a") {
		t.Error("removed node still present")
	}
}

func TestResolver_NamesRegistrationOrder(t *testing.T) {
	r := NewResolver()
	mustAdd(t, r, "z", nil, 0)
	mustAdd(t, r, "a", nil, 100)
	mustAdd(t, r, "m", nil, 50)

	want := []string{"z", "a", "m"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func mustAdd(t *testing.T, r *Resolver, name string, deps []string, priority int) {
	t.Helper()
	if err := r.Add(name, deps, priority); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
}
