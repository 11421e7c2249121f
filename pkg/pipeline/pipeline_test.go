package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chemlab-hq/callisto/pkg/config"
	"chemlab-hq/callisto/pkg/events"
	"chemlab-hq/callisto/pkg/rules"
	"chemlab-hq/callisto/pkg/validation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig is sequential and cacheless so executions are deterministic;
// individual tests opt back into the features they exercise.
func testConfig() config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	cfg.Timeout = 2 * time.Second
	cfg.EnableCaching = false
	cfg.Parallel.Enabled = false
	return cfg
}

func newTestPipeline(t *testing.T, cfg config.PipelineConfig) *Pipeline {
	t.Helper()
	p, err := New(cfg, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// recorder tracks rule execution order across goroutines.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) index(name string) int {
	for i, n := range r.names() {
		if n == name {
			return i
		}
	}
	return -1
}

func passingRule(name string, rec *recorder, opts ...rules.Option) validation.Rule {
	return rules.NewSyncRule(name, "", func(any, *validation.Context) *validation.RuleResult {
		if rec != nil {
			rec.record(name)
		}
		return validation.Pass()
	}, opts...)
}

func failingRule(name string, rec *recorder, severity validation.Severity, opts ...rules.Option) validation.Rule {
	return rules.NewSyncRule(name, "", func(any, *validation.Context) *validation.RuleResult {
		if rec != nil {
			rec.record(name)
		}
		return validation.Fail(&validation.Error{
			Code:     "TEST_FAILURE",
			Message:  name + " failed",
			Severity: severity,
		})
	}, opts...)
}

func TestAddRule_DuplicateName(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	if err := p.AddRule(passingRule("dup", nil)); err != nil {
		t.Fatalf("first AddRule() error = %v", err)
	}
	err := p.AddRule(passingRule("dup", nil))
	if !errors.Is(err, validation.ErrDuplicateName) {
		t.Fatalf("second AddRule() error = %v, want ErrDuplicateName", err)
	}
	if got := len(p.Rules()); got != 1 {
		t.Errorf("Rules() len = %d, want 1", got)
	}
}

func TestAddRule_CycleRejected(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	if err := p.AddRule(passingRule("a", nil, rules.WithDependencies("b"))); err != nil {
		t.Fatalf("AddRule(a) error = %v", err)
	}
	if err := p.AddRule(passingRule("b", nil, rules.WithDependencies("c"))); err != nil {
		t.Fatalf("AddRule(b) error = %v", err)
	}

	err := p.AddRule(passingRule("c", nil, rules.WithDependencies("a")))
	if !errors.Is(err, validation.ErrCyclicDependency) {
		t.Fatalf("AddRule(c) error = %v, want ErrCyclicDependency", err)
	}

	// Registry must be unchanged by the rejected registration.
	if _, ok := p.GetRule("c"); ok {
		t.Error("rejected rule c is still registered")
	}
	if got := len(p.Rules()); got != 2 {
		t.Errorf("Rules() len = %d, want 2", got)
	}
}

func TestValidate_DependencyOrdering(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Parallel.Enabled = parallel
			cfg.Parallel.MaxConcurrency = 4
			p := newTestPipeline(t, cfg)

			rec := &recorder{}
			// Registered out of order on purpose.
			mustAddRule(t, p, passingRule("third", rec, rules.WithDependencies("second")))
			mustAddRule(t, p, passingRule("second", rec, rules.WithDependencies("first")))
			mustAddRule(t, p, passingRule("first", rec))

			result, err := p.Validate(context.Background(), "x")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !result.Valid {
				t.Fatalf("Validate() invalid: %+v", result.Errors)
			}

			if got := len(rec.names()); got != 3 {
				t.Fatalf("executed %d rules, want 3", got)
			}
			if rec.index("first") > rec.index("second") || rec.index("second") > rec.index("third") {
				t.Errorf("execution order %v violates dependencies", rec.names())
			}
		})
	}
}

func TestValidate_PriorityOrderWithinLevel(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	rec := &recorder{}
	mustAddRule(t, p, passingRule("low", rec, rules.WithPriority(1)))
	mustAddRule(t, p, passingRule("high", rec, rules.WithPriority(10)))

	if _, err := p.Validate(context.Background(), "x"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := []string{"high", "low"}
	got := rec.names()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("execution order = %v, want %v", got, want)
	}
}

func TestValidate_SeverityControlsValidity(t *testing.T) {
	tests := []struct {
		name      string
		severity  validation.Severity
		wantValid bool
	}{
		{"info", validation.SeverityInfo, true},
		{"warning", validation.SeverityWarning, true},
		{"error", validation.SeverityError, false},
		{"critical", validation.SeverityCritical, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, testConfig())
			mustAddRule(t, p, failingRule("check", nil, tt.severity))

			result, err := p.Validate(context.Background(), "x")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if tt.wantValid {
				if len(result.Warnings) != 1 || len(result.Errors) != 0 {
					t.Errorf("warnings=%d errors=%d, want 1/0", len(result.Warnings), len(result.Errors))
				}
			} else {
				if len(result.Errors) != 1 || len(result.Warnings) != 0 {
					t.Errorf("warnings=%d errors=%d, want 0/1", len(result.Warnings), len(result.Errors))
				}
			}
		})
	}
}

func TestValidate_ContinueOnError(t *testing.T) {
	tests := []struct {
		name            string
		continueOnError bool
		wantExecuted    []string
	}{
		{"stop on first blocking finding", false, []string{"gate"}},
		{"continue past blocking finding", true, []string{"gate", "after"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ContinueOnError = tt.continueOnError
			p := newTestPipeline(t, cfg)

			rec := &recorder{}
			mustAddRule(t, p, failingRule("gate", rec, validation.SeverityError))
			mustAddRule(t, p, passingRule("after", rec, rules.WithDependencies("gate")))

			result, err := p.Validate(context.Background(), "x")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.Valid {
				t.Error("result unexpectedly valid")
			}

			got := rec.names()
			if len(got) != len(tt.wantExecuted) {
				t.Fatalf("executed %v, want %v", got, tt.wantExecuted)
			}
			for i := range got {
				if got[i] != tt.wantExecuted[i] {
					t.Fatalf("executed %v, want %v", got, tt.wantExecuted)
				}
			}
		})
	}
}

func TestValidate_RuleTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 30 * time.Millisecond
	p := newTestPipeline(t, cfg)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	mustAddRule(t, p, rules.NewSyncRule("slow", "", func(any, *validation.Context) *validation.RuleResult {
		<-release
		return validation.Pass()
	}))

	start := time.Now()
	result, err := p.Validate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < cfg.Timeout {
		t.Errorf("returned after %v, before the %v timeout", elapsed, cfg.Timeout)
	}
	if result.Valid {
		t.Fatal("result unexpectedly valid")
	}
	if got := result.Errors[0].Code; got != validation.CodeTimeout {
		t.Errorf("finding code = %q, want %q", got, validation.CodeTimeout)
	}
}

func TestValidate_ValidatorErrorConverted(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, any, *validation.Context) (*validation.Result, error)
	}{
		{
			"returned error",
			func(context.Context, any, *validation.Context) (*validation.Result, error) {
				return nil, errors.New("backend unreachable")
			},
		},
		{
			"panic",
			func(context.Context, any, *validation.Context) (*validation.Result, error) {
				panic("boom")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, testConfig())
			mustAddValidator(t, p, &validation.FuncValidator{
				ValidatorName: "broken",
				Cfg:           validation.ValidatorConfig{Enabled: true},
				Fn:            tt.fn,
			})

			result, err := p.Validate(context.Background(), "x")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if result.Valid {
				t.Fatal("result unexpectedly valid")
			}
			if got := result.Errors[0].Code; got != validation.CodeValidatorError {
				t.Errorf("finding code = %q, want %q", got, validation.CodeValidatorError)
			}
		})
	}
}

func TestValidate_UnknownValidatorName(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	_, err := p.Validate(context.Background(), "x", "missing")
	if !errors.Is(err, validation.ErrUnknownName) {
		t.Fatalf("Validate() error = %v, want ErrUnknownName", err)
	}
	var cfgErr *validation.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Validate() error type = %T, want *validation.ConfigurationError", err)
	}
	if cfgErr.Component != "missing" {
		t.Errorf("Component = %q, want %q", cfgErr.Component, "missing")
	}
}

func TestValidate_DisabledValidatorSkipped(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	executed := false
	mustAddValidator(t, p, &validation.FuncValidator{
		ValidatorName: "off",
		Cfg:           validation.ValidatorConfig{Enabled: false},
		Fn: func(context.Context, any, *validation.Context) (*validation.Result, error) {
			executed = true
			return validation.NewResult(), nil
		},
	})

	result, err := p.Validate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if executed {
		t.Error("disabled validator executed")
	}
	if !result.Valid {
		t.Errorf("result invalid: %+v", result.Errors)
	}
}

func TestValidate_CacheableRuleExecutesOnce(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCaching = true
	p := newTestPipeline(t, cfg)

	var executions int
	mustAddRule(t, p, rules.NewSyncRule("cacheable", "", func(any, *validation.Context) *validation.RuleResult {
		executions++
		return validation.Pass()
	}, rules.WithCacheable(true)))

	var cached []bool
	p.Events().Subscribe(func(e events.Event) {
		cached = append(cached, e.RuleResult.Cached)
	}, events.RuleExecuted)

	for i := 0; i < 3; i++ {
		if _, err := p.Validate(context.Background(), "same value"); err != nil {
			t.Fatalf("Validate() #%d error = %v", i, err)
		}
	}

	if executions != 1 {
		t.Errorf("rule executed %d times, want 1", executions)
	}
	if len(cached) != 3 || cached[0] || !cached[1] || !cached[2] {
		t.Errorf("cached flags = %v, want [false true true]", cached)
	}

	// A different value misses the cache.
	if _, err := p.Validate(context.Background(), "other value"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if executions != 2 {
		t.Errorf("rule executed %d times after new value, want 2", executions)
	}
}

func TestValidate_CacheableValidatorServedFromCache(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCaching = true
	p := newTestPipeline(t, cfg)

	var executions int
	mustAddValidator(t, p, &validation.FuncValidator{
		ValidatorName: "schema",
		Cfg:           validation.ValidatorConfig{Enabled: true, Cacheable: true},
		Fn: func(context.Context, any, *validation.Context) (*validation.Result, error) {
			executions++
			return validation.NewResult(), nil
		},
	})

	var fromCache []bool
	p.Events().Subscribe(func(e events.Event) {
		fromCache = append(fromCache, e.Result.FromCache)
	}, events.ValidatorExecuted)

	var results []*validation.Result
	for i := 0; i < 2; i++ {
		result, err := p.Validate(context.Background(), map[string]any{"id": 7})
		if err != nil {
			t.Fatalf("Validate() #%d error = %v", i, err)
		}
		results = append(results, result)
	}

	if executions != 1 {
		t.Errorf("validator executed %d times, want 1", executions)
	}
	if len(fromCache) != 2 || fromCache[0] || !fromCache[1] {
		t.Errorf("fromCache flags = %v, want [false true]", fromCache)
	}

	// The flag must be visible on the returned aggregates, not just on the
	// validator:executed events.
	if results[0].FromCache {
		t.Error("first Validate result FromCache = true, want false")
	}
	if !results[1].FromCache {
		t.Error("second Validate result FromCache = false, want true")
	}
}

func TestValidate_AggregateFromCacheRequiresAllCached(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCaching = true
	p := newTestPipeline(t, cfg)

	mustAddRule(t, p, passingRule("pure", nil, rules.WithCacheable(true)))
	mustAddRule(t, p, passingRule("fresh", nil))

	for i := 0; i < 2; i++ {
		result, err := p.Validate(context.Background(), "same value")
		if err != nil {
			t.Fatalf("Validate() #%d error = %v", i, err)
		}
		// The non-cacheable rule executes fresh on every run, so the
		// aggregate is never wholly from the cache.
		if result.FromCache {
			t.Errorf("Validate() #%d result FromCache = true, want false", i)
		}
	}
}

func TestValidate_TimedOutResultNotCached(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCaching = true
	cfg.Timeout = 20 * time.Millisecond
	p := newTestPipeline(t, cfg)

	var executions atomic.Int32
	firstRun := make(chan struct{})
	t.Cleanup(func() { close(firstRun) })
	mustAddRule(t, p, rules.NewSyncRule("flaky", "", func(any, *validation.Context) *validation.RuleResult {
		if executions.Add(1) == 1 {
			<-firstRun
		}
		return validation.Pass()
	}, rules.WithCacheable(true)))

	first, err := p.Validate(context.Background(), "v")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if first.Valid {
		t.Fatal("first run unexpectedly valid")
	}

	second, err := p.Validate(context.Background(), "v")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !second.Valid {
		t.Fatalf("second run invalid: %+v", second.Errors)
	}
	if got := executions.Load(); got != 2 {
		t.Errorf("rule executed %d times, want 2 (timeout must not be cached)", got)
	}
}

func TestValidate_EventOrdering(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	mustAddRule(t, p, passingRule("only", nil))
	mustAddValidator(t, p, &validation.FuncValidator{
		ValidatorName: "v",
		Cfg:           validation.ValidatorConfig{Enabled: true},
		Fn: func(context.Context, any, *validation.Context) (*validation.Result, error) {
			return validation.NewResult(), nil
		},
	})

	var mu sync.Mutex
	var seen []events.Type
	p.Events().Subscribe(func(e events.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	if _, err := p.Validate(context.Background(), "x"); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 4 {
		t.Fatalf("saw %d events, want at least 4: %v", len(seen), seen)
	}
	if seen[0] != events.ValidationStarted {
		t.Errorf("first event = %v, want %v", seen[0], events.ValidationStarted)
	}
	if seen[len(seen)-1] != events.ValidationCompleted {
		t.Errorf("last event = %v, want %v", seen[len(seen)-1], events.ValidationCompleted)
	}
	var sawValidator, sawRule bool
	for _, typ := range seen[1 : len(seen)-1] {
		switch typ {
		case events.ValidatorExecuted:
			sawValidator = true
		case events.RuleExecuted:
			sawRule = true
		}
	}
	if !sawValidator || !sawRule {
		t.Errorf("events %v missing validator:executed or rule:executed", seen)
	}
}

func TestValidate_PanickingListenerIsolated(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	mustAddRule(t, p, passingRule("only", nil))

	p.Events().Subscribe(func(events.Event) { panic("listener bug") })
	delivered := 0
	p.Events().Subscribe(func(events.Event) { delivered++ })

	result, err := p.Validate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("result invalid: %+v", result.Errors)
	}
	if delivered == 0 {
		t.Error("second listener received no events")
	}
}

func TestValidateBatch(t *testing.T) {
	cfg := testConfig()
	cfg.Parallel.Enabled = true
	cfg.Parallel.MaxConcurrency = 2
	p := newTestPipeline(t, cfg)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	mustAddRule(t, p, rules.NewAsyncRule("gauge", "", 0, func(context.Context, any, *validation.Context) (*validation.RuleResult, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return validation.Pass(), nil
	}))
	mustAddRule(t, p, rules.NewSyncRule("even", "", func(value any, _ *validation.Context) *validation.RuleResult {
		if value.(int)%2 != 0 {
			return validation.Fail(&validation.Error{
				Code:     "ODD_VALUE",
				Message:  "value is odd",
				Severity: validation.SeverityError,
			})
		}
		return validation.Pass()
	}))

	values := []any{0, 1, 2, 3, 4, 5}
	results, err := p.ValidateBatch(context.Background(), values)
	if err != nil {
		t.Fatalf("ValidateBatch() error = %v", err)
	}
	if len(results) != len(values) {
		t.Fatalf("got %d results, want %d", len(results), len(values))
	}
	for i, result := range results {
		wantValid := i%2 == 0
		if result.Valid != wantValid {
			t.Errorf("results[%d].Valid = %v, want %v", i, result.Valid, wantValid)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if maxInFlight > cfg.Parallel.MaxConcurrency {
		t.Errorf("observed %d concurrent executions, budget is %d", maxInFlight, cfg.Parallel.MaxConcurrency)
	}
}

func TestGetStats(t *testing.T) {
	cfg := testConfig()
	cfg.EnableCaching = true
	p := newTestPipeline(t, cfg)

	mustAddRule(t, p, passingRule("a", nil, rules.WithCacheable(true)))
	mustAddRule(t, p, passingRule("b", nil))
	mustAddValidator(t, p, &validation.FuncValidator{
		ValidatorName: "v",
		Cfg:           validation.ValidatorConfig{Enabled: true},
		Fn: func(context.Context, any, *validation.Context) (*validation.Result, error) {
			return validation.NewResult(), nil
		},
	})

	for i := 0; i < 2; i++ {
		if _, err := p.Validate(context.Background(), "x"); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
	}

	stats := p.GetStats()
	if stats.Validators != 1 || stats.Rules != 2 {
		t.Errorf("Validators=%d Rules=%d, want 1/2", stats.Validators, stats.Rules)
	}
	if stats.Runs != 2 {
		t.Errorf("Runs = %d, want 2", stats.Runs)
	}
	if stats.CacheHits != 1 || stats.CacheMisses != 1 {
		t.Errorf("CacheHits=%d CacheMisses=%d, want 1/1", stats.CacheHits, stats.CacheMisses)
	}

	p.ClearCache()
	if got := p.GetStats().CacheSize; got != 0 {
		t.Errorf("CacheSize after ClearCache = %d, want 0", got)
	}
}

func TestUpdateConfig(t *testing.T) {
	p := newTestPipeline(t, testConfig())

	bad := testConfig()
	bad.Timeout = -1
	if err := p.UpdateConfig(bad); err == nil {
		t.Fatal("UpdateConfig() accepted a negative timeout")
	}

	good := testConfig()
	good.Timeout = 10 * time.Second
	if err := p.UpdateConfig(good); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if got := p.Config().Timeout; got != 10*time.Second {
		t.Errorf("Config().Timeout = %v, want 10s", got)
	}
}

// TestValidate_ChemicalDocument exercises the full stack: a pattern rule
// over the formula field and a dependent consistency rule that recomputes
// the molecular weight from the formula.
func TestValidate_ChemicalDocument(t *testing.T) {
	atomicWeights := map[string]float64{"H": 1.008, "O": 15.999}
	formulaPattern := regexp.MustCompile(`^([A-Z][a-z]?\d*)+$`)

	newDocPipeline := func(t *testing.T) *Pipeline {
		p := newTestPipeline(t, testConfig())

		mustAddRule(t, p, rules.NewSyncRule("formulaFormat", "chemical formula syntax", func(value any, vc *validation.Context) *validation.RuleResult {
			doc := value.(map[string]any)
			formula, _ := doc["formula"].(string)
			if !formulaPattern.MatchString(formula) {
				return validation.Fail(&validation.Error{
					Code:     "INVALID_FORMULA",
					Message:  "formula is not valid Hill notation",
					Path:     []string{"formula"},
					Severity: validation.SeverityError,
					Value:    formula,
				})
			}
			vc.SharedSet("formula", formula)
			return validation.Pass()
		}))

		mustAddRule(t, p, rules.NewSyncRule("molecularWeightConsistency", "declared weight matches the formula", func(value any, vc *validation.Context) *validation.RuleResult {
			doc := value.(map[string]any)
			formula, ok := vc.SharedGet("formula")
			if !ok {
				return validation.Pass()
			}
			declared, _ := doc["molecularWeight"].(float64)
			computed := weightOf(formula.(string), atomicWeights)
			if diff := declared - computed; diff > 0.01 || diff < -0.01 {
				return validation.Fail(&validation.Error{
					Code:     "WEIGHT_MISMATCH",
					Message:  "declared molecular weight does not match the formula",
					Path:     []string{"molecularWeight"},
					Severity: validation.SeverityError,
					Value:    declared,
				})
			}
			return validation.Pass()
		}, rules.WithDependencies("formulaFormat")))

		return p
	}

	t.Run("consistent document", func(t *testing.T) {
		p := newDocPipeline(t)
		result, err := p.Validate(context.Background(), map[string]any{
			"formula":         "H2O",
			"molecularWeight": 18.015,
		})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if !result.Valid {
			t.Errorf("result invalid: %+v", result.Errors)
		}
		if result.Metrics.RulesExecuted != 2 {
			t.Errorf("RulesExecuted = %d, want 2", result.Metrics.RulesExecuted)
		}
	})

	t.Run("wrong weight", func(t *testing.T) {
		p := newDocPipeline(t)
		result, err := p.Validate(context.Background(), map[string]any{
			"formula":         "H2O",
			"molecularWeight": 999.0,
		})
		if err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if result.Valid {
			t.Error("result unexpectedly valid")
		}
		if len(result.Errors) != 1 || result.Errors[0].Code != "WEIGHT_MISMATCH" {
			t.Errorf("findings = %+v, want one WEIGHT_MISMATCH", result.Errors)
		}
	})
}

// weightOf sums atomic weights over a simple element-count formula.
func weightOf(formula string, weights map[string]float64) float64 {
	total := 0.0
	for i := 0; i < len(formula); {
		j := i + 1
		for j < len(formula) && formula[j] >= 'a' && formula[j] <= 'z' {
			j++
		}
		element := formula[i:j]
		i = j
		for j < len(formula) && formula[j] >= '0' && formula[j] <= '9' {
			j++
		}
		count := 1
		if j > i {
			n := 0
			for _, ch := range formula[i:j] {
				n = n*10 + int(ch-'0')
			}
			count = n
		}
		i = j
		total += weights[element] * float64(count)
	}
	return total
}

func TestRuleLevels(t *testing.T) {
	p := newTestPipeline(t, testConfig())
	mustAddRule(t, p, passingRule("root", nil))
	mustAddRule(t, p, passingRule("mid", nil, rules.WithDependencies("root")))
	mustAddRule(t, p, passingRule("leaf", nil, rules.WithDependencies("mid", "root")))

	levels := p.RuleLevels()
	if len(levels) != 3 {
		t.Fatalf("got %d levels, want 3: %v", len(levels), levels)
	}
	want := [][]string{{"root"}, {"mid"}, {"leaf"}}
	for i := range want {
		if strings.Join(levels[i], ",") != strings.Join(want[i], ",") {
			t.Errorf("level %d = %v, want %v", i, levels[i], want[i])
		}
	}
}

func mustAddRule(t *testing.T, p *Pipeline, r validation.Rule) {
	t.Helper()
	if err := p.AddRule(r); err != nil {
		t.Fatalf("AddRule(%s) error = %v", r.Name(), err)
	}
}

func mustAddValidator(t *testing.T, p *Pipeline, v validation.Validator) {
	t.Helper()
	if err := p.AddValidator(v); err != nil {
		t.Fatalf("AddValidator(%s) error = %v", v.Name(), err)
	}
}
