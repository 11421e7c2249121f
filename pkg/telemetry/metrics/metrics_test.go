package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"chemlab-hq/callisto/pkg/config"
	"chemlab-hq/callisto/pkg/events"
	"chemlab-hq/callisto/pkg/validation"
)

func testCollector() *Collector {
	return NewCollector(config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
}

func TestCollector_RecordRun(t *testing.T) {
	c := testCollector()

	c.RecordRun(true, 10*time.Millisecond)
	c.RecordRun(false, 20*time.Millisecond)
	c.RecordRun(false, 30*time.Millisecond)

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("valid")); got != 1 {
		t.Errorf("runs_total{outcome=valid} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("invalid")); got != 2 {
		t.Errorf("runs_total{outcome=invalid} = %v, want 2", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := NewCollector(config.MetricsConfig{Enabled: false}, prometheus.NewRegistry())

	c.RecordRun(true, time.Millisecond)
	c.RecordCacheHit()
	c.RecordRule("r", true, time.Millisecond)

	if got := testutil.ToFloat64(c.cacheHitsTotal); got != 0 {
		t.Errorf("cache_hits_total = %v, want 0 when disabled", got)
	}
	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("valid")); got != 0 {
		t.Errorf("runs_total = %v, want 0 when disabled", got)
	}
}

func TestListener(t *testing.T) {
	c := testCollector()
	listener := c.Listener()

	result := validation.NewResult()
	result.Add(&validation.Error{Code: "X", Severity: validation.SeverityError})
	result.Add(&validation.Error{Code: "Y", Severity: validation.SeverityWarning})
	result.Metrics.Duration = 5 * time.Millisecond

	listener(events.Event{Type: events.ValidationCompleted, Result: result})
	listener(events.Event{Type: events.RuleExecuted, Rule: "check", RuleResult: validation.Pass()})
	listener(events.Event{Type: events.ValidatorExecuted, Validator: "schema", Result: validation.NewResult()})
	listener(events.Event{Type: events.CacheHit})
	listener(events.Event{Type: events.CacheMiss})
	listener(events.Event{Type: events.CacheMiss})

	if got := testutil.ToFloat64(c.runsTotal.WithLabelValues("invalid")); got != 1 {
		t.Errorf("runs_total{outcome=invalid} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.findingsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("findings_total{severity=error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.findingsTotal.WithLabelValues("warning")); got != 1 {
		t.Errorf("findings_total{severity=warning} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.rulesTotal.WithLabelValues("check", "passed")); got != 1 {
		t.Errorf("rule_executions_total{rule=check,outcome=passed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.validatorsTotal.WithLabelValues("schema", "valid")); got != 1 {
		t.Errorf("validator_executions_total{validator=schema,outcome=valid} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheHitsTotal); got != 1 {
		t.Errorf("cache_hits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.cacheMissesTotal); got != 2 {
		t.Errorf("cache_misses_total = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	c := testCollector()
	c.RecordRun(true, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "callisto_pipeline_runs_total") {
		t.Errorf("exposition output missing callisto_pipeline_runs_total:\n%s", rec.Body.String())
	}
}
