package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chemlab-hq/callisto/pkg/config"
)

// Collector owns the Prometheus metric families describing pipeline
// activity. All instruments are registered on the provided registry so that
// independent pipelines can keep separate metric surfaces.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	findingsTotal   *prometheus.CounterVec
	rulesTotal      *prometheus.CounterVec
	ruleDuration    *prometheus.HistogramVec
	validatorsTotal *prometheus.CounterVec

	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
}

// NewCollector creates and registers the pipeline metric families. A nil
// registry creates a fresh one; retrieve it with Registry for scraping.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		// Validation runs are fast; sub-millisecond to a few seconds.
		cfg.DurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "Total validation runs by outcome",
			},
			[]string{"outcome"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "run_duration_seconds",
				Help:      "Validation run duration",
				Buckets:   cfg.DurationBuckets,
			},
		),

		findingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "findings_total",
				Help:      "Total findings by severity",
			},
			[]string{"severity"},
		),

		rulesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_executions_total",
				Help:      "Total rule executions by rule and outcome",
			},
			[]string{"rule", "outcome"},
		),

		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rule_duration_seconds",
				Help:      "Rule execution duration",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"rule"},
		),

		validatorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validator_executions_total",
				Help:      "Total validator executions by validator and outcome",
			},
			[]string{"validator", "outcome"},
		),

		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total result cache hits",
			},
		),

		cacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total result cache misses",
			},
		),
	}

	registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.findingsTotal,
		c.rulesTotal,
		c.ruleDuration,
		c.validatorsTotal,
		c.cacheHitsTotal,
		c.cacheMissesTotal,
	)

	return c
}

// Registry returns the registry the collector's instruments live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRun records one completed validation run.
func (c *Collector) RecordRun(valid bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	c.runsTotal.WithLabelValues(outcome).Inc()
	c.runDuration.Observe(duration.Seconds())
}

// RecordFinding records one finding by severity label.
func (c *Collector) RecordFinding(severity string) {
	if !c.config.Enabled {
		return
	}
	c.findingsTotal.WithLabelValues(severity).Inc()
}

// RecordRule records one rule execution.
func (c *Collector) RecordRule(rule string, passed bool, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	c.rulesTotal.WithLabelValues(rule, outcome).Inc()
	c.ruleDuration.WithLabelValues(rule).Observe(duration.Seconds())
}

// RecordValidator records one validator execution.
func (c *Collector) RecordValidator(validator string, valid bool) {
	if !c.config.Enabled {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	c.validatorsTotal.WithLabelValues(validator, outcome).Inc()
}

// RecordCacheHit records a result cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.config.Enabled {
		return
	}
	c.cacheHitsTotal.Inc()
}

// RecordCacheMiss records a result cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.config.Enabled {
		return
	}
	c.cacheMissesTotal.Inc()
}
