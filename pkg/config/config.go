package config

import "time"

// Config is the top-level Callisto configuration.
type Config struct {
	// Pipeline configures the validation pipeline itself.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus metrics surface.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// PipelineConfig configures a ValidationPipeline.
type PipelineConfig struct {
	// Timeout bounds one validator or rule execution when the component
	// does not specify its own.
	Timeout time.Duration `yaml:"timeout"`

	// EnableCaching turns the result cache on.
	EnableCaching bool `yaml:"enable_caching"`

	// CacheTTL is how long cached results are served.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// MaxCacheSize bounds the number of cached results; least-recently-used
	// entries are evicted beyond it.
	MaxCacheSize int `yaml:"max_cache_size"`

	// CacheSweepSchedule is an optional cron expression for background
	// sweeps of expired cache entries. Empty disables the janitor.
	CacheSweepSchedule string `yaml:"cache_sweep_schedule"`

	// ContinueOnError keeps executing after the first Error or Critical
	// finding. When false, the engine stops scheduling further work and
	// returns the partial aggregate.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Parallel configures intra-run concurrency.
	Parallel ParallelConfig `yaml:"parallel"`

	// Monitoring configures performance threshold events.
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ParallelConfig configures concurrent execution of independent
// validators and same-level rules.
type ParallelConfig struct {
	// Enabled turns concurrent execution on. When false, execution is
	// strictly sequential in priority order.
	Enabled bool `yaml:"enabled"`

	// MaxConcurrency bounds in-flight executions. The same budget is
	// shared across a whole ValidateBatch call.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// MonitoringConfig configures performance threshold observation.
type MonitoringConfig struct {
	// Enabled turns performance:threshold events on.
	Enabled bool `yaml:"enabled"`

	// SampleRate is the fraction of runs to observe, in [0, 1].
	SampleRate float64 `yaml:"sample_rate"`

	// SlowRunThreshold is the run duration beyond which a
	// performance:threshold event fires.
	SlowRunThreshold time.Duration `yaml:"slow_run_threshold"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus metrics surface.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets for run and rule
	// durations, in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns span export on. When false a noop tracer is used.
	Enabled bool `yaml:"enabled"`

	// ServiceName identifies this process in traces.
	ServiceName string `yaml:"service_name"`

	// Endpoint is the OTLP/gRPC collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Sampler selects the sampling strategy: always, never, or ratio.
	Sampler string `yaml:"sampler"`

	// SampleRatio is the sampling probability for the ratio sampler.
	SampleRatio float64 `yaml:"sample_ratio"`
}
