package config

import "time"

// Default values applied before file and environment overrides.
const (
	DefaultTimeout          = 5 * time.Second
	DefaultEnableCaching    = true
	DefaultCacheTTL         = 5 * time.Minute
	DefaultMaxCacheSize     = 1000
	DefaultContinueOnError  = true
	DefaultParallelEnabled  = true
	DefaultMaxConcurrency   = 4
	DefaultSampleRate       = 1.0
	DefaultSlowRunThreshold = time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "callisto"
	DefaultMetricsSubsystem = "pipeline"

	DefaultTracingServiceName = "callisto"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
)

// DefaultConfig returns a fully populated configuration. Loading
// unmarshals the YAML file over this value, so fields absent from the
// file keep their defaults (including booleans, whose zero value is
// indistinguishable from an explicit false after unmarshalling).
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Timeout:         DefaultTimeout,
			EnableCaching:   DefaultEnableCaching,
			CacheTTL:        DefaultCacheTTL,
			MaxCacheSize:    DefaultMaxCacheSize,
			ContinueOnError: DefaultContinueOnError,
			Parallel: ParallelConfig{
				Enabled:        DefaultParallelEnabled,
				MaxConcurrency: DefaultMaxConcurrency,
			},
			Monitoring: MonitoringConfig{
				Enabled:          false,
				SampleRate:       DefaultSampleRate,
				SlowRunThreshold: DefaultSlowRunThreshold,
			},
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultMetricsNamespace,
			Subsystem: DefaultMetricsSubsystem,
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: DefaultTracingServiceName,
			Endpoint:    DefaultTracingEndpoint,
			Insecure:    true,
			Sampler:     DefaultTracingSampler,
			SampleRatio: DefaultTracingSampleRatio,
		},
	}
}

// DefaultPipelineConfig returns just the pipeline section defaults, for
// callers embedding the pipeline without the full configuration stack.
func DefaultPipelineConfig() PipelineConfig {
	return DefaultConfig().Pipeline
}
