package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file. Fields absent from the file
// keep the DefaultConfig values. The result is validated before being
// returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the convention
// CALLISTO_SECTION_FIELD (e.g. CALLISTO_PIPELINE_TIMEOUT) and always take
// precedence over file values.
func LoadWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envDuration("CALLISTO_PIPELINE_TIMEOUT", &cfg.Pipeline.Timeout)
	envBool("CALLISTO_PIPELINE_ENABLE_CACHING", &cfg.Pipeline.EnableCaching)
	envDuration("CALLISTO_PIPELINE_CACHE_TTL", &cfg.Pipeline.CacheTTL)
	envInt("CALLISTO_PIPELINE_MAX_CACHE_SIZE", &cfg.Pipeline.MaxCacheSize)
	envString("CALLISTO_PIPELINE_CACHE_SWEEP_SCHEDULE", &cfg.Pipeline.CacheSweepSchedule)
	envBool("CALLISTO_PIPELINE_CONTINUE_ON_ERROR", &cfg.Pipeline.ContinueOnError)
	envBool("CALLISTO_PIPELINE_PARALLEL_ENABLED", &cfg.Pipeline.Parallel.Enabled)
	envInt("CALLISTO_PIPELINE_MAX_CONCURRENCY", &cfg.Pipeline.Parallel.MaxConcurrency)
	envBool("CALLISTO_PIPELINE_MONITORING_ENABLED", &cfg.Pipeline.Monitoring.Enabled)
	envFloat("CALLISTO_PIPELINE_MONITORING_SAMPLE_RATE", &cfg.Pipeline.Monitoring.SampleRate)

	envString("CALLISTO_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("CALLISTO_LOGGING_FORMAT", &cfg.Logging.Format)
	envBool("CALLISTO_LOGGING_ADD_SOURCE", &cfg.Logging.AddSource)

	envBool("CALLISTO_METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("CALLISTO_METRICS_NAMESPACE", &cfg.Metrics.Namespace)
	envString("CALLISTO_METRICS_SUBSYSTEM", &cfg.Metrics.Subsystem)

	envBool("CALLISTO_TRACING_ENABLED", &cfg.Tracing.Enabled)
	envString("CALLISTO_TRACING_SERVICE_NAME", &cfg.Tracing.ServiceName)
	envString("CALLISTO_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	envBool("CALLISTO_TRACING_INSECURE", &cfg.Tracing.Insecure)
	envString("CALLISTO_TRACING_SAMPLER", &cfg.Tracing.Sampler)
	envFloat("CALLISTO_TRACING_SAMPLE_RATIO", &cfg.Tracing.SampleRatio)
}

func envString(name string, target *string) {
	if v, ok := os.LookupEnv(name); ok {
		*target = v
	}
}

func envBool(name string, target *bool) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*target = parsed
		}
	}
}

func envInt(name string, target *int) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func envFloat(name string, target *float64) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*target = parsed
		}
	}
}

func envDuration(name string, target *time.Duration) {
	if v, ok := os.LookupEnv(name); ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			*target = parsed
		}
	}
}
