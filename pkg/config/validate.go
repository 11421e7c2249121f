package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// ErrInvalidConfig is the sentinel wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration for consistency. It returns an error
// wrapping ErrInvalidConfig describing the first problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrInvalidConfig)
	}
	if err := ValidatePipeline(&cfg.Pipeline); err != nil {
		return err
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, cfg.Logging.Format)
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.ServiceName == "" {
			return fmt.Errorf("%w: tracing enabled without service name", ErrInvalidConfig)
		}
		if cfg.Tracing.Endpoint == "" {
			return fmt.Errorf("%w: tracing enabled without endpoint", ErrInvalidConfig)
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			return fmt.Errorf("%w: unknown sampler %q", ErrInvalidConfig, cfg.Tracing.Sampler)
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			return fmt.Errorf("%w: sample ratio %v outside [0, 1]", ErrInvalidConfig, cfg.Tracing.SampleRatio)
		}
	}

	return nil
}

// ValidatePipeline checks just the pipeline section.
func ValidatePipeline(cfg *PipelineConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: pipeline configuration is nil", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if cfg.EnableCaching {
		if cfg.CacheTTL <= 0 {
			return fmt.Errorf("%w: cache TTL must be positive when caching is enabled", ErrInvalidConfig)
		}
		if cfg.MaxCacheSize <= 0 {
			return fmt.Errorf("%w: max cache size must be positive when caching is enabled", ErrInvalidConfig)
		}
	}
	if cfg.CacheSweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.CacheSweepSchedule); err != nil {
			return fmt.Errorf("%w: invalid cache sweep schedule %q: %v", ErrInvalidConfig, cfg.CacheSweepSchedule, err)
		}
	}
	if cfg.Parallel.Enabled && cfg.Parallel.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max concurrency must be positive when parallel execution is enabled", ErrInvalidConfig)
	}
	if cfg.Monitoring.SampleRate < 0 || cfg.Monitoring.SampleRate > 1 {
		return fmt.Errorf("%w: monitoring sample rate %v outside [0, 1]", ErrInvalidConfig, cfg.Monitoring.SampleRate)
	}
	return nil
}
