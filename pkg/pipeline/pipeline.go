package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"chemlab-hq/callisto/pkg/cache"
	"chemlab-hq/callisto/pkg/config"
	"chemlab-hq/callisto/pkg/events"
	"chemlab-hq/callisto/pkg/graph"
	"chemlab-hq/callisto/pkg/validation"
)

// Pipeline is the public façade of the validation engine. It owns its own
// registries, result cache, event emitter, and clock; nothing about it is
// process-global, so independent pipelines can coexist in one process.
type Pipeline struct {
	mu  sync.RWMutex
	cfg config.PipelineConfig

	validators     map[string]validation.Validator
	validatorGraph *graph.Resolver

	rules     map[string]validation.Rule
	ruleGraph *graph.Resolver

	cache   *cache.Cache
	emitter *events.Emitter
	logger  *slog.Logger
	now     func() time.Time
	sem     *semaphore

	runs atomic.Int64
}

// Option customizes a Pipeline at construction time.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithEmitter sets the event emitter external observers subscribe to.
func WithEmitter(emitter *events.Emitter) Option {
	return func(p *Pipeline) { p.emitter = emitter }
}

// WithClock replaces the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline with the given configuration.
func New(cfg config.PipelineConfig, opts ...Option) (*Pipeline, error) {
	if err := config.ValidatePipeline(&cfg); err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:            cfg,
		validators:     make(map[string]validation.Validator),
		validatorGraph: graph.NewResolver(),
		rules:          make(map[string]validation.Rule),
		ruleGraph:      graph.NewResolver(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "pipeline")
	if p.emitter == nil {
		p.emitter = events.NewEmitter(p.logger)
	}

	p.cache = cache.New(cache.Config{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.MaxCacheSize,
	})
	p.cache.SetClock(func() time.Time { return p.now() })

	if cfg.Parallel.Enabled {
		p.sem = newSemaphore(cfg.Parallel.MaxConcurrency)
	}

	return p, nil
}

// Events returns the emitter external observers subscribe to.
func (p *Pipeline) Events() *events.Emitter {
	return p.emitter
}

// AddValidator registers a validator. Registration fails with a
// *validation.ConfigurationError for an empty or duplicate name or a
// dependency cycle; the registry is left unchanged on failure.
func (p *Pipeline) AddValidator(v validation.Validator) error {
	if v == nil || v.Name() == "" {
		return &validation.ConfigurationError{
			Component: "",
			Reason:    "validator must have a name",
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.validatorGraph.Add(v.Name(), v.Dependencies(), v.Config().Priority); err != nil {
		return err
	}
	p.validators[v.Name()] = v

	p.logger.Debug("validator registered",
		"validator", v.Name(),
		"dependencies", v.Dependencies(),
	)
	return nil
}

// RemoveValidator unregisters a validator. Unknown names are a no-op.
func (p *Pipeline) RemoveValidator(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.validators, name)
	p.validatorGraph.Remove(name)
}

// GetValidator returns the named validator.
func (p *Pipeline) GetValidator(name string) (validation.Validator, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.validators[name]
	return v, ok
}

// Validators returns every registered validator in registration order.
func (p *Pipeline) Validators() []validation.Validator {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]validation.Validator, 0, len(p.validators))
	for _, name := range p.validatorGraph.Names() {
		out = append(out, p.validators[name])
	}
	return out
}

// AddRule registers a rule. Registration fails with a
// *validation.ConfigurationError for an empty or duplicate name or a
// dependency cycle; the registry is left unchanged on failure.
func (p *Pipeline) AddRule(r validation.Rule) error {
	if r == nil || r.Name() == "" {
		return &validation.ConfigurationError{
			Component: "",
			Reason:    "rule must have a name",
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ruleGraph.Add(r.Name(), r.Dependencies(), r.Priority()); err != nil {
		return err
	}
	p.rules[r.Name()] = r

	p.logger.Debug("rule registered",
		"rule", r.Name(),
		"dependencies", r.Dependencies(),
		"priority", r.Priority(),
	)
	return nil
}

// RemoveRule unregisters a rule. Unknown names are a no-op.
func (p *Pipeline) RemoveRule(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rules, name)
	p.ruleGraph.Remove(name)
}

// GetRule returns the named rule.
func (p *Pipeline) GetRule(name string) (validation.Rule, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.rules[name]
	return r, ok
}

// Rules returns every registered rule in registration order.
func (p *Pipeline) Rules() []validation.Rule {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]validation.Rule, 0, len(p.rules))
	for _, name := range p.ruleGraph.Names() {
		out = append(out, p.rules[name])
	}
	return out
}

// RuleLevels returns the registered rule names grouped into dependency
// levels, in execution order.
func (p *Pipeline) RuleLevels() [][]string {
	return p.ruleGraph.Levels()
}

// Stats is a point-in-time snapshot of pipeline state.
type Stats struct {
	// Validators and Rules are the registry sizes.
	Validators int
	Rules      int

	// Runs counts completed Validate invocations.
	Runs int64

	// CacheSize is the current number of cached results.
	CacheSize int

	// CacheHits, CacheMisses, and CacheEvictions are lifetime counters.
	CacheHits      int64
	CacheMisses    int64
	CacheEvictions int64

	// CacheHitRate is hits / (hits + misses).
	CacheHitRate float64
}

// GetStats returns a snapshot of registry sizes, run counters, and cache
// effectiveness.
func (p *Pipeline) GetStats() Stats {
	p.mu.RLock()
	validators := len(p.validators)
	rules := len(p.rules)
	p.mu.RUnlock()

	cs := p.cacheRef().Stats()
	return Stats{
		Validators:     validators,
		Rules:          rules,
		Runs:           p.runs.Load(),
		CacheSize:      cs.Size,
		CacheHits:      cs.Hits,
		CacheMisses:    cs.Misses,
		CacheEvictions: cs.Evictions,
		CacheHitRate:   cs.HitRate(),
	}
}

// ClearCache drops every cached result.
func (p *Pipeline) ClearCache() {
	p.cacheRef().Clear()
}

// Cache exposes the result cache, e.g. for wiring a cache.Janitor.
func (p *Pipeline) Cache() *cache.Cache {
	return p.cacheRef()
}

// cacheRef reads the cache pointer under the lock; UpdateConfig may
// replace the cache.
func (p *Pipeline) cacheRef() *cache.Cache {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cache
}

// Config returns the active configuration.
func (p *Pipeline) Config() config.PipelineConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// UpdateConfig atomically replaces the configuration. In-flight runs keep
// the configuration they started with. Changing cache TTL or size replaces
// the cache, dropping existing entries.
func (p *Pipeline) UpdateConfig(cfg config.PipelineConfig) error {
	if err := config.ValidatePipeline(&cfg); err != nil {
		return fmt.Errorf("rejecting configuration update: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.CacheTTL != p.cfg.CacheTTL || cfg.MaxCacheSize != p.cfg.MaxCacheSize {
		p.cache = cache.New(cache.Config{
			TTL:        cfg.CacheTTL,
			MaxEntries: cfg.MaxCacheSize,
		})
		p.cache.SetClock(func() time.Time { return p.now() })
	}
	if cfg.Parallel != p.cfg.Parallel {
		p.sem = nil
		if cfg.Parallel.Enabled {
			p.sem = newSemaphore(cfg.Parallel.MaxConcurrency)
		}
	}
	p.cfg = cfg

	p.logger.Info("pipeline configuration updated")
	return nil
}
