package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"chemlab-hq/callisto/pkg/cache"
	"chemlab-hq/callisto/pkg/config"
	"chemlab-hq/callisto/pkg/events"
	"chemlab-hq/callisto/pkg/validation"
)

// run carries the mutable state of one Validate invocation. The engine
// goroutines synchronize on mu when folding outcomes into the aggregate.
type run struct {
	cfg    config.PipelineConfig
	vctx   *validation.Context
	cache  *cache.Cache
	sem    *semaphore
	start  time.Time
	target any

	hits   atomic.Int64
	misses atomic.Int64

	mu        sync.Mutex
	aggregate *validation.Result
	cached    int  // outcomes served from the result cache
	executed  int  // outcomes produced by a fresh execution
	stopped   bool // continueOnError=false saw a blocking finding
	internal  bool // a timeout or execution failure was converted
}

func (r *run) halted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Validate runs the applicable validators and every applicable rule over
// value and returns the aggregate result.
//
// When validatorNames is non-empty, exactly those validators are selected;
// an unknown name fails with a *validation.ConfigurationError. Otherwise
// every enabled validator whose CanValidate accepts the value runs.
//
// Domain failures never surface as Go errors: the returned error is
// non-nil only for unknown explicit validator names or context
// cancellation. On cancellation the partial aggregate is still returned.
func (p *Pipeline) Validate(ctx context.Context, value any, validatorNames ...string) (*validation.Result, error) {
	p.mu.RLock()
	cfg := p.cfg
	runCache := p.cache
	sem := p.sem
	p.mu.RUnlock()

	vctx := validation.NewContext(value)
	r := &run{
		cfg:       cfg,
		vctx:      vctx,
		cache:     runCache,
		sem:       sem,
		start:     p.now(),
		target:    value,
		aggregate: validation.NewResult(),
	}

	selected, err := p.selectValidators(value, validatorNames)
	if err != nil {
		return nil, err
	}

	p.emitter.Emit(events.Event{
		Type:       events.ValidationStarted,
		RunID:      vctx.RunID,
		Target:     value,
		Validators: names(selected),
	})

	execErr := p.executeValidators(ctx, r, selected)
	if execErr == nil && !r.halted() {
		execErr = p.executeRules(ctx, r)
	}

	result := p.finishRun(r)

	if execErr != nil {
		p.emitter.Emit(events.Event{
			Type:  events.ValidationError,
			RunID: vctx.RunID,
			Err:   execErr,
		})
		return result, execErr
	}
	return result, nil
}

// ValidateBatch maps Validate over values. Items are dispatched
// concurrently when parallel execution is enabled, but every validator and
// rule execution across the whole batch draws from the same concurrency
// budget. Results are returned in input order.
func (p *Pipeline) ValidateBatch(ctx context.Context, values []any, validatorNames ...string) ([]*validation.Result, error) {
	results := make([]*validation.Result, len(values))
	errs := make([]error, len(values))

	p.mu.RLock()
	parallel := p.cfg.Parallel.Enabled
	p.mu.RUnlock()

	if !parallel {
		for i, value := range values {
			results[i], errs[i] = p.Validate(ctx, value, validatorNames...)
		}
	} else {
		var wg sync.WaitGroup
		for i, value := range values {
			wg.Add(1)
			go func(i int, value any) {
				defer wg.Done()
				results[i], errs[i] = p.Validate(ctx, value, validatorNames...)
			}(i, value)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// selectValidators resolves the validators participating in one run:
// explicitly named ones, or every enabled validator accepting the value.
func (p *Pipeline) selectValidators(value any, explicit []string) ([]validation.Validator, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(explicit) > 0 {
		out := make([]validation.Validator, 0, len(explicit))
		for _, name := range explicit {
			v, ok := p.validators[name]
			if !ok {
				return nil, &validation.ConfigurationError{
					Component: name,
					Reason:    "validator not registered",
					Cause:     validation.ErrUnknownName,
				}
			}
			out = append(out, v)
		}
		return out, nil
	}

	var out []validation.Validator
	for _, name := range p.validatorGraph.Names() {
		v := p.validators[name]
		if !v.Config().Enabled {
			continue
		}
		if !safeCanValidate(v, value) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// executeValidators runs the selected validators level by level. Within a
// level validators are independent, so they may run concurrently when
// parallel execution is enabled; levels themselves are strictly ordered.
func (p *Pipeline) executeValidators(ctx context.Context, r *run, selected []validation.Validator) error {
	if len(selected) == 0 {
		return nil
	}

	byName := make(map[string]validation.Validator, len(selected))
	for _, v := range selected {
		byName[v.Name()] = v
	}

	for _, level := range p.validatorGraph.Levels() {
		var members []validation.Validator
		for _, name := range level {
			if v, ok := byName[name]; ok {
				members = append(members, v)
			}
		}
		if len(members) == 0 {
			continue
		}
		if err := p.runLevel(ctx, r, len(members), func(i int) {
			p.runValidator(ctx, r, members[i])
		}); err != nil {
			return err
		}
		if r.halted() {
			return nil
		}
	}
	return nil
}

// executeRules runs every applicable registered rule in dependency-level
// order. All rules in a level may run concurrently; a rule starts only
// once every rule it depends on has completed, pass or fail.
func (p *Pipeline) executeRules(ctx context.Context, r *run) error {
	p.mu.RLock()
	ruleByName := make(map[string]validation.Rule, len(p.rules))
	for name, rule := range p.rules {
		ruleByName[name] = rule
	}
	p.mu.RUnlock()

	for _, level := range p.ruleGraph.Levels() {
		var members []validation.Rule
		for _, name := range level {
			rule, ok := ruleByName[name]
			if !ok {
				continue
			}
			if !safeAppliesTo(rule, r.target) {
				continue
			}
			members = append(members, rule)
		}
		if len(members) == 0 {
			continue
		}
		if err := p.runLevel(ctx, r, len(members), func(i int) {
			p.runRule(ctx, r, members[i])
		}); err != nil {
			return err
		}
		if r.halted() {
			return nil
		}
	}
	return nil
}

// runLevel executes n members of one level, concurrently under the
// semaphore when parallel execution is enabled.
func (p *Pipeline) runLevel(ctx context.Context, r *run, n int, exec func(i int)) error {
	if !r.cfg.Parallel.Enabled {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.halted() {
				return nil
			}
			exec(i)
		}
		return nil
	}

	var wg sync.WaitGroup
	var ctxErr error
	var ctxErrMu sync.Mutex

	for i := 0; i < n; i++ {
		if r.halted() {
			break
		}
		if err := r.sem.acquire(ctx); err != nil {
			ctxErrMu.Lock()
			ctxErr = err
			ctxErrMu.Unlock()
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer r.sem.release()
			exec(i)
		}(i)
	}
	wg.Wait()

	ctxErrMu.Lock()
	defer ctxErrMu.Unlock()
	return ctxErr
}

// runValidator executes a single validator with cache lookup and timeout.
func (p *Pipeline) runValidator(ctx context.Context, r *run, v validation.Validator) {
	vcfg := v.Config()
	cacheable := vcfg.Cacheable && r.cfg.EnableCaching

	var key string
	if cacheable {
		key = cache.Key(v.Name(), r.target, vcfg.Options, schemaVersion(v))
		if cached, ok := r.cache.Get(key); ok {
			res := cached.(*validation.Result)
			r.hits.Add(1)
			p.emitter.Emit(events.Event{Type: events.CacheHit, RunID: r.vctx.RunID, Key: key})

			served := *res
			served.FromCache = true
			p.recordValidator(r, v, &served)
			return
		}
		r.misses.Add(1)
		p.emitter.Emit(events.Event{Type: events.CacheMiss, RunID: r.vctx.RunID, Key: key})
	}

	timeout := vcfg.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}

	vctx := r.vctx
	if len(vcfg.Options) > 0 {
		vctx = vctx.WithConfig(vcfg.Options)
	}

	started := p.now()
	res, timedOut := p.callValidator(ctx, v, timeout, r.target, vctx)
	res.Timestamp = p.now()
	res.Metrics.Duration = p.now().Sub(started)

	if cacheable && !timedOut {
		r.cache.Set(key, res)
	}

	p.recordValidator(r, v, res)
}

// callValidator races the validator body against its timeout, converting
// errors, panics, and timeouts into an invalid Result.
func (p *Pipeline) callValidator(ctx context.Context, v validation.Validator, timeout time.Duration, value any, vctx *validation.Context) (*validation.Result, bool) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res *validation.Result
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		res, err := v.Validate(opCtx, value, vctx)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			execErr := &validation.ExecutionError{Operation: v.Name(), Cause: out.err}
			p.logger.Warn("validator failed", "validator", v.Name(), "error", out.err)
			res := validation.NewResult()
			res.Add(&validation.Error{
				Code:     validation.CodeValidatorError,
				Message:  execErr.Error(),
				Severity: validation.SeverityError,
			})
			return res, false
		}
		if out.res == nil {
			return validation.NewResult(), false
		}
		return out.res, false

	case <-opCtx.Done():
		// Best-effort abandonment: the validator goroutine keeps running;
		// its late side effects are not retracted.
		toErr := &validation.TimeoutError{Operation: v.Name(), Timeout: timeout}
		p.logger.Warn("validator timed out", "validator", v.Name(), "timeout", timeout)
		res := validation.NewResult()
		res.Add(&validation.Error{
			Code:     validation.CodeTimeout,
			Message:  toErr.Error(),
			Severity: validation.SeverityError,
		})
		return res, true
	}
}

// recordValidator folds a validator outcome into the run aggregate and
// emits validator:executed.
func (p *Pipeline) recordValidator(r *run, v validation.Validator, res *validation.Result) {
	r.mu.Lock()
	r.aggregate.Merge(res)
	if res.FromCache {
		r.cached++
	} else {
		r.executed++
	}
	r.vctx.Metrics.ValidatorsUsed = append(r.vctx.Metrics.ValidatorsUsed, v.Name())
	for _, e := range res.Errors {
		if isInternalCode(e.Code) {
			r.internal = true
		}
		if e.Severity.Blocking() && !r.cfg.ContinueOnError {
			r.stopped = true
		}
	}
	r.mu.Unlock()

	p.emitter.Emit(events.Event{
		Type:      events.ValidatorExecuted,
		RunID:     r.vctx.RunID,
		Validator: v.Name(),
		Result:    res,
	})
}

// runRule executes a single rule with cache lookup and timeout.
func (p *Pipeline) runRule(ctx context.Context, r *run, rule validation.Rule) {
	cacheable := rule.Cacheable() && r.cfg.EnableCaching

	var key string
	if cacheable {
		key = cache.Key("rule:"+rule.Name(), r.target, nil, "")
		if cached, ok := r.cache.Get(key); ok {
			res := cached.(*validation.RuleResult)
			r.hits.Add(1)
			p.emitter.Emit(events.Event{Type: events.CacheHit, RunID: r.vctx.RunID, Key: key})

			served := *res
			served.Cached = true
			p.recordRule(r, rule, &served)
			return
		}
		r.misses.Add(1)
		p.emitter.Emit(events.Event{Type: events.CacheMiss, RunID: r.vctx.RunID, Key: key})
	}

	started := p.now()
	res, timedOut := p.callRule(ctx, rule, r.cfg.Timeout, r.target, r.vctx)
	res.Duration = p.now().Sub(started)

	if cacheable && !timedOut {
		r.cache.Set(key, res)
	}

	p.recordRule(r, rule, res)
}

// callRule races the rule body against the pipeline timeout, converting
// errors, panics, and timeouts into a failed RuleResult.
func (p *Pipeline) callRule(ctx context.Context, rule validation.Rule, timeout time.Duration, value any, vctx *validation.Context) (*validation.RuleResult, bool) {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res *validation.RuleResult
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		res, err := rule.Execute(opCtx, value, vctx)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			execErr := &validation.ExecutionError{Operation: rule.Name(), Cause: out.err}
			p.logger.Warn("rule failed", "rule", rule.Name(), "error", out.err)
			return validation.Fail(&validation.Error{
				Code:     validation.CodeExecutionError,
				Message:  execErr.Error(),
				Severity: validation.SeverityError,
			}), false
		}
		if out.res == nil {
			return validation.Pass(), false
		}
		return out.res, false

	case <-opCtx.Done():
		toErr := &validation.TimeoutError{Operation: rule.Name(), Timeout: timeout}
		p.logger.Warn("rule timed out", "rule", rule.Name(), "timeout", timeout)
		return validation.Fail(&validation.Error{
			Code:     validation.CodeTimeout,
			Message:  toErr.Error(),
			Severity: validation.SeverityError,
		}), true
	}
}

// recordRule folds a rule outcome into the run aggregate and emits
// rule:executed.
func (p *Pipeline) recordRule(r *run, rule validation.Rule, res *validation.RuleResult) {
	r.mu.Lock()
	r.vctx.Metrics.RulesExecuted++
	if res.Cached {
		r.cached++
	} else {
		r.executed++
	}
	if res.Err != nil {
		r.aggregate.Add(res.Err)
		if isInternalCode(res.Err.Code) {
			r.internal = true
		}
		if res.Err.Severity.Blocking() && !r.cfg.ContinueOnError {
			r.stopped = true
		}
	}
	r.mu.Unlock()

	p.emitter.Emit(events.Event{
		Type:       events.RuleExecuted,
		RunID:      r.vctx.RunID,
		Rule:       rule.Name(),
		RuleResult: res,
	})
}

// finishRun stamps metrics onto the aggregate, emits the terminal events,
// and bumps the run counter.
func (p *Pipeline) finishRun(r *run) *validation.Result {
	duration := p.now().Sub(r.start)

	r.mu.Lock()
	result := r.aggregate
	internal := r.internal
	// The aggregate is from the cache only when every participating
	// validator and rule outcome was served from it.
	result.FromCache = r.cached > 0 && r.executed == 0
	r.mu.Unlock()

	// Per-run cache stats come from this run's own lookups; the lifetime
	// counters live on the cache itself.
	hits, misses := r.hits.Load(), r.misses.Load()

	result.Metrics = *r.vctx.Metrics
	result.Metrics.Duration = duration
	result.Metrics.Cache = validation.CacheStats{
		Hits:   hits,
		Misses: misses,
	}
	if total := hits + misses; total > 0 {
		result.Metrics.Cache.HitRate = float64(hits) / float64(total)
	}
	result.Timestamp = p.now()

	p.runs.Add(1)

	if internal {
		p.emitter.Emit(events.Event{
			Type:  events.ValidationError,
			RunID: r.vctx.RunID,
			Err:   fmt.Errorf("run recorded internal execution failures"),
		})
	}

	p.maybeEmitThreshold(r, duration)

	p.emitter.Emit(events.Event{
		Type:   events.ValidationCompleted,
		RunID:  r.vctx.RunID,
		Result: result,
	})
	return result
}

// maybeEmitThreshold emits performance:threshold for slow runs, subject to
// the monitoring sample rate.
func (p *Pipeline) maybeEmitThreshold(r *run, duration time.Duration) {
	mon := r.cfg.Monitoring
	if !mon.Enabled || mon.SlowRunThreshold <= 0 {
		return
	}
	if duration < mon.SlowRunThreshold {
		return
	}
	if mon.SampleRate < 1 && rand.Float64() >= mon.SampleRate {
		return
	}
	p.emitter.Emit(events.Event{
		Type:      events.PerformanceThreshold,
		RunID:     r.vctx.RunID,
		Metric:    "validation_duration",
		Value:     duration.Seconds(),
		Threshold: mon.SlowRunThreshold.Seconds(),
	})
}

func names(vs []validation.Validator) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name()
	}
	return out
}

func schemaVersion(v validation.Validator) string {
	schema := safeSchema(v)
	if schema == nil {
		return ""
	}
	if version, ok := schema["version"].(string); ok {
		return version
	}
	return ""
}

func isInternalCode(code string) bool {
	switch code {
	case validation.CodeTimeout, validation.CodeExecutionError, validation.CodeValidatorError:
		return true
	}
	return false
}

// safeCanValidate guards the CanValidate predicate; a panic means the
// validator does not accept the value.
func safeCanValidate(v validation.Validator, value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return v.CanValidate(value)
}

// safeAppliesTo guards the AppliesTo predicate; a panic means the rule
// does not apply.
func safeAppliesTo(r validation.Rule, value any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return r.AppliesTo(value)
}

// safeSchema guards the Schema call.
func safeSchema(v validation.Validator) (schema map[string]any) {
	defer func() {
		if recover() != nil {
			schema = nil
		}
	}()
	return v.Schema()
}
