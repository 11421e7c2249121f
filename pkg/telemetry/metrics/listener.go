package metrics

import (
	"chemlab-hq/callisto/pkg/events"
)

// Listener returns an event listener that records pipeline activity on the
// collector. Subscribe it to a pipeline's emitter:
//
//	pipeline.Events().Subscribe(collector.Listener())
func (c *Collector) Listener() events.Listener {
	return func(e events.Event) {
		switch e.Type {
		case events.ValidationCompleted:
			if e.Result == nil {
				return
			}
			c.RecordRun(e.Result.Valid, e.Result.Metrics.Duration)
			for _, finding := range e.Result.Errors {
				c.RecordFinding(finding.Severity.String())
			}
			for _, finding := range e.Result.Warnings {
				c.RecordFinding(finding.Severity.String())
			}

		case events.RuleExecuted:
			if e.RuleResult == nil {
				return
			}
			c.RecordRule(e.Rule, e.RuleResult.Passed, e.RuleResult.Duration)

		case events.ValidatorExecuted:
			valid := e.Result == nil || e.Result.Valid
			c.RecordValidator(e.Validator, valid)

		case events.CacheHit:
			c.RecordCacheHit()

		case events.CacheMiss:
			c.RecordCacheMiss()
		}
	}
}
