package tracing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chemlab-hq/callisto/pkg/events"
)

// runSpans tracks the open span per validation run.
type runSpans struct {
	mu    sync.Mutex
	spans map[uuid.UUID]trace.Span
}

// Listener returns an event listener that opens one span per validation
// run, annotates it with validator and rule executions, and closes it when
// the run completes. Subscribe it to a pipeline's emitter:
//
//	pipeline.Events().Subscribe(tracer.Listener())
func (t *Tracer) Listener() events.Listener {
	rs := &runSpans{spans: make(map[uuid.UUID]trace.Span)}

	return func(e events.Event) {
		switch e.Type {
		case events.ValidationStarted:
			_, span := t.Start(context.Background(), "validation.run",
				trace.WithAttributes(
					attribute.String("run.id", e.RunID.String()),
					attribute.Int("run.validators", len(e.Validators)),
				),
			)
			rs.put(e.RunID, span)

		case events.ValidatorExecuted:
			if span, ok := rs.get(e.RunID); ok {
				valid := e.Result == nil || e.Result.Valid
				span.AddEvent("validator.executed", trace.WithAttributes(
					attribute.String("validator", e.Validator),
					attribute.Bool("valid", valid),
				))
			}

		case events.RuleExecuted:
			if span, ok := rs.get(e.RunID); ok {
				passed := e.RuleResult == nil || e.RuleResult.Passed
				span.AddEvent("rule.executed", trace.WithAttributes(
					attribute.String("rule", e.Rule),
					attribute.Bool("passed", passed),
				))
			}

		case events.CacheHit:
			if span, ok := rs.get(e.RunID); ok {
				span.AddEvent("cache.hit", trace.WithAttributes(
					attribute.String("key", e.Key),
				))
			}

		case events.ValidationError:
			if span, ok := rs.get(e.RunID); ok && e.Err != nil {
				span.RecordError(e.Err)
			}

		case events.ValidationCompleted:
			span, ok := rs.take(e.RunID)
			if !ok {
				return
			}
			if e.Result != nil {
				span.SetAttributes(
					attribute.Bool("run.valid", e.Result.Valid),
					attribute.Int("run.errors", len(e.Result.Errors)),
					attribute.Int("run.warnings", len(e.Result.Warnings)),
					attribute.Int("run.rules_executed", e.Result.Metrics.RulesExecuted),
				)
				if !e.Result.Valid {
					span.SetStatus(codes.Error, "validation failed")
				} else {
					span.SetStatus(codes.Ok, "")
				}
			}
			span.End()
		}
	}
}

func (rs *runSpans) put(id uuid.UUID, span trace.Span) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.spans[id] = span
}

func (rs *runSpans) get(id uuid.UUID) (trace.Span, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	span, ok := rs.spans[id]
	return span, ok
}

func (rs *runSpans) take(id uuid.UUID) (trace.Span, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	span, ok := rs.spans[id]
	if ok {
		delete(rs.spans, id)
	}
	return span, ok
}
