// Package events provides the lifecycle event surface of the validation
// pipeline. External collaborators (metrics, tracing, telemetry) observe
// pipeline execution by subscribing listeners to an Emitter.
//
// Emission is isolated per listener: a panicking listener is recovered and
// logged, and delivery to the remaining listeners proceeds unaffected.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chemlab-hq/callisto/pkg/validation"
)

// Type identifies a lifecycle event.
type Type string

const (
	// ValidationStarted is emitted when a Validate call begins.
	ValidationStarted Type = "validation:started"

	// ValidationCompleted is emitted when a Validate call returns.
	ValidationCompleted Type = "validation:completed"

	// ValidationError is emitted when a Validate call produced an invalid
	// result or an internal failure.
	ValidationError Type = "validation:error"

	// ValidatorExecuted is emitted after each validator finishes.
	ValidatorExecuted Type = "validator:executed"

	// RuleExecuted is emitted after each rule finishes.
	RuleExecuted Type = "rule:executed"

	// CacheHit is emitted when a cacheable operation was served from cache.
	CacheHit Type = "cache:hit"

	// CacheMiss is emitted when a cacheable operation had to execute.
	CacheMiss Type = "cache:miss"

	// PerformanceThreshold is emitted when a monitored metric crossed its
	// configured threshold.
	PerformanceThreshold Type = "performance:threshold"
)

// Event is one lifecycle notification. Only the fields relevant to the
// event type are populated.
type Event struct {
	// Type identifies the event.
	Type Type

	// RunID identifies the Validate invocation the event belongs to.
	RunID uuid.UUID

	// Time is when the event was emitted.
	Time time.Time

	// Target is the value under validation (ValidationStarted).
	Target any

	// Validators lists the selected validator names (ValidationStarted).
	Validators []string

	// Validator is the validator name (ValidatorExecuted).
	Validator string

	// Rule is the rule name (RuleExecuted).
	Rule string

	// Result is the aggregate outcome (ValidationCompleted,
	// ValidatorExecuted).
	Result *validation.Result

	// RuleResult is the rule outcome (RuleExecuted).
	RuleResult *validation.RuleResult

	// Key is the cache key (CacheHit, CacheMiss).
	Key string

	// Err is the failure (ValidationError).
	Err error

	// Metric, Value, and Threshold describe a crossed performance
	// threshold (PerformanceThreshold).
	Metric    string
	Value     float64
	Threshold float64
}

// Listener receives events. Listeners must not block; slow listeners delay
// the validation run that emits the event.
type Listener func(Event)

type subscription struct {
	id       int
	types    map[Type]bool // nil means all types
	listener Listener
}

// Emitter is the listener registry. The zero value is not usable; create
// one with NewEmitter.
type Emitter struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID int
	logger *slog.Logger
}

// NewEmitter creates an emitter. A nil logger falls back to slog.Default.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		logger: logger.With("component", "events"),
	}
}

// Subscribe registers a listener for the given event types and returns a
// subscription ID for Unsubscribe. With no types the listener receives
// every event.
func (e *Emitter) Subscribe(listener Listener, types ...Type) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &subscription{
		id:       e.nextID,
		listener: listener,
	}
	if len(types) > 0 {
		sub.types = make(map[Type]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	e.nextID++
	e.subs = append(e.subs, sub)
	return sub.id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (e *Emitter) Unsubscribe(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subs {
		if sub.id == id {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the event to every matching listener synchronously. A
// panicking listener is recovered and logged; the remaining listeners
// still receive the event.
func (e *Emitter) Emit(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	e.mu.RLock()
	subs := make([]*subscription, len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, sub := range subs {
		if sub.types != nil && !sub.types[event.Type] {
			continue
		}
		e.deliver(sub, event)
	}
}

func (e *Emitter) deliver(sub *subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("event listener panicked",
				"event", string(event.Type),
				"subscription", sub.id,
				"panic", r,
			)
		}
	}()
	sub.listener(event)
}
