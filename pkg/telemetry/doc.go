// Package telemetry groups the observability surfaces of Callisto.
//
//   - logging: structured slog logger construction
//   - metrics: Prometheus metric collection, fed by pipeline events
//   - tracing: OpenTelemetry spans per validation run
//
// Metrics and tracing attach to a pipeline by subscribing listeners to its
// event emitter; the pipeline itself has no telemetry dependencies.
package telemetry
