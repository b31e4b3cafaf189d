// Package trace configures the OpenTelemetry tracer provider. Spans are
// exported over OTLP/gRPC when an endpoint is configured and recorded
// in-process otherwise.
package trace
