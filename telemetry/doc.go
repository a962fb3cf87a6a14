// Package telemetry holds the Prometheus metrics and OpenTelemetry spans
// emitted by the engine.
//
// Metrics are grouped in a Metrics value bound to one prometheus.Registerer.
// Default registers on the global registry once; tests and embedders pass
// their own registry to NewMetrics. A nil *Metrics records nothing.
//
// Spans come from the global otel TracerProvider, which is a no-op until
// the host installs one.
package telemetry
