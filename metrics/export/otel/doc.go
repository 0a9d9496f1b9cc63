// Package otel binds engine metrics to OpenTelemetry observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per histogram bucket. A single callback reads
// [goSession.Engine.MetricsSnapshot] on each collection cycle. Callers own the
// MeterProvider.
package otel
