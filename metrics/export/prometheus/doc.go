// Package prometheus adapts engine metrics to the Prometheus client library.
//
// Register [Collector] on an existing registry, or mount [Handler] when the
// service has no registry of its own.
package prometheus
