// Package kafka publishes session lifecycle events to a Kafka topic using
// segmentio/kafka-go. Plug a [Sink] into goSession.Builder.WithEventSink.
package kafka
