package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

// ErrNoBrokers is returned by NewSink without brokers or topic.
var ErrNoBrokers = errors.New("kafka: brokers and topic required")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config configures the Kafka event sink.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	BatchTimeout time.Duration
}

// Sink publishes lifecycle events as JSON, keyed by token family so every
// event of one family lands on the same partition in order.
type Sink struct {
	writer  messageWriter
	timeout time.Duration
	logger  *zap.Logger
}

var _ goSession.EventSink = (*Sink)(nil)

// NewSink creates a sink writing to cfg.Topic. Call Close when shutting down.
func NewSink(cfg Config, logger *zap.Logger) (*Sink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, ErrNoBrokers
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
	}
	return newSink(writer, cfg.WriteTimeout, logger), nil
}

func newSink(w messageWriter, timeout time.Duration, logger *zap.Logger) *Sink {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{writer: w, timeout: timeout, logger: logger.Named("kafka_sink")}
}

// Emit implements goSession.EventSink. Failures are logged and dropped.
func (s *Sink) Emit(ctx context.Context, event goSession.Event) {
	if s == nil || s.writer == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("encode event failed", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	var key []byte
	if event.TokenFamily != "" {
		key = []byte(event.TokenFamily)
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err = s.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   key,
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		s.logger.Warn("kafka emit failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

// Close closes the writer. Safe to call multiple times.
func (s *Sink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
