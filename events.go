package goSession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventType names a session lifecycle notification.
type EventType string

const (
	// EventSessionCreated is emitted after CreateSession persisted a session.
	EventSessionCreated EventType = "session:created"
	// EventSessionRefreshed is emitted after a successful RefreshTokens.
	EventSessionRefreshed EventType = "session:refreshed"
	// EventSessionRevoked is emitted when RevokeSession removed a session.
	EventSessionRevoked EventType = "session:revoked"
	// EventFamilyRevoked is emitted when a token family is newly tombstoned.
	EventFamilyRevoked EventType = "token-family:revoked"
	// EventRefreshFailed is emitted for every rejected RefreshTokens call.
	EventRefreshFailed EventType = "session:refresh-failed"
)

// Event is one lifecycle notification. Error carries an internal reason code
// such as "reuse_detected" that callers of the engine never see.
type Event struct {
	Timestamp   time.Time         `json:"timestamp"`
	Type        EventType         `json:"type"`
	UserID      string            `json:"user_id,omitempty"`
	SessionID   string            `json:"session_id,omitempty"`
	TokenFamily string            `json:"token_family,omitempty"`
	Version     uint32            `json:"version,omitempty"`
	Error       string            `json:"error,omitempty"`
	IP          string            `json:"ip,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events from the dispatcher goroutine. Implementations
// should return quickly; a slow sink only delays later events.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

// Emit implements EventSink.
func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel, mostly for tests.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink with the given buffer (at least 1).
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Emit implements EventSink.
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink wraps w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements EventSink.
func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LoggerSink writes events as structured zap entries. Failures log at Warn,
// everything else at Info.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink wraps logger; a nil logger discards.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger.Named("events")}
}

// Emit implements EventSink.
func (s *LoggerSink) Emit(_ context.Context, event Event) {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.SessionID != "" {
		fields = append(fields, zap.String("session_id", event.SessionID))
	}
	if event.TokenFamily != "" {
		fields = append(fields, zap.String("token_family", event.TokenFamily))
	}
	if event.Version > 0 {
		fields = append(fields, zap.Uint32("version", event.Version))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", event.Metadata))
	}

	if event.Error != "" || event.Type == EventFamilyRevoked {
		fields = append(fields, zap.String("error", event.Error))
		s.logger.Warn("session event", fields...)
		return
	}
	s.logger.Info("session event", fields...)
}

// MultiSink fans every event out to each sink in order.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
