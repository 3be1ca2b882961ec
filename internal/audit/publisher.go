// Package audit publishes transfer lifecycle events for downstream
// consumers.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Sink delivers a serialized event keyed for per-request ordering. The
// Kafka producer satisfies this; tests swap in a capture.
type Sink interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Publisher emits events with fail-open semantics: a transfer must never
// abort because the event stream is down, so sink failures are logged and
// swallowed. Use the request ledger, not this stream, for compliance
// queries.
type Publisher struct {
	sink   Sink
	logger *slog.Logger
}

// NewPublisher creates a publisher. A nil sink degrades to log-only mode.
func NewPublisher(sink Sink, logger *slog.Logger) *Publisher {
	return &Publisher{sink: sink, logger: logger}
}

// Emit publishes one event, keyed by request id.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "audit event marshal failed",
			"action", string(event.Action),
			"request_id", event.RequestID.String(),
			"error", err,
		)
		return
	}

	if p.sink == nil {
		p.logger.InfoContext(ctx, "audit event",
			"action", string(event.Action),
			"request_id", event.RequestID.String(),
			"source", event.SourceBarangay.String(),
			"destination", event.DestinationBarangay.String(),
			"datatype", event.DataType,
			"item_count", event.ItemCount,
		)
		return
	}

	if err := p.sink.Publish(ctx, event.RequestID.String(), payload); err != nil {
		p.logger.ErrorContext(ctx, "audit event publish failed",
			"action", string(event.Action),
			"request_id", event.RequestID.String(),
			"error", err,
		)
	}
}
