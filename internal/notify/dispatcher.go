// Package notify delivers best-effort SMS messages to residents. Delivery
// never blocks or fails a state transition: numbers that do not normalize
// are skipped and transport errors are logged by the callers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bayanihan/pkg/phone"
)

// Dispatcher sends one message to one normalized phone number.
type Dispatcher interface {
	Notify(ctx context.Context, rawPhone, message string) error
}

// LogDispatcher writes messages to the log instead of a carrier. It backs
// local runs and deployments without an SMS gateway.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(ctx context.Context, rawPhone, message string) error {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		d.logger.DebugContext(ctx, "sms skipped, unusable number", "error", err)
		return nil
	}
	d.logger.InfoContext(ctx, "sms dispatched", "to", normalized, "message", message)
	return nil
}

// outboxMessage is the JSON envelope the SMS gateway worker consumes.
type outboxMessage struct {
	Phone    string    `json:"phone"`
	Message  string    `json:"message"`
	QueuedAt time.Time `json:"queued_at"`
}

// OutboxDispatcher queues messages on a Redis list for an external SMS
// gateway worker to drain. The list survives process restarts, which is the
// durability "best-effort" delivery gets here.
type OutboxDispatcher struct {
	client Pusher
	key    string
	logger *slog.Logger
}

// Pusher is the single redis operation the outbox uses.
type Pusher interface {
	Push(ctx context.Context, key string, value []byte) error
}

func NewOutboxDispatcher(client Pusher, key string, logger *slog.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{client: client, key: key, logger: logger}
}

func (d *OutboxDispatcher) Notify(ctx context.Context, rawPhone, message string) error {
	normalized, err := phone.Normalize(rawPhone)
	if err != nil {
		d.logger.DebugContext(ctx, "sms skipped, unusable number", "error", err)
		return nil
	}
	payload, err := json.Marshal(outboxMessage{
		Phone:    normalized,
		Message:  message,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding sms payload: %w", err)
	}
	if err := d.client.Push(ctx, d.key, payload); err != nil {
		return fmt.Errorf("queueing sms: %w", err)
	}
	return nil
}
