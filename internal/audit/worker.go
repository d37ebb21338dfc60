package audit

import (
	"context"
	"log/slog"
	"time"
)

// AsyncPublisher decouples emitters from persistence: Emit enqueues and never
// blocks the triggering operation. When the inbox is full the event is
// dropped and counted against the log, which matches the log-and-continue
// contract for audit failures.
type AsyncPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewAsyncPublisher(inbox chan<- Event, logger *slog.Logger) *AsyncPublisher {
	return &AsyncPublisher{inbox: inbox, logger: logger}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, event dropped", "action", string(event.Action))
		}
	}
	return nil
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
	logger    *slog.Logger
}

func NewWorker(publisher *Publisher, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil && w.logger != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", string(event.Action), "error", err)
			}
		}
	}
}
