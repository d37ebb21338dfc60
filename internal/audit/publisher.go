package audit

import (
	"context"
	"time"

	id "bayanihan/pkg/domain"
)

// Publisher captures structured audit events. It is append-only and uses the
// store for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
	sink  Sink
}

type PublisherOption func(*Publisher)

// WithSink attaches an out-of-process sink that receives a copy of every
// appended event.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) { p.sink = sink }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	if p.sink != nil {
		p.sink.Publish(ctx, event)
	}
	return nil
}

func (p *Publisher) ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error) {
	return p.store.ListByActor(ctx, actorID)
}

func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
