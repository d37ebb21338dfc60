package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bayanihan/pkg/domain"
)

type recordingSink struct {
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, event Event) {
	s.events = append(s.events, event)
}

func newEvent(action Action) Event {
	return Event{ActorID: id.UserID(uuid.New()), Action: action, Detail: "detail"}
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	sink := &recordingSink{}
	p := NewPublisher(store, WithSink(sink))

	event := newEvent(ActionClaimCreated)
	require.NoError(t, p.Emit(ctx, event))

	recent, err := p.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, ActionClaimCreated, recent[0].Action)
	assert.False(t, recent[0].Timestamp.IsZero())

	require.Len(t, sink.events, 1)

	byActor, err := p.ListByActor(ctx, event.ActorID)
	require.NoError(t, err)
	assert.Len(t, byActor, 1)
}

func TestAsyncPublisherNeverBlocks(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inbox := make(chan Event, 1)
	p := NewAsyncPublisher(inbox, logger)

	require.NoError(t, p.Emit(ctx, newEvent(ActionClaimCreated)))
	// Inbox is full now; the second emit drops instead of blocking.
	require.NoError(t, p.Emit(ctx, newEvent(ActionClaimVerified)))
	assert.Len(t, inbox, 1)
}

func TestWorkerDrainsInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewInMemoryStore()
	inbox := make(chan Event, 8)
	worker := NewWorker(NewPublisher(store), inbox, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	inbox <- newEvent(ActionClaimCreated)
	inbox <- newEvent(ActionClaimVerified)

	assert.Eventually(t, func() bool {
		recent, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(recent) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
