package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bayanihan/internal/family"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
	id "bayanihan/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePusher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePusher) Push(_ context.Context, _ string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, value)
	return nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (d *recordingDispatcher) Notify(_ context.Context, rawPhone, _ string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return assert.AnError
	}
	d.sent = append(d.sent, rawPhone)
	return nil
}

func TestOutboxDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("queues a normalized payload", func(t *testing.T) {
		pusher := &fakePusher{}
		d := NewOutboxDispatcher(pusher, "sms:outbox", discardLogger())

		require.NoError(t, d.Notify(ctx, "09171234567", "hello"))
		require.Len(t, pusher.payloads, 1)

		var msg outboxMessage
		require.NoError(t, json.Unmarshal(pusher.payloads[0], &msg))
		assert.Equal(t, "+639171234567", msg.Phone)
		assert.Equal(t, "hello", msg.Message)
		assert.False(t, msg.QueuedAt.IsZero())
	})

	t.Run("malformed numbers are skipped, not errors", func(t *testing.T) {
		pusher := &fakePusher{}
		d := NewOutboxDispatcher(pusher, "sms:outbox", discardLogger())

		require.NoError(t, d.Notify(ctx, "not-a-number", "hello"))
		assert.Empty(t, pusher.payloads)
	})

	t.Run("transport errors surface to the caller", func(t *testing.T) {
		d := NewOutboxDispatcher(&fakePusher{err: assert.AnError}, "sms:outbox", discardLogger())
		assert.Error(t, d.Notify(ctx, "09171234567", "hello"))
	})
}

func TestLogDispatcherNeverErrors(t *testing.T) {
	d := NewLogDispatcher(discardLogger())
	assert.NoError(t, d.Notify(context.Background(), "09171234567", "hello"))
	assert.NoError(t, d.Notify(context.Background(), "garbage", "hello"))
}

func TestBroadcastCancellation(t *testing.T) {
	ctx := context.Background()
	barangayID := id.BarangayID(uuid.New())

	families := family.NewInMemoryStore()
	users := user.NewInMemoryStore()

	addFamily := func(t *testing.T, phoneNum string) *family.Family {
		t.Helper()
		head := &user.User{
			ID:       id.UserID(uuid.New()),
			Barangay: &barangayID,
			Role:     user.RoleResident,
			IsActive: true,
			Phone:    phoneNum,
		}
		require.NoError(t, users.Create(ctx, head))
		f := family.NewFamily(id.FamilyID(uuid.New()), barangayID, head.ID, time.Now())
		require.NoError(t, families.CreateIfHeadAvailable(ctx, f))
		return f
	}

	eligibleFamily := addFamily(t, "09170000001")
	addFamily(t, "09170000002")

	isEligible := func(_ context.Context, familyID id.FamilyID, _ id.ScheduleID) (bool, error) {
		return familyID == eligibleFamily.ID, nil
	}

	dispatcher := &recordingDispatcher{}
	b := NewCancellationBroadcaster(families, users, isEligible, dispatcher, discardLogger())

	sched := &schedule.Schedule{
		ID:       id.ScheduleID(uuid.New()),
		Barangay: barangayID,
		Title:    "Rice distribution",
		Date:     time.Now().AddDate(0, 0, 3),
		Status:   schedule.StatusCancelled,
	}
	require.NoError(t, b.BroadcastCancellation(ctx, sched))

	assert.Equal(t, []string{"09170000001"}, dispatcher.sent)
}
