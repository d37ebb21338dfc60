package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bayanihan/internal/actor"
	"bayanihan/internal/family"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

type stubClaimCounter struct {
	count int
}

func (c *stubClaimCounter) CountBySchedule(context.Context, id.ScheduleID) (int, error) {
	return c.count, nil
}

type recordingBroadcaster struct {
	cancelled []id.ScheduleID
}

func (b *recordingBroadcaster) BroadcastCancellation(_ context.Context, sched *Schedule) error {
	b.cancelled = append(b.cancelled, sched.ID)
	return nil
}

func validInput() Input {
	return Input{
		Title:  "Rice distribution",
		Date:   time.Now().AddDate(0, 0, 7),
		Type:   TypeGeneral,
		Target: TargetAll,
	}
}

func newStaff() actor.Staff {
	return actor.Staff{ID: id.UserID(uuid.New()), Barangay: id.BarangayID(uuid.New())}
}

func TestInputValidate(t *testing.T) {
	now := time.Now()

	t.Run("title required", func(t *testing.T) {
		in := validInput()
		in.Title = "  "
		assert.True(t, dErrors.HasCode(in.Validate(now), dErrors.CodeValidation))
	})

	t.Run("date floor is midnight today", func(t *testing.T) {
		in := validInput()
		in.Date = now.AddDate(0, 0, -1)
		assert.True(t, dErrors.HasCode(in.Validate(now), dErrors.CodeValidation))

		// Earlier today is still today.
		in.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 1, 0, 0, now.Location())
		assert.NoError(t, in.Validate(now))
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		in := validInput()
		zero := 0
		in.MaxRecipients = &zero
		assert.True(t, dErrors.HasCode(in.Validate(now), dErrors.CodeValidation))
	})

	t.Run("times must be HH:MM", func(t *testing.T) {
		in := validInput()
		in.StartTime = "9am"
		assert.True(t, dErrors.HasCode(in.Validate(now), dErrors.CodeValidation))

		in.StartTime = "09:00"
		in.EndTime = "17:00"
		assert.NoError(t, in.Validate(now))
	})
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransitionTo(StatusDistributed))
	assert.True(t, StatusScheduled.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusDistributed.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusScheduled))
}

func TestTargetMatches(t *testing.T) {
	assert.True(t, TargetAll.Matches(family.Unclassified))
	assert.True(t, TargetLow.Matches(family.LowClass))
	assert.False(t, TargetLow.Matches(family.MiddleClass))
	assert.False(t, TargetLow.Matches(family.Unclassified))
}

func TestCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore())
	staff := newStaff()

	sched, err := svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	assert.Equal(t, staff.Barangay, sched.Barangay)
	assert.Equal(t, StatusScheduled, sched.Status)

	t.Run("update rewrites details", func(t *testing.T) {
		in := validInput()
		in.Title = "Rice and canned goods"
		updated, err := svc.Update(ctx, staff, sched.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "Rice and canned goods", updated.Title)
	})

	t.Run("foreign staff sees not found", func(t *testing.T) {
		_, err := svc.Update(ctx, newStaff(), sched.ID, validInput())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestScheduleLifecycle(t *testing.T) {
	ctx := context.Background()
	staff := newStaff()

	t.Run("mark distributed is terminal", func(t *testing.T) {
		svc := New(NewInMemoryStore())
		sched, err := svc.Create(ctx, staff, validInput())
		require.NoError(t, err)

		sched, err = svc.MarkDistributed(ctx, staff, sched.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusDistributed, sched.Status)

		_, err = svc.Cancel(ctx, staff, sched.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("cancel broadcasts", func(t *testing.T) {
		broadcaster := &recordingBroadcaster{}
		svc := New(NewInMemoryStore(), WithBroadcaster(broadcaster))
		sched, err := svc.Create(ctx, staff, validInput())
		require.NoError(t, err)

		sched, err = svc.Cancel(ctx, staff, sched.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, sched.Status)
		assert.Equal(t, []id.ScheduleID{sched.ID}, broadcaster.cancelled)
	})

	t.Run("distributed schedules cannot be edited", func(t *testing.T) {
		svc := New(NewInMemoryStore())
		sched, err := svc.Create(ctx, staff, validInput())
		require.NoError(t, err)
		_, err = svc.MarkDistributed(ctx, staff, sched.ID)
		require.NoError(t, err)

		_, err = svc.Update(ctx, staff, sched.ID, validInput())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	staff := newStaff()

	t.Run("unclaimed schedules delete cleanly", func(t *testing.T) {
		svc := New(NewInMemoryStore(), WithClaimCounter(&stubClaimCounter{count: 0}))
		sched, err := svc.Create(ctx, staff, validInput())
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, staff, sched.ID))
		_, err = svc.Get(ctx, sched.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("claimed schedules must be cancelled", func(t *testing.T) {
		svc := New(NewInMemoryStore(), WithClaimCounter(&stubClaimCounter{count: 3}))
		sched, err := svc.Create(ctx, staff, validInput())
		require.NoError(t, err)

		err = svc.Delete(ctx, staff, sched.ID)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = svc.Get(ctx, sched.ID)
		assert.NoError(t, err)
	})
}

func TestListOpen(t *testing.T) {
	ctx := context.Background()
	staff := newStaff()
	svc := New(NewInMemoryStore())

	open, err := svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	cancelled, err := svc.Create(ctx, staff, validInput())
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, staff, cancelled.ID)
	require.NoError(t, err)

	out, err := svc.ListOpen(ctx, staff.Barangay)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, open.ID, out[0].ID)

	all, err := svc.ListByBarangay(ctx, staff.Barangay)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
