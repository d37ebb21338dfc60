package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bayanihan/internal/actor"
	"bayanihan/internal/audit"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
	"bayanihan/pkg/platform/sentinel"
)

// ClaimCounter reports how many claims reference a schedule. Deletion is
// gated on a zero count.
type ClaimCounter interface {
	CountBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error)
}

// Broadcaster announces a cancellation to the affected residents. A failed
// broadcast is logged, never surfaced to the cancelling staff.
type Broadcaster interface {
	BroadcastCancellation(ctx context.Context, sched *Schedule) error
}

// AuditPublisher records schedule lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns schedule CRUD and the schedule state machine. Every mutation
// is a capability of the owning barangay's staff.
type Service struct {
	store       Store
	claims      ClaimCounter
	broadcaster Broadcaster
	logger      *slog.Logger
	audit       AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func WithClaimCounter(c ClaimCounter) Option {
	return func(s *Service) { s.claims = c }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create schedules a distribution in the staff member's own barangay.
func (s *Service) Create(ctx context.Context, staff actor.Staff, in Input) (*Schedule, error) {
	now := time.Now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	sched := NewSchedule(id.ScheduleID(uuid.New()), staff.Barangay, staff.ID, in, now)
	if err := s.store.Create(ctx, sched); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create schedule")
	}
	s.logAudit(ctx, staff.ID, audit.ActionScheduleCreated, "schedule "+sched.ID.String())
	return sched, nil
}

// Update rewrites a schedule's details. The date floor applies here too;
// closing out past events goes through MarkDistributed or Cancel instead.
func (s *Service) Update(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID, in Input) (*Schedule, error) {
	now := time.Now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	sched, err := s.managedSchedule(ctx, staff, scheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.Open() {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot edit a %s schedule", sched.Status)
	}

	sched.Title = in.Title
	sched.Description = in.Description
	sched.Date = in.Date
	sched.StartTime = in.StartTime
	sched.EndTime = in.EndTime
	sched.Location = in.Location
	sched.MaxRecipients = in.MaxRecipients
	sched.Type = in.Type
	sched.Target = in.Target
	sched.UpdatedAt = now
	if err := s.store.Update(ctx, sched); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update schedule")
	}
	return sched, nil
}

// MarkDistributed closes out a completed distribution.
func (s *Service) MarkDistributed(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID) (*Schedule, error) {
	return s.transition(ctx, staff, scheduleID, StatusDistributed, audit.ActionScheduleDistributed)
}

// Cancel calls off a distribution and broadcasts the cancellation to the
// barangay's eligible residents.
func (s *Service) Cancel(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID) (*Schedule, error) {
	sched, err := s.transition(ctx, staff, scheduleID, StatusCancelled, audit.ActionScheduleCancelled)
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastCancellation(ctx, sched); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "cancellation broadcast failed",
				"schedule_id", sched.ID.String(), "error", err)
		}
	}
	return sched, nil
}

// Delete removes a schedule nothing was claimed against. Once claims exist
// the record is history; cancel it instead.
func (s *Service) Delete(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID) error {
	sched, err := s.managedSchedule(ctx, staff, scheduleID)
	if err != nil {
		return err
	}
	if s.claims != nil {
		n, err := s.claims.CountBySchedule(ctx, sched.ID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count claims")
		}
		if n > 0 {
			return dErrors.New(dErrors.CodeConflict,
				"schedule has claims and cannot be deleted; cancel it instead")
		}
	}
	if err := s.store.Delete(ctx, sched.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete schedule")
	}
	s.logAudit(ctx, staff.ID, audit.ActionScheduleDeleted, "schedule "+sched.ID.String())
	return nil
}

// Get returns a schedule by id.
func (s *Service) Get(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error) {
	return s.loadSchedule(ctx, scheduleID)
}

// ListByBarangay returns every schedule of a barangay, past and present.
func (s *Service) ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	out, err := s.store.ListByBarangay(ctx, barangayID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schedules")
	}
	return out, nil
}

// ListOpen returns the barangay's schedules still accepting claims.
func (s *Service) ListOpen(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error) {
	out, err := s.store.ListOpenByBarangay(ctx, barangayID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schedules")
	}
	return out, nil
}

func (s *Service) transition(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID, next Status, action audit.Action) (*Schedule, error) {
	sched, err := s.managedSchedule(ctx, staff, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := sched.CanTransitionTo(next); err != nil {
		return nil, err
	}
	sched.ApplyTransition(next, time.Now())
	if err := s.store.Update(ctx, sched); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update schedule")
	}
	s.logAudit(ctx, staff.ID, action, "schedule "+sched.ID.String())
	return sched, nil
}

func (s *Service) loadSchedule(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error) {
	sched, err := s.store.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load schedule")
	}
	return sched, nil
}

// managedSchedule loads a schedule and checks the staff member manages its
// barangay. Foreign schedules read as absent.
func (s *Service) managedSchedule(ctx context.Context, staff actor.Staff, scheduleID id.ScheduleID) (*Schedule, error) {
	sched, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !staff.Manages(sched.Barangay) {
		return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
	}
	return sched, nil
}

func (s *Service) logAudit(ctx context.Context, actorID id.UserID, action audit.Action, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor_id", actorID.String(), "detail", detail, "log_type", "audit")
	}
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.Event{ActorID: actorID, Action: action, Detail: detail}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
