package claim

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Dispatcher,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bayanihan/internal/actor"
	"bayanihan/internal/audit"
	"bayanihan/internal/eligibility"
	"bayanihan/internal/family"
	"bayanihan/internal/platform/metrics"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
	"bayanihan/pkg/platform/sentinel"
)

var tracer = otel.Tracer("bayanihan/internal/claim")

// Families reads household records.
type Families interface {
	FindByID(ctx context.Context, familyID id.FamilyID) (*family.Family, error)
	FindByHead(ctx context.Context, headID id.UserID) (*family.Family, error)
}

// Members reads household composition for eligibility checks.
type Members interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*family.Member, error)
	ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*family.Member, error)
}

// Users reads accounts; the head user carries the solo-parent and indigenous
// flags and the phone notifications go to.
type Users interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
}

// Schedules reads distribution events.
type Schedules interface {
	FindByID(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error)
	ListOpenByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*schedule.Schedule, error)
}

// Dispatcher sends a best-effort SMS. Failures never roll back the state
// transition that triggered them.
type Dispatcher interface {
	Notify(ctx context.Context, phone, message string) error
}

// AuditPublisher records claim lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the claim lifecycle. Eligibility is re-evaluated server-side
// on every create; the duplicate-claim invariant is delegated to the store.
type Service struct {
	claims     Store
	families   Families
	members    Members
	users      Users
	schedules  Schedules
	evaluator  *eligibility.Evaluator
	dispatcher Dispatcher
	logger     *slog.Logger
	audit      AuditPublisher
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

func New(claims Store, families Families, members Members, users Users, schedules Schedules, evaluator *eligibility.Evaluator, opts ...Option) *Service {
	s := &Service{
		claims:    claims,
		families:  families,
		members:   members,
		users:     users,
		schedules: schedules,
		evaluator: evaluator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries claim creation data. Member is set when staff claim on
// behalf of a specific member rather than the head.
type CreateInput struct {
	Family   id.FamilyID
	Schedule id.ScheduleID
	Member   *id.MemberID
	Notes    string
}

// Create claims a schedule for a family. Residents claim for the family they
// head; staff claim on a family's behalf within their own barangay. Exactly
// one of two concurrent attempts for the same pair succeeds; the other gets
// a duplicate-claim error, and retrying it deterministically fails again.
func (s *Service) Create(ctx context.Context, act actor.Actor, in CreateInput) (*Claim, error) {
	ctx, span := tracer.Start(ctx, "claim.create", trace.WithAttributes(
		attribute.String("family_id", in.Family.String()),
		attribute.String("schedule_id", in.Schedule.String()),
	))
	defer span.End()

	f, err := s.claimableFamily(ctx, act, in.Family)
	if err != nil {
		return nil, err
	}
	sched, err := s.loadSchedule(ctx, in.Schedule)
	if err != nil {
		return nil, err
	}
	// Schedules are claimable only within their own barangay.
	if sched.Barangay != f.Barangay {
		return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
	}
	if !sched.Open() {
		return nil, dErrors.Newf(dErrors.CodeIneligible,
			"schedule is %s and no longer accepts claims", sched.Status)
	}

	if sched.MaxRecipients != nil {
		n, err := s.claims.CountActiveBySchedule(ctx, sched.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count claims")
		}
		if n >= *sched.MaxRecipients {
			return nil, dErrors.New(dErrors.CodeIneligible, "schedule has reached its maximum recipients")
		}
	}

	sub, err := s.subject(ctx, f)
	if err != nil {
		return nil, err
	}
	if res := s.evaluator.Evaluate(sub, sched); !res.Eligible {
		return nil, dErrors.New(dErrors.CodeIneligible, res.Reason)
	}

	if in.Member != nil {
		m, err := s.members.FindByID(ctx, *in.Member)
		if err != nil || m.FamilyID != f.ID {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
	}

	now := time.Now()
	c := &Claim{
		ID:        id.ClaimID(uuid.New()),
		Family:    f.ID,
		Schedule:  sched.ID,
		Barangay:  f.Barangay,
		Claimant:  act.UserID(),
		Member:    in.Member,
		Status:    StatusPending,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.claims.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			if s.metrics != nil {
				s.metrics.ClaimsDuplicate.Inc()
			}
			return nil, dErrors.New(dErrors.CodeDuplicateClaim,
				"family already has an active claim for this schedule")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create claim")
	}

	if s.metrics != nil {
		s.metrics.ClaimsCreated.Inc()
	}
	s.logAudit(ctx, act.UserID(), audit.ActionClaimCreated,
		"claim "+c.ID.String()+" for schedule "+sched.ID.String())
	return c, nil
}

// Verify records staff verification of a PENDING claim.
func (s *Service) Verify(ctx context.Context, staff actor.Staff, claimID id.ClaimID, notes string) (*Claim, error) {
	c, err := s.managedClaim(ctx, staff, claimID)
	if err != nil {
		return nil, err
	}
	if err := c.CanTransitionTo(StatusVerified); err != nil {
		return nil, err
	}
	c.ApplyVerify(staff.ID, notes, time.Now())
	if err := s.claims.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
	}
	if s.metrics != nil {
		s.metrics.ClaimsVerified.Inc()
	}
	s.logAudit(ctx, staff.ID, audit.ActionClaimVerified, "claim "+c.ID.String())
	return c, nil
}

// MarkClaimed records the physical pickup of a VERIFIED claim and notifies
// the family head.
func (s *Service) MarkClaimed(ctx context.Context, staff actor.Staff, claimID id.ClaimID, notes string) (*Claim, error) {
	c, err := s.managedClaim(ctx, staff, claimID)
	if err != nil {
		return nil, err
	}
	if err := c.CanTransitionTo(StatusClaimed); err != nil {
		return nil, err
	}
	now := time.Now()
	c.ApplyClaimed(notes, now)
	if err := s.claims.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
	}
	if s.metrics != nil {
		s.metrics.ClaimsCompleted.Inc()
	}
	s.logAudit(ctx, staff.ID, audit.ActionClaimCompleted, "claim "+c.ID.String())
	s.notifyClaimed(ctx, c, now)
	return c, nil
}

// Reject closes a PENDING claim without a pickup. The pair becomes claimable
// again afterwards.
func (s *Service) Reject(ctx context.Context, staff actor.Staff, claimID id.ClaimID, notes string) (*Claim, error) {
	c, err := s.managedClaim(ctx, staff, claimID)
	if err != nil {
		return nil, err
	}
	if err := c.CanTransitionTo(StatusRejected); err != nil {
		return nil, err
	}
	c.ApplyReject(notes, time.Now())
	if err := s.claims.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update claim")
	}
	if s.metrics != nil {
		s.metrics.ClaimsRejected.Inc()
	}
	s.logAudit(ctx, staff.ID, audit.ActionClaimRejected, "claim "+c.ID.String())
	return c, nil
}

// Get returns a claim by id.
func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*Claim, error) {
	return s.loadClaim(ctx, claimID)
}

// ListByFamily returns a family's claim history.
func (s *Service) ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*Claim, error) {
	out, err := s.claims.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	return out, nil
}

// ListBySchedule returns every claim against a schedule.
func (s *Service) ListBySchedule(ctx context.Context, scheduleID id.ScheduleID) ([]*Claim, error) {
	out, err := s.claims.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list claims")
	}
	return out, nil
}

// CountBySchedule reports how many claims reference a schedule. The schedule
// service gates deletion on this.
func (s *Service) CountBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error) {
	n, err := s.claims.CountBySchedule(ctx, scheduleID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count claims")
	}
	return n, nil
}

// IsEligible evaluates the family against the schedule without creating
// anything.
func (s *Service) IsEligible(ctx context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (eligibility.Result, error) {
	f, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return eligibility.Result{}, err
	}
	sched, err := s.loadSchedule(ctx, scheduleID)
	if err != nil {
		return eligibility.Result{}, err
	}
	sub, err := s.subject(ctx, f)
	if err != nil {
		return eligibility.Result{}, err
	}
	return s.evaluator.Evaluate(sub, sched), nil
}

// EligibleSchedules returns the open schedules of the resident's barangay
// their family may claim from. This is the browsing filter; Create runs the
// same evaluation again.
func (s *Service) EligibleSchedules(ctx context.Context, res actor.Resident) ([]*schedule.Schedule, error) {
	f, err := s.families.FindByHead(ctx, res.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family")
	}
	sub, err := s.subject(ctx, f)
	if err != nil {
		return nil, err
	}
	open, err := s.schedules.ListOpenByBarangay(ctx, f.Barangay)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schedules")
	}
	out := make([]*schedule.Schedule, 0, len(open))
	for _, sched := range open {
		if s.evaluator.Evaluate(sub, sched).Eligible {
			out = append(out, sched)
		}
	}
	return out, nil
}

// claimableFamily authorizes the actor for the family. Residents claim only
// for the family they head; staff only within the barangay they manage.
func (s *Service) claimableFamily(ctx context.Context, act actor.Actor, familyID id.FamilyID) (*family.Family, error) {
	f, err := s.loadFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	switch a := act.(type) {
	case actor.Resident:
		if f.HeadID != a.ID {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
	case actor.Staff:
		if !a.Manages(f.Barangay) {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
	case actor.Admin:
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "actor cannot create claims")
	}
	return f, nil
}

func (s *Service) subject(ctx context.Context, f *family.Family) (eligibility.Subject, error) {
	head, err := s.users.FindByID(ctx, f.HeadID)
	if err != nil {
		return eligibility.Subject{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family head")
	}
	members, err := s.members.ListByFamily(ctx, f.ID)
	if err != nil {
		return eligibility.Subject{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return eligibility.Subject{Family: f, Head: head, Members: members}, nil
}

func (s *Service) notifyClaimed(ctx context.Context, c *Claim, claimedAt time.Time) {
	if s.dispatcher == nil {
		return
	}
	f, err := s.families.FindByID(ctx, c.Family)
	if err != nil {
		s.warn(ctx, "claimed notification skipped", "claim_id", c.ID.String(), "error", err)
		return
	}
	head, err := s.users.FindByID(ctx, f.HeadID)
	if err != nil {
		s.warn(ctx, "claimed notification skipped", "claim_id", c.ID.String(), "error", err)
		return
	}
	claimant, err := s.users.FindByID(ctx, c.Claimant)
	if err != nil {
		s.warn(ctx, "claimed notification skipped", "claim_id", c.ID.String(), "error", err)
		return
	}
	sched, err := s.schedules.FindByID(ctx, c.Schedule)
	if err != nil {
		s.warn(ctx, "claimed notification skipped", "claim_id", c.ID.String(), "error", err)
		return
	}

	msg := fmt.Sprintf("Your donation from %q was claimed by %s on %s.",
		sched.Title, claimant.FullName(), claimedAt.Format("Jan 2, 2006 3:04 PM"))
	if err := s.dispatcher.Notify(ctx, head.Phone, msg); err != nil {
		s.warn(ctx, "claimed notification failed", "claim_id", c.ID.String(), "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
}

func (s *Service) loadFamily(ctx context.Context, familyID id.FamilyID) (*family.Family, error) {
	f, err := s.families.FindByID(ctx, familyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "family not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load family")
	}
	return f, nil
}

func (s *Service) loadSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "schedule not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load schedule")
	}
	return sched, nil
}

func (s *Service) loadClaim(ctx context.Context, claimID id.ClaimID) (*Claim, error) {
	c, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load claim")
	}
	return c, nil
}

// managedClaim loads a claim and checks the staff member manages its
// barangay. Foreign claims read as absent.
func (s *Service) managedClaim(ctx context.Context, staff actor.Staff, claimID id.ClaimID) (*Claim, error) {
	c, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !staff.Manages(c.Barangay) {
		return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
	}
	return c, nil
}

func (s *Service) warn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
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
