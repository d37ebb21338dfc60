package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bayanihan/internal/family"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
	id "bayanihan/pkg/domain"
)

// Families lists the households of a barangay.
type Families interface {
	ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*family.Family, error)
}

// Users reads the head account a message goes to.
type Users interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
}

// EligibilityFunc decides whether a family could have claimed the schedule.
// It is injected rather than imported so this package stays decoupled from
// the claim service that owns the full evaluation.
type EligibilityFunc func(ctx context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (bool, error)

// broadcastConcurrency bounds the fan-out so a large barangay does not open
// one goroutine per household at once.
const broadcastConcurrency = 8

// CancellationBroadcaster tells every family that could have claimed a
// schedule that it was called off. Per-family failures are logged and do not
// stop the rest of the fan-out.
type CancellationBroadcaster struct {
	families   Families
	users      Users
	isEligible EligibilityFunc
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewCancellationBroadcaster(families Families, users Users, isEligible EligibilityFunc, dispatcher Dispatcher, logger *slog.Logger) *CancellationBroadcaster {
	return &CancellationBroadcaster{
		families:   families,
		users:      users,
		isEligible: isEligible,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// BroadcastCancellation fans the announcement out to the schedule's barangay.
func (b *CancellationBroadcaster) BroadcastCancellation(ctx context.Context, sched *schedule.Schedule) error {
	households, err := b.families.ListByBarangay(ctx, sched.Barangay)
	if err != nil {
		return fmt.Errorf("listing families for broadcast: %w", err)
	}

	msg := fmt.Sprintf("The donation distribution %q on %s has been cancelled.",
		sched.Title, sched.Date.Format("Jan 2, 2006"))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastConcurrency)
	for _, f := range households {
		g.Go(func() error {
			b.notifyFamily(ctx, f, sched, msg)
			return nil
		})
	}
	return g.Wait()
}

func (b *CancellationBroadcaster) notifyFamily(ctx context.Context, f *family.Family, sched *schedule.Schedule, msg string) {
	eligible, err := b.isEligible(ctx, f.ID, sched.ID)
	if err != nil {
		b.logger.WarnContext(ctx, "broadcast eligibility check failed",
			"family_id", f.ID.String(), "error", err)
		return
	}
	if !eligible {
		return
	}
	head, err := b.users.FindByID(ctx, f.HeadID)
	if err != nil {
		b.logger.WarnContext(ctx, "broadcast head lookup failed",
			"family_id", f.ID.String(), "error", err)
		return
	}
	if err := b.dispatcher.Notify(ctx, head.Phone, msg); err != nil {
		b.logger.WarnContext(ctx, "broadcast send failed",
			"family_id", f.ID.String(), "error", err)
	}
}
