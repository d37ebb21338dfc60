package claim

import (
	"context"

	id "bayanihan/pkg/domain"
)

// Store is the claim persistence boundary.
//
// Create must enforce at-most-one non-REJECTED claim per (family, schedule)
// with true mutual exclusion and return sentinel.ErrDuplicate on conflict.
// A read-then-write check in the service is not a substitute.
type Store interface {
	Create(ctx context.Context, c *Claim) error
	FindByID(ctx context.Context, claimID id.ClaimID) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	ListByFamily(ctx context.Context, familyID id.FamilyID) ([]*Claim, error)
	ListBySchedule(ctx context.Context, scheduleID id.ScheduleID) ([]*Claim, error)
	CountBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error)
	// CountActiveBySchedule counts non-REJECTED claims, the number that
	// consumes schedule capacity.
	CountActiveBySchedule(ctx context.Context, scheduleID id.ScheduleID) (int, error)
	// FindActive returns the non-REJECTED claim for the pair, if any.
	FindActive(ctx context.Context, familyID id.FamilyID, scheduleID id.ScheduleID) (*Claim, error)
}
