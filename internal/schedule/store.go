package schedule

import (
	"context"

	id "bayanihan/pkg/domain"
)

// Store is the schedule persistence boundary. Implementations return
// sentinel errors from pkg/platform/sentinel.
type Store interface {
	Create(ctx context.Context, s *Schedule) error
	FindByID(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	Delete(ctx context.Context, scheduleID id.ScheduleID) error
	ListByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error)
	// ListOpenByBarangay returns schedules still in SCHEDULED status.
	ListOpenByBarangay(ctx context.Context, barangayID id.BarangayID) ([]*Schedule, error)
}
