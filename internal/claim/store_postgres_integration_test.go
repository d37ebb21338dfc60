//go:build integration

package claim_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bayanihan/internal/barangay"
	"bayanihan/internal/claim"
	"bayanihan/internal/family"
	"bayanihan/internal/schedule"
	"bayanihan/internal/user"
	id "bayanihan/pkg/domain"
	"bayanihan/pkg/platform/sentinel"
	"bayanihan/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *claim.PostgresStore

	familyID   id.FamilyID
	scheduleID id.ScheduleID
	barangayID id.BarangayID
	headID     id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = claim.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order.
	err := s.postgres.Truncate(ctx,
		"claims", "donation_schedules", "member_attributes", "family_members",
		"families", "users", "barangays")
	s.Require().NoError(err)
	s.seed(ctx)
}

// seed inserts one barangay, one approved resident heading one family, and
// one open schedule.
func (s *PostgresStoreSuite) seed(ctx context.Context) {
	now := time.Now()

	b, err := barangay.NewBarangay(id.BarangayID(uuid.New()), "Poblacion", "pob", now)
	s.Require().NoError(err)
	s.Require().NoError(barangay.NewPostgres(s.postgres.DB).CreateIfCodeAvailable(ctx, b))
	s.barangayID = b.ID

	head := &user.User{
		ID:        id.UserID(uuid.New()),
		Barangay:  &s.barangayID,
		Role:      user.RoleResident,
		FirstName: "Juan",
		LastName:  "dela Cruz",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(user.NewPostgres(s.postgres.DB).Create(ctx, head))
	s.headID = head.ID

	f := family.NewFamily(id.FamilyID(uuid.New()), s.barangayID, head.ID, now)
	s.Require().NoError(family.NewPostgres(s.postgres.DB).CreateIfHeadAvailable(ctx, f))
	s.familyID = f.ID

	sched := schedule.NewSchedule(id.ScheduleID(uuid.New()), s.barangayID, head.ID,
		schedule.Input{
			Title:  "Rice distribution",
			Date:   now.AddDate(0, 0, 7),
			Type:   schedule.TypeGeneral,
			Target: schedule.TargetAll,
		}, now)
	s.Require().NoError(schedule.NewPostgres(s.postgres.DB).Create(ctx, sched))
	s.scheduleID = sched.ID
}

func (s *PostgresStoreSuite) newClaim() *claim.Claim {
	now := time.Now()
	return &claim.Claim{
		ID:        id.ClaimID(uuid.New()),
		Family:    s.familyID,
		Schedule:  s.scheduleID,
		Barangay:  s.barangayID,
		Claimant:  s.headID,
		Status:    claim.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	c := s.newClaim()
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Family, got.Family)
	s.Equal(claim.StatusPending, got.Status)

	active, err := s.store.FindActive(ctx, s.familyID, s.scheduleID)
	s.Require().NoError(err)
	s.Equal(c.ID, active.ID)
}

// TestConcurrentDuplicateCreates verifies the partial unique index yields
// exactly one success under concurrent claim attempts for the same pair.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCreates() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, duplicateCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.newClaim())
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrDuplicate):
				duplicateCount.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), duplicateCount.Load())
}

// TestRejectedClaimFreesThePair verifies the index ignores REJECTED rows.
func (s *PostgresStoreSuite) TestRejectedClaimFreesThePair() {
	ctx := context.Background()

	first := s.newClaim()
	s.Require().NoError(s.store.Create(ctx, first))

	second := s.newClaim()
	s.Require().ErrorIs(s.store.Create(ctx, second), sentinel.ErrDuplicate)

	first.ApplyReject("wrong household", time.Now())
	s.Require().NoError(s.store.Update(ctx, first))

	s.Require().NoError(s.store.Create(ctx, second))

	n, err := s.store.CountActiveBySchedule(ctx, s.scheduleID)
	s.Require().NoError(err)
	s.Equal(1, n)

	total, err := s.store.CountBySchedule(ctx, s.scheduleID)
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *PostgresStoreSuite) TestLifecycleFieldsRoundTrip() {
	ctx := context.Background()
	c := s.newClaim()
	s.Require().NoError(s.store.Create(ctx, c))

	c.ApplyVerify(s.headID, "ID checked", time.Now())
	s.Require().NoError(s.store.Update(ctx, c))
	c.ApplyClaimed("picked up", time.Now())
	s.Require().NoError(s.store.Update(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(claim.StatusClaimed, got.Status)
	s.NotNil(got.VerifiedBy)
	s.NotNil(got.VerifiedAt)
	s.NotNil(got.ClaimedAt)
	s.Contains(got.Notes, "ID checked")
}
