package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bayanihan/internal/actor"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

type stubBarangays struct {
	known map[id.BarangayID]bool
}

func (s *stubBarangays) Exists(_ context.Context, barangayID id.BarangayID) (bool, error) {
	return s.known[barangayID], nil
}

func newUserService(barangayID id.BarangayID) *Service {
	return New(NewInMemoryStore(), &stubBarangays{known: map[id.BarangayID]bool{barangayID: true}})
}

func validRegistration(barangayID id.BarangayID) RegisterInput {
	return RegisterInput{
		FirstName: "Juan",
		LastName:  "dela Cruz",
		Phone:     "09171234567",
		Password:  "correct horse",
		Barangay:  barangayID,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	barangayID := id.BarangayID(uuid.New())
	svc := newUserService(barangayID)

	t.Run("new residents start inactive", func(t *testing.T) {
		u, err := svc.Register(ctx, validRegistration(barangayID))
		require.NoError(t, err)
		assert.Equal(t, RoleResident, u.Role)
		assert.False(t, u.IsActive)

		// Stored hash verifies against the original password.
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

		_, err = ActorFor(u)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown barangay is rejected", func(t *testing.T) {
		in := validRegistration(id.BarangayID(uuid.New()))
		_, err := svc.Register(ctx, in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		in := validRegistration(barangayID)
		in.Password = "short"
		_, err := svc.Register(ctx, in)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestApproveResident(t *testing.T) {
	ctx := context.Background()
	barangayID := id.BarangayID(uuid.New())
	svc := newUserService(barangayID)
	admin := actor.Admin{ID: id.UserID(uuid.New())}

	u, err := svc.Register(ctx, validRegistration(barangayID))
	require.NoError(t, err)

	pending, err := svc.ListPending(ctx, admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := svc.ApproveResident(ctx, admin, u.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsActive)

	act, err := ActorFor(approved)
	require.NoError(t, err)
	res, ok := act.(actor.Resident)
	require.True(t, ok)
	assert.Equal(t, barangayID, res.Barangay)

	pending, err = svc.ListPending(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateStaff(t *testing.T) {
	ctx := context.Background()
	barangayID := id.BarangayID(uuid.New())
	svc := newUserService(barangayID)
	admin := actor.Admin{ID: id.UserID(uuid.New())}

	u, err := svc.CreateStaff(ctx, admin, "Maria", "Santos", "09179876543", "s3cret-pass", barangayID)
	require.NoError(t, err)
	assert.Equal(t, RoleBarangay, u.Role)
	assert.True(t, u.IsActive)

	act, err := ActorFor(u)
	require.NoError(t, err)
	staff, ok := act.(actor.Staff)
	require.True(t, ok)
	assert.True(t, staff.Manages(barangayID))
}
