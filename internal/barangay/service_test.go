package barangay

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bayanihan/internal/actor"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

func TestCreateBarangay(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore())
	admin := actor.Admin{ID: id.UserID(uuid.New())}

	b, err := svc.Create(ctx, admin, "Poblacion", "POB")
	require.NoError(t, err)
	assert.Equal(t, "Poblacion", b.Name)

	t.Run("codes are unique case-insensitively", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, "Poblacion Dos", "pob")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("name and code are required", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, " ", "ABC")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = svc.Create(ctx, admin, "San Roque", "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAssignManager(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore())
	admin := actor.Admin{ID: id.UserID(uuid.New())}

	b, err := svc.Create(ctx, admin, "San Roque", "SRQ")
	require.NoError(t, err)

	managerID := id.UserID(uuid.New())
	b, err = svc.AssignManager(ctx, admin, b.ID, managerID)
	require.NoError(t, err)
	require.NotNil(t, b.ManagerID)
	assert.Equal(t, managerID, *b.ManagerID)

	_, err = svc.AssignManager(ctx, admin, id.BarangayID(uuid.New()), managerID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	svc := New(NewInMemoryStore())
	admin := actor.Admin{ID: id.UserID(uuid.New())}

	b, err := svc.Create(ctx, admin, "Poblacion", "POB")
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, id.BarangayID(uuid.New()))
	require.NoError(t, err)
	assert.False(t, ok)
}
