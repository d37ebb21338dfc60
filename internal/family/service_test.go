package family

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

func newTestService() *Service {
	return New(NewInMemoryStore(), NewInMemoryMemberStore())
}

func newResident(barangayID id.BarangayID) actor.Resident {
	return actor.Resident{ID: id.UserID(uuid.New()), Barangay: barangayID}
}

func TestCreateFamily(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	res := newResident(id.BarangayID(uuid.New()))

	f, err := svc.CreateFamily(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, res.ID, f.HeadID)
	assert.Equal(t, res.Barangay, f.Barangay)
	assert.Equal(t, Unclassified, f.Classification)

	_, err = svc.CreateFamily(ctx, res)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	res := newResident(id.BarangayID(uuid.New()))
	f, err := svc.CreateFamily(ctx, res)
	require.NoError(t, err)

	t.Run("head adds a member", func(t *testing.T) {
		m, err := svc.AddMember(ctx, res, f.ID, MemberInput{
			Name: "Maria", Relation: RelationSpouse, Age: intPtr(34),
		})
		require.NoError(t, err)
		assert.Equal(t, f.ID, m.FamilyID)

		members, err := svc.Members(ctx, f.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})

	t.Run("validation failures surface before any write", func(t *testing.T) {
		_, err := svc.AddMember(ctx, res, f.ID, MemberInput{Name: " "})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("another resident's family reads as absent", func(t *testing.T) {
		other := newResident(res.Barangay)
		_, err := svc.AddMember(ctx, other, f.ID, MemberInput{
			Name: "Pedro", Relation: RelationChild,
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestAttributeWorkflow(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	barangayID := id.BarangayID(uuid.New())
	res := newResident(barangayID)
	f, err := svc.CreateFamily(ctx, res)
	require.NoError(t, err)

	m, err := svc.AddMember(ctx, res, f.ID, MemberInput{
		Name: "Lolo Ben", Relation: RelationParent, Age: intPtr(72),
	})
	require.NoError(t, err)

	staff := actor.Staff{ID: id.UserID(uuid.New()), Barangay: barangayID}

	t.Run("submit then approve", func(t *testing.T) {
		_, err := svc.SubmitAttribute(ctx, res, m.ID, AttrSenior, "doc://osca-id")
		require.NoError(t, err)

		updated, err := svc.DecideAttribute(ctx, staff, m.ID, AttrSenior, true)
		require.NoError(t, err)
		assert.True(t, updated.HasApproved(AttrSenior))
	})

	t.Run("decision is one-shot", func(t *testing.T) {
		_, err := svc.DecideAttribute(ctx, staff, m.ID, AttrSenior, false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("staff of another barangay sees not found", func(t *testing.T) {
		foreign := actor.Staff{ID: id.UserID(uuid.New()), Barangay: id.BarangayID(uuid.New())}
		_, err := svc.SubmitAttribute(ctx, res, m.ID, AttrPWD, "doc://pwd-id")
		require.NoError(t, err)

		_, err = svc.DecideAttribute(ctx, foreign, m.ID, AttrPWD, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("only the head edits attributes", func(t *testing.T) {
		other := newResident(barangayID)
		_, err := svc.SubmitAttribute(ctx, other, m.ID, AttrIndigent, "doc://cert")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("clear restarts the workflow", func(t *testing.T) {
		_, err := svc.DecideAttribute(ctx, staff, m.ID, AttrPWD, false)
		require.NoError(t, err)

		_, err = svc.ClearAttribute(ctx, res, m.ID, AttrPWD)
		require.NoError(t, err)

		updated, err := svc.SubmitAttribute(ctx, res, m.ID, AttrPWD, "doc://pwd-id-new")
		require.NoError(t, err)
		attr, ok := updated.Attribute(AttrPWD)
		require.True(t, ok)
		assert.Equal(t, VerificationPending, attr.Status)
	})
}

func TestSetClassification(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	barangayID := id.BarangayID(uuid.New())
	res := newResident(barangayID)
	f, err := svc.CreateFamily(ctx, res)
	require.NoError(t, err)

	staff := actor.Staff{ID: id.UserID(uuid.New()), Barangay: barangayID}

	updated, err := svc.SetClassification(ctx, staff, f.ID, LowClass)
	require.NoError(t, err)
	assert.Equal(t, LowClass, updated.Classification)

	c, err := svc.GetClassification(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, LowClass, c)

	t.Run("unknown tier is rejected", func(t *testing.T) {
		_, err := svc.SetClassification(ctx, staff, f.ID, Classification("VERY_LOW"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("foreign staff sees not found", func(t *testing.T) {
		foreign := actor.Staff{ID: id.UserID(uuid.New()), Barangay: id.BarangayID(uuid.New())}
		_, err := svc.SetClassification(ctx, foreign, f.ID, HighClass)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
