package family

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

func newTestMember(age *int) *Member {
	return &Member{
		ID:       id.MemberID(uuid.New()),
		FamilyID: id.FamilyID(uuid.New()),
		Name:     "Juan dela Cruz",
		Relation: RelationChild,
		Age:      age,
	}
}

func intPtr(v int) *int { return &v }

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(" low_class ")
	require.NoError(t, err)
	assert.Equal(t, LowClass, c)

	_, err = ParseClassification("middle-ish")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCanSubmitAttribute(t *testing.T) {
	t.Run("requires evidence", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		err := m.CanSubmitAttribute(AttrPWD, "  ")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("senior requires minimum age", func(t *testing.T) {
		m := newTestMember(intPtr(59))
		err := m.CanSubmitAttribute(AttrSenior, "doc://osca-id")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		m.Age = intPtr(60)
		assert.NoError(t, m.CanSubmitAttribute(AttrSenior, "doc://osca-id"))
	})

	t.Run("senior requires known age", func(t *testing.T) {
		m := newTestMember(nil)
		err := m.CanSubmitAttribute(AttrSenior, "doc://osca-id")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects resubmission while pending", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		require.NoError(t, m.CanSubmitAttribute(AttrPWD, "doc://pwd-id"))
		m.ApplySubmitAttribute(AttrPWD, "doc://pwd-id", time.Now())

		err := m.CanSubmitAttribute(AttrPWD, "doc://pwd-id-2")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rejects resubmission after decision", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		m.ApplySubmitAttribute(AttrPWD, "doc://pwd-id", time.Now())
		m.ApplyDecideAttribute(AttrPWD, false, id.UserID(uuid.New()), time.Now())

		err := m.CanSubmitAttribute(AttrPWD, "doc://pwd-id-2")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestDecideAttribute(t *testing.T) {
	staffID := id.UserID(uuid.New())

	t.Run("approve marks the attribute", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		m.ApplySubmitAttribute(AttrIndigent, "doc://cert", time.Now())
		require.NoError(t, m.CanDecideAttribute(AttrIndigent))

		m.ApplyDecideAttribute(AttrIndigent, true, staffID, time.Now())
		assert.True(t, m.HasApproved(AttrIndigent))

		attr, ok := m.Attribute(AttrIndigent)
		require.True(t, ok)
		require.NotNil(t, attr.DecidedBy)
		assert.Equal(t, staffID, *attr.DecidedBy)
	})

	t.Run("one decision per submission", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		m.ApplySubmitAttribute(AttrIndigent, "doc://cert", time.Now())
		m.ApplyDecideAttribute(AttrIndigent, false, staffID, time.Now())

		err := m.CanDecideAttribute(AttrIndigent)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("cannot decide what was never submitted", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		err := m.CanDecideAttribute(AttrPWD)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("rejection does not grant the flag", func(t *testing.T) {
		m := newTestMember(intPtr(30))
		m.ApplySubmitAttribute(AttrPWD, "doc://pwd-id", time.Now())
		m.ApplyDecideAttribute(AttrPWD, false, staffID, time.Now())
		assert.False(t, m.HasApproved(AttrPWD))
	})
}

func TestClearAttribute(t *testing.T) {
	m := newTestMember(intPtr(30))
	m.ApplySubmitAttribute(AttrPWD, "doc://pwd-id", time.Now())
	m.ApplyDecideAttribute(AttrPWD, false, id.UserID(uuid.New()), time.Now())

	require.NoError(t, m.ClearAttribute(AttrPWD, time.Now()))
	_, ok := m.Attribute(AttrPWD)
	assert.False(t, ok)

	// Cleared means the workflow can restart.
	assert.NoError(t, m.CanSubmitAttribute(AttrPWD, "doc://pwd-id-new"))

	err := m.ClearAttribute(AttrPWD, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestMemberInputValidate(t *testing.T) {
	in := MemberInput{Name: "Maria", Relation: RelationSpouse, Age: intPtr(34)}
	assert.NoError(t, in.Validate())

	in.Name = " "
	assert.True(t, dErrors.HasCode(in.Validate(), dErrors.CodeValidation))

	in.Name = "Maria"
	in.Age = intPtr(200)
	assert.True(t, dErrors.HasCode(in.Validate(), dErrors.CodeValidation))
}

func TestNewFamilyDefaultsUnclassified(t *testing.T) {
	f := NewFamily(id.FamilyID(uuid.New()), id.BarangayID(uuid.New()), id.UserID(uuid.New()), time.Now())
	assert.Equal(t, Unclassified, f.Classification)
}
