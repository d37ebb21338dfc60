// Package family owns households, their members, the staff-assigned wealth
// classification, and the per-member special-status verification workflow.
package family

import (
	"strings"
	"time"

	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

// Classification is the staff-assigned wealth tier used to target donations.
// Families start UNCLASSIFIED and never match a non-ALL schedule target until
// their managing barangay classifies them.
type Classification string

const (
	Unclassified Classification = "UNCLASSIFIED"
	LowClass     Classification = "LOW_CLASS"
	MiddleClass  Classification = "MIDDLE_CLASS"
	HighClass    Classification = "HIGH_CLASS"
)

var validClassifications = map[Classification]bool{
	Unclassified: true,
	LowClass:     true,
	MiddleClass:  true,
	HighClass:    true,
}

// ParseClassification constructs a Classification from external input.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	if !validClassifications[c] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown classification %q", s)
	}
	return c, nil
}

// Relation places a member within the household.
type Relation string

const (
	RelationHead    Relation = "head"
	RelationSpouse  Relation = "spouse"
	RelationChild   Relation = "child"
	RelationParent  Relation = "parent"
	RelationSibling Relation = "sibling"
	RelationOther   Relation = "other"
)

// Family is the household unit that claims donations.
//
// Invariants:
//   - Exactly one head, a resident user; a resident heads at most one family
//   - Belongs to exactly one barangay; classification mutated only by that
//     barangay's staff
//   - Classification defaults to UNCLASSIFIED
type Family struct {
	ID             id.FamilyID
	Barangay       id.BarangayID
	HeadID         id.UserID
	Classification Classification
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewFamily constructs a family with the default classification.
func NewFamily(familyID id.FamilyID, barangayID id.BarangayID, headID id.UserID, now time.Time) *Family {
	return &Family{
		ID:             familyID,
		Barangay:       barangayID,
		HeadID:         headID,
		Classification: Unclassified,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AttributeKind names the three independently verified special statuses.
type AttributeKind string

const (
	AttrIndigent AttributeKind = "indigent"
	AttrSenior   AttributeKind = "senior"
	AttrPWD      AttributeKind = "pwd"
)

var validAttributeKinds = map[AttributeKind]bool{
	AttrIndigent: true,
	AttrSenior:   true,
	AttrPWD:      true,
}

// ParseAttributeKind constructs an AttributeKind from external input.
func ParseAttributeKind(s string) (AttributeKind, error) {
	k := AttributeKind(strings.ToLower(strings.TrimSpace(s)))
	if !validAttributeKinds[k] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown attribute kind %q", s)
	}
	return k, nil
}

// VerificationStatus is the per-submission review state. Absence of the
// attribute on a member is the unset state.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// VerifiableAttribute is one self-declared special status awaiting or past
// staff review. One value per kind per member; a decided attribute is
// immutable until cleared and resubmitted (one-shot review per submission).
type VerifiableAttribute struct {
	Kind        AttributeKind
	EvidenceRef string
	Status      VerificationStatus
	SubmittedAt time.Time
	DecidedAt   *time.Time
	DecidedBy   *id.UserID
}

// seniorMinimumAge gates the senior attribute at the model boundary.
const seniorMinimumAge = 60

// Member is a person in a family. Student status is self-declared and feeds
// the EDUCATION gate without verification; the verifiable attributes feed the
// PWD, SENIOR_CITIZEN and WHEELCHAIR gates only when APPROVED.
type Member struct {
	ID             id.MemberID
	FamilyID       id.FamilyID
	Name           string
	Relation       Relation
	Age            *int
	IsStudent      bool
	EducationLevel string
	Attributes     []VerifiableAttribute
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Attribute returns the member's attribute of the given kind, if submitted.
func (m *Member) Attribute(kind AttributeKind) (*VerifiableAttribute, bool) {
	for i := range m.Attributes {
		if m.Attributes[i].Kind == kind {
			return &m.Attributes[i], true
		}
	}
	return nil, false
}

// HasApproved reports whether the given kind has passed staff review. This is
// the only status the eligibility evaluator honors.
func (m *Member) HasApproved(kind AttributeKind) bool {
	attr, ok := m.Attribute(kind)
	return ok && attr.Status == VerificationApproved
}

// CanSubmitAttribute validates a submission without applying it.
func (m *Member) CanSubmitAttribute(kind AttributeKind, evidenceRef string) error {
	if !validAttributeKinds[kind] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown attribute kind %q", kind)
	}
	if strings.TrimSpace(evidenceRef) == "" {
		return dErrors.New(dErrors.CodeValidation, "an evidence document reference is required")
	}
	if kind == AttrSenior {
		if m.Age == nil || *m.Age < seniorMinimumAge {
			return dErrors.Newf(dErrors.CodeValidation,
				"senior citizen status requires age %d or above", seniorMinimumAge)
		}
	}
	if attr, ok := m.Attribute(kind); ok {
		switch attr.Status {
		case VerificationPending:
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"%s verification is already PENDING", kind)
		default:
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"%s verification was already decided (%s); clear it to resubmit", kind, attr.Status)
		}
	}
	return nil
}

// ApplySubmitAttribute enters the attribute into PENDING review. Call
// CanSubmitAttribute first.
func (m *Member) ApplySubmitAttribute(kind AttributeKind, evidenceRef string, now time.Time) {
	m.Attributes = append(m.Attributes, VerifiableAttribute{
		Kind:        kind,
		EvidenceRef: evidenceRef,
		Status:      VerificationPending,
		SubmittedAt: now,
	})
	m.UpdatedAt = now
}

// CanDecideAttribute validates a staff decision without applying it.
func (m *Member) CanDecideAttribute(kind AttributeKind) error {
	attr, ok := m.Attribute(kind)
	if !ok {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"%s verification has not been submitted", kind)
	}
	if attr.Status != VerificationPending {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"%s verification is %s, not PENDING", kind, attr.Status)
	}
	return nil
}

// ApplyDecideAttribute records the one-shot review outcome. Call
// CanDecideAttribute first.
func (m *Member) ApplyDecideAttribute(kind AttributeKind, approve bool, decidedBy id.UserID, now time.Time) {
	attr, _ := m.Attribute(kind)
	if approve {
		attr.Status = VerificationApproved
	} else {
		attr.Status = VerificationRejected
	}
	attr.DecidedAt = &now
	attr.DecidedBy = &decidedBy
	m.UpdatedAt = now
}

// ClearAttribute removes a decided attribute so the workflow can restart with
// a fresh submission.
func (m *Member) ClearAttribute(kind AttributeKind, now time.Time) error {
	for i := range m.Attributes {
		if m.Attributes[i].Kind == kind {
			m.Attributes = append(m.Attributes[:i], m.Attributes[i+1:]...)
			m.UpdatedAt = now
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeNotFound, "%s verification has not been submitted", kind)
}

// MemberInput carries member creation data.
type MemberInput struct {
	Name           string
	Relation       Relation
	Age            *int
	IsStudent      bool
	EducationLevel string
}

// Validate rejects malformed member data before any state change.
func (in *MemberInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "member name is required")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return dErrors.New(dErrors.CodeValidation, "member age is out of range")
	}
	return nil
}
