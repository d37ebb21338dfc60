// Package domain holds the typed identifiers and shared value types used
// across the core. IDs are distinct uuid-backed types so a FamilyID can never
// be passed where a ScheduleID is expected.
//
// Construct IDs from external input via the ParseXxxID functions; direct
// casting bypasses validation and is reserved for trusted call sites.
package domain

import (
	"github.com/google/uuid"

	dErrors "bayanihan/pkg/domain-errors"
)

type (
	// BarangayID identifies a barangay, the tenant boundary of the system.
	BarangayID uuid.UUID
	// UserID identifies any account regardless of role.
	UserID uuid.UUID
	// FamilyID identifies a household unit.
	FamilyID uuid.UUID
	// MemberID identifies a person within a family.
	MemberID uuid.UUID
	// ScheduleID identifies a donation distribution schedule.
	ScheduleID uuid.UUID
	// ClaimID identifies a family's claim against a schedule.
	ClaimID uuid.UUID
)

func (i BarangayID) String() string { return uuid.UUID(i).String() }
func (i UserID) String() string     { return uuid.UUID(i).String() }
func (i FamilyID) String() string   { return uuid.UUID(i).String() }
func (i MemberID) String() string   { return uuid.UUID(i).String() }
func (i ScheduleID) String() string { return uuid.UUID(i).String() }
func (i ClaimID) String() string    { return uuid.UUID(i).String() }

func (i BarangayID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i UserID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i FamilyID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i MemberID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i ScheduleID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i ClaimID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Rejecting uuid.Nil keeps zero values from leaking through
// trust boundaries.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid uuid")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil uuid")
	}
	return u, nil
}

// ParseBarangayID constructs a BarangayID from external input.
func ParseBarangayID(s string) (BarangayID, error) {
	u, err := parseUUID(s)
	return BarangayID(u), err
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

// ParseFamilyID constructs a FamilyID from external input.
func ParseFamilyID(s string) (FamilyID, error) {
	u, err := parseUUID(s)
	return FamilyID(u), err
}

// ParseMemberID constructs a MemberID from external input.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseUUID(s)
	return MemberID(u), err
}

// ParseScheduleID constructs a ScheduleID from external input.
func ParseScheduleID(s string) (ScheduleID, error) {
	u, err := parseUUID(s)
	return ScheduleID(u), err
}

// ParseClaimID constructs a ClaimID from external input.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s)
	return ClaimID(u), err
}
