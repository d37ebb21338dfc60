// Package user manages accounts across the three roles. Residents register
// themselves and stay inactive until an admin approves them; barangay staff
// accounts are provisioned by admins and manage exactly one barangay.
package user

import (
	"strings"
	"time"

	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

// Role discriminates account capabilities. Core operations never branch on
// this string directly; they take typed actors (internal/actor) built from it.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleBarangay Role = "BARANGAY"
	RoleResident Role = "RESIDENT"
)

// MaritalStatus feeds the SOLO_PARENT schedule type gate.
type MaritalStatus string

const (
	MaritalSingle     MaritalStatus = "single"
	MaritalMarried    MaritalStatus = "married"
	MaritalWidowed    MaritalStatus = "widowed"
	MaritalSeparated  MaritalStatus = "separated"
	MaritalSoloParent MaritalStatus = "solo_parent"
)

// Residency feeds the IP (indigenous peoples) schedule type gate.
type Residency string

const (
	ResidencyGeneral    Residency = "general"
	ResidencyIndigenous Residency = "indigenous"
)

// User is an account.
//
// Invariants:
//   - A RESIDENT belongs to at most one barangay; nil while pending approval
//   - Inactive residents cannot create families or claims
//   - A BARANGAY user manages exactly one barangay (Barangay is never nil)
type User struct {
	ID            id.UserID
	Barangay      *id.BarangayID
	Role          Role
	FirstName     string
	LastName      string
	Phone         string
	PasswordHash  string
	IsActive      bool
	MaritalStatus MaritalStatus
	Residency     Residency
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName is used in notification messages.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsSoloParent reports whether the SOLO_PARENT gate passes for this head.
func (u *User) IsSoloParent() bool { return u.MaritalStatus == MaritalSoloParent }

// IsIndigenous reports whether the IP gate passes for this head.
func (u *User) IsIndigenous() bool { return u.Residency == ResidencyIndigenous }

// RegisterInput carries resident self-registration data.
type RegisterInput struct {
	FirstName     string
	LastName      string
	Phone         string
	Password      string
	Barangay      id.BarangayID
	MaritalStatus MaritalStatus
	Residency     Residency
}

// Validate rejects malformed registration before any state change.
func (in *RegisterInput) Validate() error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return dErrors.New(dErrors.CodeValidation, "first and last name are required")
	}
	if len(in.Password) < 8 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}
	if in.Barangay.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "barangay is required")
	}
	return nil
}
