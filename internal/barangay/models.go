// Package barangay holds the administrative zones that act as the system's
// tenant boundary. Every family, schedule and claim is owned by exactly one
// barangay; no core operation mutates across that boundary.
package barangay

import (
	"strings"
	"time"

	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

// Barangay is an administrative zone.
//
// Invariants:
//   - Code is non-empty and unique case-insensitively
//   - Name is non-empty
//   - At most one manager (a BARANGAY-role user) at a time
type Barangay struct {
	ID        id.BarangayID
	Name      string
	Code      string
	ManagerID *id.UserID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBarangay validates and constructs a Barangay.
func NewBarangay(barangayID id.BarangayID, name, code string, now time.Time) (*Barangay, error) {
	name = strings.TrimSpace(name)
	code = strings.TrimSpace(code)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barangay name cannot be empty")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "barangay code cannot be empty")
	}
	return &Barangay{
		ID:        barangayID,
		Name:      name,
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
