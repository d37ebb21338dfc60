// Package actor models who is invoking a core operation. Instead of the
// role-as-string checks the handlers used to scatter, every operation takes a
// typed actor variant, so the compiler decides which operations a given actor
// may invoke and tenant scope travels with the value.
package actor

import (
	id "bayanihan/pkg/domain"
)

// Actor is the sealed union of caller identities.
type Actor interface {
	UserID() id.UserID
	isActor()
}

// Admin is a municipality-wide administrator.
type Admin struct {
	ID id.UserID
}

// Staff manages exactly one barangay. Mutations it performs are valid only
// inside that barangay.
type Staff struct {
	ID       id.UserID
	Barangay id.BarangayID
}

// Resident is an approved resident account scoped to its barangay.
type Resident struct {
	ID       id.UserID
	Barangay id.BarangayID
}

func (a Admin) UserID() id.UserID    { return a.ID }
func (s Staff) UserID() id.UserID    { return s.ID }
func (r Resident) UserID() id.UserID { return r.ID }

func (Admin) isActor()    {}
func (Staff) isActor()    {}
func (Resident) isActor() {}

// Manages reports whether the staff actor is scoped to the given barangay.
func (s Staff) Manages(b id.BarangayID) bool { return s.Barangay == b }
