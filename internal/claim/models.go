// Package claim implements the claim lifecycle: a family claims a scheduled
// distribution once, staff verify the claim and later record the physical
// pickup. The one-active-claim-per-family-per-schedule invariant is enforced
// at the persistence boundary, not by reading before writing.
package claim

import (
	"time"

	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

// Status is the claim's lifecycle state.
//
// PENDING -> VERIFIED -> CLAIMED is the success path; PENDING -> REJECTED is
// the failure path. CLAIMED and REJECTED are terminal and no transition
// skips a state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusClaimed  Status = "CLAIMED"
	StatusRejected Status = "REJECTED"
)

var claimTransitions = map[Status][]Status{
	StatusPending:  {StatusVerified, StatusRejected},
	StatusVerified: {StatusClaimed},
}

// CanTransitionTo reports whether the move is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusClaimed || s == StatusRejected
}

// Claim links a family to a schedule exactly once. Claimant is the user who
// created it, the head or staff acting on the family's behalf; Member is set
// when staff claim for a specific member rather than the head.
type Claim struct {
	ID         id.ClaimID
	Family     id.FamilyID
	Schedule   id.ScheduleID
	Barangay   id.BarangayID
	Claimant   id.UserID
	Member     *id.MemberID
	Status     Status
	Notes      string
	VerifiedBy *id.UserID
	VerifiedAt *time.Time
	ClaimedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanTransitionTo validates a status move against the state machine.
func (c *Claim) CanTransitionTo(next Status) error {
	if !c.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move claim from %s to %s", c.Status, next)
	}
	return nil
}

// ApplyVerify records staff verification. Call CanTransitionTo first.
func (c *Claim) ApplyVerify(staffID id.UserID, notes string, now time.Time) {
	c.Status = StatusVerified
	c.VerifiedBy = &staffID
	c.VerifiedAt = &now
	c.appendNotes(notes)
	c.UpdatedAt = now
}

// ApplyClaimed records the physical pickup. Call CanTransitionTo first.
func (c *Claim) ApplyClaimed(notes string, now time.Time) {
	c.Status = StatusClaimed
	c.ClaimedAt = &now
	c.appendNotes(notes)
	c.UpdatedAt = now
}

// ApplyReject closes the claim without a pickup. Call CanTransitionTo first.
func (c *Claim) ApplyReject(notes string, now time.Time) {
	c.Status = StatusRejected
	c.appendNotes(notes)
	c.UpdatedAt = now
}

func (c *Claim) appendNotes(notes string) {
	if notes == "" {
		return
	}
	if c.Notes != "" {
		c.Notes += "\n"
	}
	c.Notes += notes
}
