// Package schedule manages donation distribution events: their targeting
// rules, the SCHEDULED/DISTRIBUTED/CANCELLED state machine and what staff may
// do with them.
package schedule

import (
	"strings"
	"time"

	"bayanihan/internal/family"
	id "bayanihan/pkg/domain"
	dErrors "bayanihan/pkg/domain-errors"
)

// Type narrows who a distribution is for. GENERAL carries no member
// requirement; every other type is checked against household composition by
// the eligibility evaluator.
type Type string

const (
	TypeGeneral    Type = "GENERAL"
	TypeEducation  Type = "EDUCATION"
	TypeWheelchair Type = "WHEELCHAIR"
	TypePWD        Type = "PWD"
	TypeIP         Type = "IP"
	TypeSenior     Type = "SENIOR_CITIZEN"
	TypeSoloParent Type = "SOLO_PARENT"
)

var validTypes = map[Type]bool{
	TypeGeneral:    true,
	TypeEducation:  true,
	TypeWheelchair: true,
	TypePWD:        true,
	TypeIP:         true,
	TypeSenior:     true,
	TypeSoloParent: true,
}

// ParseType constructs a Type from external input.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !validTypes[t] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown donation type %q", s)
	}
	return t, nil
}

// Target restricts a distribution to one wealth tier, or ALL.
type Target string

const (
	TargetAll    Target = "ALL"
	TargetLow    Target = Target(family.LowClass)
	TargetMiddle Target = Target(family.MiddleClass)
	TargetHigh   Target = Target(family.HighClass)
)

var validTargets = map[Target]bool{
	TargetAll:    true,
	TargetLow:    true,
	TargetMiddle: true,
	TargetHigh:   true,
}

// ParseTarget constructs a Target from external input.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToUpper(strings.TrimSpace(s)))
	if !validTargets[t] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown target classification %q", s)
	}
	return t, nil
}

// Matches reports whether a family of the given tier passes this target.
// UNCLASSIFIED families only ever match ALL.
func (t Target) Matches(c family.Classification) bool {
	if t == TargetAll {
		return true
	}
	return Target(c) == t
}

// Status is the schedule's lifecycle state.
type Status string

const (
	StatusScheduled   Status = "SCHEDULED"
	StatusDistributed Status = "DISTRIBUTED"
	StatusCancelled   Status = "CANCELLED"
)

// scheduleTransitions holds the allowed state changes. DISTRIBUTED and
// CANCELLED are terminal.
var scheduleTransitions = map[Status][]Status{
	StatusScheduled: {StatusDistributed, StatusCancelled},
}

// CanTransitionTo reports whether the move is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range scheduleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Schedule is one distribution event owned by a barangay.
type Schedule struct {
	ID            id.ScheduleID
	Barangay      id.BarangayID
	Title         string
	Description   string
	Date          time.Time
	StartTime     string
	EndTime       string
	Location      string
	MaxRecipients *int
	Status        Status
	Type          Type
	Target        Target
	CreatedBy     id.UserID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Open reports whether the schedule still accepts claims.
func (s *Schedule) Open() bool {
	return s.Status == StatusScheduled
}

// CanTransitionTo validates a status move against the state machine.
func (s *Schedule) CanTransitionTo(next Status) error {
	if !s.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move schedule from %s to %s", s.Status, next)
	}
	return nil
}

// ApplyTransition moves the schedule to the next status. Call CanTransitionTo
// first.
func (s *Schedule) ApplyTransition(next Status, now time.Time) {
	s.Status = next
	s.UpdatedAt = now
}

// Input carries schedule creation and detail-update data. Status changes do
// not go through Input; they use the dedicated transition operations, which
// is why the date floor applies to every Input but never blocks closing out
// a past event.
type Input struct {
	Title         string
	Description   string
	Date          time.Time
	StartTime     string
	EndTime       string
	Location      string
	MaxRecipients *int
	Type          Type
	Target        Target
}

// Validate rejects malformed schedule data. The date floor is midnight today
// in the supplied now's location.
func (in *Input) Validate(now time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "schedule title is required")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if in.Date.Before(today) {
		return dErrors.New(dErrors.CodeValidation, "schedule date must not be in the past")
	}
	if !validTypes[in.Type] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown donation type %q", in.Type)
	}
	if !validTargets[in.Target] {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown target classification %q", in.Target)
	}
	if in.MaxRecipients != nil && *in.MaxRecipients < 1 {
		return dErrors.New(dErrors.CodeValidation, "max recipients must be at least 1")
	}
	for _, clock := range []string{in.StartTime, in.EndTime} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "invalid time %q, expected HH:MM", clock)
		}
	}
	return nil
}

// NewSchedule builds a SCHEDULED event from validated input.
func NewSchedule(scheduleID id.ScheduleID, barangayID id.BarangayID, createdBy id.UserID, in Input, now time.Time) *Schedule {
	return &Schedule{
		ID:            scheduleID,
		Barangay:      barangayID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Date:          in.Date,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Location:      in.Location,
		MaxRecipients: in.MaxRecipients,
		Status:        StatusScheduled,
		Type:          in.Type,
		Target:        in.Target,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
